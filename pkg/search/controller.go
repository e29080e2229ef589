package search

import (
	"context"
	"sync"

	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/metrics"
)

// Fetcher retrieves one page of results for term.
type Fetcher interface {
	Search(ctx context.Context, term string, page int) (*Page, error)
}

// Publisher receives a snapshot after every change to a session.
type Publisher interface {
	Publish(Snapshot)
}

type envelope struct {
	ev    Event
	reply chan error
}

// Controller owns one session State. Events are applied one at a time by
// the goroutine running Run; fetches run on their own goroutines and come
// back as events, so State is never touched concurrently.
type Controller struct {
	fetcher   Fetcher
	publisher Publisher
	logger    *log.Logger
	events    chan envelope
	done      chan struct{}

	mu    sync.RWMutex
	state State
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithPublisher sets where snapshots are sent after each event.
func WithPublisher(p Publisher) ControllerOption {
	return func(c *Controller) {
		c.publisher = p
	}
}

// WithLogger replaces the default "session" logger.
func WithLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

func NewController(fetcher Fetcher, query string, opts ...ControllerOption) *Controller {
	c := &Controller{
		fetcher: fetcher,
		logger:  log.ForService("session"),
		events:  make(chan envelope),
		done:    make(chan struct{}),
		state:   NewState(query),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes events until ctx is cancelled. Fetches still in flight are
// abandoned; their results are discarded.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-c.events:
			err := c.apply(ctx, env.ev)
			if env.reply != nil {
				env.reply <- err
			}
		}
	}
}

func (c *Controller) apply(ctx context.Context, ev Event) error {
	c.mu.RLock()
	current := c.state
	c.mu.RUnlock()

	next, req, err := Reduce(current, ev)
	if err != nil {
		c.logger.Warnf("%T rejected: %v", ev, err)
		return err
	}

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()

	c.logger.Debugf("applied %T: active=%q draft=%q in_flight=%d", ev, next.ActiveKey, next.DraftTerm, next.InFlight)

	if _, ok := ev.(Dismissed); ok {
		metrics.DismissedTotal.Inc()
	}
	if req != nil {
		c.startFetch(ctx, *req)
	}
	if c.publisher != nil {
		c.publisher.Publish(next.Snapshot())
	}
	return nil
}

func (c *Controller) startFetch(ctx context.Context, req FetchRequest) {
	go func() {
		var ev Event
		page, err := c.fetcher.Search(ctx, req.Key, req.Page)
		if err != nil {
			c.logger.Errorf("fetching %s: %v", req, err)
			ev = FetchFailed{Request: req, Err: err}
		} else {
			ev = FetchSucceeded{Request: req, Page: page}
		}

		select {
		case c.events <- envelope{ev: ev}:
		case <-ctx.Done():
		}
	}()
}

// dispatch hands ev to the loop and waits until it has been applied.
func (c *Controller) dispatch(ctx context.Context, ev Event) error {
	reply := make(chan error, 1)
	select {
	case c.events <- envelope{ev: ev, reply: reply}:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mount commits the initial query and fetches its first page.
func (c *Controller) Mount(ctx context.Context) error {
	return c.dispatch(ctx, Mounted{})
}

// InputChange sets the draft term without fetching.
func (c *Controller) InputChange(ctx context.Context, text string) error {
	return c.dispatch(ctx, InputChanged{Text: text})
}

// Submit commits the draft term. Terms already cached are shown without a
// network round trip.
func (c *Controller) Submit(ctx context.Context) error {
	return c.dispatch(ctx, Submitted{})
}

// LoadMore fetches the page after the active key's current page.
func (c *Controller) LoadMore(ctx context.Context) error {
	return c.dispatch(ctx, LoadMoreRequested{})
}

// Dismiss removes objectID from the active key's results. It fails with
// ErrInvalidState when nothing is cached for the active key.
func (c *Controller) Dismiss(ctx context.Context, objectID string) error {
	return c.dispatch(ctx, Dismissed{ObjectID: objectID})
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Snapshot()
}

// State returns a copy of the session state. The cache is cloned.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Cache = s.Cache.Clone()
	return s
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
