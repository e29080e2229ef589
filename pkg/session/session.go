// Package session keeps one search session per browser. Sessions are
// identified by a random UUID stored in a cookie and live in memory only.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/metrics"
	"github.com/rubiojr/hnsearch/pkg/realtime"
	"github.com/rubiojr/hnsearch/pkg/search"
)

// CookieName is the cookie carrying the session id.
const CookieName = "hnsearch_session"

var ErrClosed = errors.New("session manager closed")

// Session is one browser's search session.
type Session struct {
	ID         string
	Controller *search.Controller
	Hub        *realtime.Hub

	cancel   context.CancelFunc
	lastSeen atomic.Int64
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) stop() {
	s.cancel()
	<-s.Controller.Done()
	s.Hub.Close()
}

// Manager creates, finds and expires sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	fetcher  search.Fetcher
	query    string
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

// NewManager returns a manager whose sessions search through fetcher and
// start with query. Session loops stop when ctx is cancelled or Close is
// called.
func NewManager(ctx context.Context, fetcher search.Fetcher, query string) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		sessions: make(map[string]*Session),
		fetcher:  fetcher,
		query:    query,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.ForService("sessions"),
	}
}

// Configure changes the fetcher and default query used by sessions created
// from now on. Existing sessions keep theirs.
func (m *Manager) Configure(fetcher search.Fetcher, query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetcher = fetcher
	m.query = query
}

// Create starts a new session and triggers its initial fetch.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	fetcher, query := m.fetcher, m.query
	m.mu.Unlock()

	hub := realtime.NewHub(0)
	sctx, cancel := context.WithCancel(m.ctx)
	s := &Session{
		ID:         uuid.New().String(),
		Controller: search.NewController(fetcher, query, search.WithPublisher(hub)),
		Hub:        hub,
		cancel:     cancel,
	}
	s.Touch()
	go func() {
		if err := s.Controller.Run(sctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warnf("session %s stopped: %v", s.ID, err)
		}
	}()

	if err := s.Controller.Mount(ctx); err != nil {
		s.stop()
		return nil, fmt.Errorf("mounting session: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.stop()
		return nil, ErrClosed
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.SessionsActive.Inc()
	m.logger.Debugf("created session %s for %q", s.ID, query)
	return s, nil
}

// Lookup returns the session with id, if it exists.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.Touch()
	}
	return s, ok
}

// FromRequest returns the session named by the request cookie, creating one
// (and setting the cookie on w) when there is none or it has expired.
func (m *Manager) FromRequest(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if s, ok := m.Lookup(c.Value); ok {
				return s, nil
			}
		}
	}

	s, err := m.Create(r.Context())
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Do runs op against the request's session. When the session is reaped
// between lookup and op, op is retried once on a fresh session.
func (m *Manager) Do(w http.ResponseWriter, r *http.Request, op func(*Session) error) (*Session, error) {
	s, err := m.FromRequest(w, r)
	if err != nil {
		return nil, err
	}
	err = op(s)
	if !errors.Is(err, search.ErrStopped) {
		return s, err
	}

	m.logger.Debugf("session %s stopped mid-request, starting a new one", s.ID)
	s, err = m.FromRequest(w, r)
	if err != nil {
		return nil, err
	}
	return s, op(s)
}

// Reap stops sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Reap(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.stop()
		metrics.SessionsActive.Dec()
	}
	if len(expired) > 0 {
		m.logger.Infof("expired %d idle sessions", len(expired))
	}
	return len(expired)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops every session. Later calls to Create fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	m.cancel()
	for _, s := range sessions {
		s.stop()
		metrics.SessionsActive.Dec()
	}
}
