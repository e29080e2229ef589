package search

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[FetchRequest]*Page
	err   error
	calls atomic.Int32
	// gate, when set, blocks every fetch until it is closed.
	gate chan struct{}
}

func (f *fakeFetcher) Search(ctx context.Context, term string, page int) (*Page, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.pages[FetchRequest{Key: term, Page: page}]
	if !ok {
		return &Page{Page: page}, nil
	}
	return p, nil
}

type chanPublisher chan Snapshot

func (c chanPublisher) Publish(s Snapshot) {
	c <- s
}

func startController(t *testing.T, f Fetcher) (*Controller, chanPublisher) {
	t.Helper()
	pub := make(chanPublisher, 64)
	ctrl := NewController(f, "redux", WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-ctrl.Done()
	})
	return ctrl, pub
}

// waitIdle returns the first published snapshot that is not loading.
func waitIdle(t *testing.T, pub chanPublisher) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-pub:
			if !snap.IsLoading {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for session to settle")
		}
	}
}

func TestControllerScenario(t *testing.T) {
	f := &fakeFetcher{pages: map[FetchRequest]*Page{
		{Key: "redux", Page: 0}: {Hits: items("1"), Page: 0},
		{Key: "redux", Page: 1}: {Hits: items("2"), Page: 1},
	}}
	ctrl, pub := startController(t, f)
	ctx := context.Background()

	if err := ctrl.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	snap := waitIdle(t, pub)
	if got := ids(snap.ActiveHits); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("after mount hits = %v", got)
	}
	if snap.HasError {
		t.Fatal("unexpected error")
	}

	if err := ctrl.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	snap = waitIdle(t, pub)
	if got := ids(snap.ActiveHits); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("after load more hits = %v", got)
	}
	if snap.ActivePage != 1 {
		t.Fatalf("page = %d", snap.ActivePage)
	}

	if err := ctrl.Dismiss(ctx, "1"); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if got := ids(ctrl.Snapshot().ActiveHits); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("after dismiss hits = %v", got)
	}
}

func TestControllerSubmitCachedTermSkipsFetch(t *testing.T) {
	f := &fakeFetcher{}
	ctrl, pub := startController(t, f)
	ctx := context.Background()

	if err := ctrl.Mount(ctx); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, pub)
	f.calls.Store(0)

	if err := ctrl.InputChange(ctx, "redux"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if n := f.calls.Load(); n != 0 {
		t.Fatalf("fetch calls = %d, want 0", n)
	}
}

func TestControllerFetchFailure(t *testing.T) {
	f := &fakeFetcher{err: errors.New("status 503")}
	ctrl, pub := startController(t, f)

	if err := ctrl.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := waitIdle(t, pub)
	if !snap.HasError || snap.IsLoading {
		t.Fatalf("snapshot = %+v", snap)
	}
	st := ctrl.State()
	if !errors.Is(st.Err, ErrFetchFailed) {
		t.Fatalf("err = %v", st.Err)
	}
}

func TestControllerLoadingWhileFetchPending(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	ctrl, pub := startController(t, f)

	if err := ctrl.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ctrl.Snapshot().IsLoading {
		t.Fatal("expected loading while fetch is blocked")
	}
	close(f.gate)
	if snap := waitIdle(t, pub); snap.IsLoading {
		t.Fatal("still loading")
	}
}

func TestControllerDismissWithoutResults(t *testing.T) {
	ctrl, _ := startController(t, &fakeFetcher{})
	err := ctrl.Dismiss(context.Background(), "1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestControllerStopped(t *testing.T) {
	ctrl := NewController(&fakeFetcher{}, "redux")
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = ctrl.Run(ctx) }()
	cancel()
	<-ctrl.Done()

	if err := ctrl.Submit(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}
