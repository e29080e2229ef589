package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rubiojr/hnsearch/pkg/search"
)

type countingFetcher struct {
	calls atomic.Int32
	terms chan string
}

func (f *countingFetcher) Search(ctx context.Context, term string, page int) (*search.Page, error) {
	f.calls.Add(1)
	if f.terms != nil {
		f.terms <- term
	}
	return &search.Page{Hits: []search.Item{{ObjectID: term}}, Page: page}, nil
}

func newManager(t *testing.T, f search.Fetcher) *Manager {
	t.Helper()
	m := NewManager(context.Background(), f, "redux")
	t.Cleanup(m.Close)
	return m
}

func TestCreateMountsInitialSearch(t *testing.T) {
	f := &countingFetcher{terms: make(chan string, 1)}
	m := newManager(t, f)

	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	select {
	case term := <-f.terms:
		if term != "redux" {
			t.Fatalf("initial fetch for %q", term)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial fetch")
	}
	if s.Controller.Snapshot().ActiveKey != "redux" {
		t.Fatalf("snapshot = %+v", s.Controller.Snapshot())
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestFromRequestSetsAndReusesCookie(t *testing.T) {
	m := newManager(t, &countingFetcher{})

	rec := httptest.NewRecorder()
	first, err := m.FromRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != first.ID {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	second, err := m.FromRequest(rec, req)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Fatal("cookie did not select the existing session")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("cookie set again for known session")
	}
}

func TestFromRequestIgnoresBogusCookie(t *testing.T) {
	m := newManager(t, &countingFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	s, err := m.FromRequest(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == "not-a-uuid" {
		t.Fatal("bogus id accepted")
	}
}

func TestConfigureAffectsNewSessionsOnly(t *testing.T) {
	m := newManager(t, &countingFetcher{})
	old, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	m.Configure(&countingFetcher{}, "golang")
	fresh, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if got := old.Controller.Snapshot().ActiveKey; got != "redux" {
		t.Fatalf("old session active key = %q", got)
	}
	if got := fresh.Controller.Snapshot().ActiveKey; got != "golang" {
		t.Fatalf("new session active key = %q", got)
	}
}

func TestReapRemovesIdleSessions(t *testing.T) {
	m := newManager(t, &countingFetcher{})
	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	s.lastSeen.Store(time.Now().Add(-time.Hour).UnixNano())

	if n := m.Reap(time.Minute); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if _, ok := m.Lookup(s.ID); ok {
		t.Fatal("reaped session still found")
	}
	select {
	case <-s.Controller.Done():
	default:
		t.Fatal("reaped session loop still running")
	}
}

func TestCreateAfterClose(t *testing.T) {
	m := NewManager(context.Background(), &countingFetcher{}, "redux")
	m.Close()
	if _, err := m.Create(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestDoReplacesSessionReapedMidRequest(t *testing.T) {
	m := newManager(t, &countingFetcher{})

	rec := httptest.NewRecorder()
	first, err := m.FromRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/more", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	attempts := 0
	w := httptest.NewRecorder()
	got, err := m.Do(w, req, func(s *Session) error {
		attempts++
		if attempts == 1 {
			// Everything is idle relative to a cutoff in the future.
			m.Reap(-time.Hour)
		}
		return s.Controller.LoadMore(req.Context())
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if got.ID == first.ID {
		t.Fatal("expected a fresh session")
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != got.ID {
		t.Fatalf("cookies = %v, want the new session id", cookies)
	}
}

func TestDoPassesThroughOtherErrors(t *testing.T) {
	m := newManager(t, &countingFetcher{})

	attempts := 0
	_, err := m.Do(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dismiss", nil), func(s *Session) error {
		attempts++
		return search.ErrInvalidState
	})
	if !errors.Is(err, search.ErrInvalidState) || attempts != 1 {
		t.Fatalf("err = %v attempts = %d", err, attempts)
	}
}

func TestDoAfterClose(t *testing.T) {
	m := NewManager(context.Background(), &countingFetcher{}, "redux")
	m.Close()

	_, err := m.Do(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), func(*Session) error {
		t.Fatal("op must not run on a closed manager")
		return nil
	})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
