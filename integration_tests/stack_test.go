package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rubiojr/hnsearch/pkg/api"
	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/hn"
	"github.com/rubiojr/hnsearch/pkg/search"
	"github.com/rubiojr/hnsearch/pkg/session"
)

type stack struct {
	upstream *FakeUpstream
	sessions *session.Manager
	server   *httptest.Server
	client   *http.Client
}

func newStack(t *testing.T, cfgText string) *stack {
	t.Helper()
	upstream := NewFakeUpstream(t, 3, 4)

	cfg, err := config.ParseConfig([]byte(cfgText))
	if err != nil {
		t.Fatalf("parsing config: %v", err)
	}
	cfg.APIBaseURL = upstream.URL

	client, err := hn.NewClient(hn.Config{
		BaseURL:     cfg.APIBaseURL,
		HitsPerPage: cfg.HitsPerPage,
		Timeout:     cfg.HTTPTimeout.Duration,
	})
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	sessions := session.NewManager(context.Background(), client, cfg.DefaultQuery)
	mux := http.NewServeMux()
	api.NewServer(sessions).RegisterRoutes(mux)
	server := httptest.NewServer(api.CorsMiddleware(mux))
	t.Cleanup(func() {
		server.Close()
		sessions.Close()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &stack{upstream: upstream, sessions: sessions, server: server, client: &http.Client{Jar: jar}}
}

func (s *stack) post(t *testing.T, path string, body any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := s.client.Post(s.server.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func (s *stack) settled(t *testing.T) search.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := s.client.Get(s.server.URL + "/api/session")
		if err != nil {
			t.Fatal(err)
		}
		var out api.SessionResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decoding session: %v", err)
		}
		if !out.Snapshot.IsLoading {
			return out.Snapshot
		}
		if time.Now().After(deadline) {
			t.Fatal("session never settled")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSearchSessionEndToEnd(t *testing.T) {
	s := newStack(t, "default_query = \"redux\"\nhits_per_page = 3\n")

	snap := s.settled(t)
	if snap.ActiveKey != "redux" || len(snap.ActiveHits) != 3 || snap.TotalHits != 12 {
		t.Fatalf("initial snapshot = %+v", snap)
	}

	if status := s.post(t, "/api/more", nil); status != http.StatusOK {
		t.Fatalf("more status = %d", status)
	}
	snap = s.settled(t)
	if snap.ActivePage != 1 || len(snap.ActiveHits) != 6 {
		t.Fatalf("after more: page=%d hits=%d", snap.ActivePage, len(snap.ActiveHits))
	}

	if status := s.post(t, "/api/dismiss/redux-0-1", nil); status != http.StatusOK {
		t.Fatalf("dismiss status = %d", status)
	}
	snap = s.settled(t)
	if len(snap.ActiveHits) != 5 || snap.ActiveHits[1].ObjectID != "redux-0-2" {
		t.Fatalf("after dismiss: %+v", snap.ActiveHits)
	}

	s.post(t, "/api/search", api.SearchRequest{Query: "go lang"})
	snap = s.settled(t)
	if snap.ActiveKey != "go lang" || len(snap.ActiveHits) != 3 {
		t.Fatalf("after search: %+v", snap)
	}

	// Cached term: dismissals survive and nothing is refetched.
	before := len(s.upstream.Requests())
	s.post(t, "/api/search", api.SearchRequest{Query: "redux"})
	snap = s.settled(t)
	if len(snap.ActiveHits) != 5 {
		t.Fatalf("cached redux hits = %d", len(snap.ActiveHits))
	}
	if after := len(s.upstream.Requests()); after != before {
		t.Fatalf("cached search hit upstream: %d -> %d requests", before, after)
	}

	want := []search.FetchRequest{{Key: "redux", Page: 0}, {Key: "redux", Page: 1}, {Key: "go lang", Page: 0}}
	got := s.upstream.Requests()
	if len(got) != len(want) {
		t.Fatalf("requests = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("request %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUpstreamFailureAndRecovery(t *testing.T) {
	s := newStack(t, "default_query = \"redux\"\n")
	s.settled(t)

	s.upstream.SetFailing("broken", true)
	s.post(t, "/api/search", api.SearchRequest{Query: "broken"})
	snap := s.settled(t)
	if !snap.HasError || len(snap.ActiveHits) != 0 {
		t.Fatalf("expected error snapshot, got %+v", snap)
	}

	// A failed fetch leaves no entry, so submitting again retries.
	s.upstream.SetFailing("broken", false)
	s.post(t, "/api/search", api.SearchRequest{Query: "broken"})
	snap = s.settled(t)
	if snap.HasError || len(snap.ActiveHits) != 3 {
		t.Fatalf("expected recovery, got %+v", snap)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newStack(t, "default_query = \"redux\"\n")
	s.settled(t)
	s.post(t, "/api/search", api.SearchRequest{Query: "rust"})
	s.settled(t)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	other := &stack{upstream: s.upstream, server: s.server, client: &http.Client{Jar: jar}}
	snap := other.settled(t)
	if snap.ActiveKey != "redux" {
		t.Fatalf("second browser sees %q", snap.ActiveKey)
	}
	if n := s.sessions.Len(); n != 2 {
		t.Fatalf("sessions = %d, want 2", n)
	}
}
