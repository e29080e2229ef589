package integration_tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/rubiojr/hnsearch/pkg/search"
)

// FakeUpstream mimics the search API. Every query returns pageSize hits
// per page over nbPages pages; queries listed in failing get a 500.
type FakeUpstream struct {
	*httptest.Server

	mu       sync.Mutex
	requests []search.FetchRequest
	failing  map[string]bool
	pageSize int
	nbPages  int
}

func NewFakeUpstream(t *testing.T, pageSize, nbPages int) *FakeUpstream {
	t.Helper()
	u := &FakeUpstream{
		failing:  make(map[string]bool),
		pageSize: pageSize,
		nbPages:  nbPages,
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *FakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	term := q.Get("query")
	page, _ := strconv.Atoi(q.Get("page"))

	u.mu.Lock()
	u.requests = append(u.requests, search.FetchRequest{Key: term, Page: page})
	failing := u.failing[term]
	u.mu.Unlock()

	if failing {
		http.Error(w, "upstream unavailable", http.StatusInternalServerError)
		return
	}

	resp := search.Page{Page: page, NbHits: u.pageSize * u.nbPages, NbPages: u.nbPages, HitsPerPage: u.pageSize}
	for i := 0; i < u.pageSize; i++ {
		resp.Hits = append(resp.Hits, search.Item{
			ObjectID: fmt.Sprintf("%s-%d-%d", term, page, i),
			Title:    fmt.Sprintf("%s story %d", term, page*u.pageSize+i),
			Author:   "pg",
			URL:      "https://example.com/" + strconv.Itoa(i),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// SetFailing makes requests for term fail until called again with false.
func (u *FakeUpstream) SetFailing(term string, failing bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing[term] = failing
}

func (u *FakeUpstream) Requests() []search.FetchRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]search.FetchRequest(nil), u.requests...)
}
