package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/rubiojr/hnsearch/pkg/search"
)

type pagedFetcher struct {
	nbPages int
	fail    bool
	calls   []int
}

func (f *pagedFetcher) Search(ctx context.Context, term string, page int) (*search.Page, error) {
	f.calls = append(f.calls, page)
	if f.fail {
		return nil, search.ErrFetchFailed
	}
	return &search.Page{
		Hits:    []search.Item{{ObjectID: term, Title: "Story about " + term}},
		Page:    page,
		NbHits:  f.nbPages,
		NbPages: f.nbPages,
	}, nil
}

func TestSearchPages(t *testing.T) {
	f := &pagedFetcher{nbPages: 10}
	snap, err := searchPages(context.Background(), f, "redux", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 3 || f.calls[2] != 2 {
		t.Fatalf("calls = %v", f.calls)
	}
	// No dedup: the same objectID appears once per page.
	if snap.ActivePage != 2 || len(snap.ActiveHits) != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSearchPagesStopsAtLastPage(t *testing.T) {
	f := &pagedFetcher{nbPages: 2}
	snap, err := searchPages(context.Background(), f, "redux", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 2 || snap.ActivePage != 1 {
		t.Fatalf("calls = %v page = %d", f.calls, snap.ActivePage)
	}
}

func TestSearchPagesFailure(t *testing.T) {
	_, err := searchPages(context.Background(), &pagedFetcher{fail: true}, "redux", 1)
	if !errors.Is(err, search.ErrFetchFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, search.Snapshot{ActiveKey: "redux"}, 80)
	if !strings.Contains(buf.String(), "No results found") {
		t.Fatalf("output = %q", buf.String())
	}

	buf.Reset()
	snap := search.Snapshot{
		ActiveKey:  "redux",
		ActiveHits: []search.Item{{ObjectID: "1", Title: "Redux turns ten", Author: "dan", Points: 1234}},
		TotalHits:  1,
	}
	printResults(&buf, snap, 100)
	out := ansi.Strip(buf.String())
	for _, want := range []string{`"redux"`, "Redux turns ten", "dan", "1,234"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
