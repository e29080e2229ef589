package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/search"
	"github.com/rubiojr/hnsearch/pkg/views"
	"github.com/urfave/cli/v3"
)

const searchTableWidth = 120

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Hacker News and print the results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (defaults to default_query from the config)",
			},
			&cli.IntFlag{
				Name:  "pages",
				Usage: "Number of result pages to fetch",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Table width in columns",
				Value: searchTableWidth,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			query := cfg.DefaultQuery
			if c.IsSet("query") {
				query = c.String("query")
			}

			snap, err := searchPages(ctx, client, query, c.Int("pages"))
			if err != nil {
				return err
			}
			printResults(os.Stdout, snap, c.Int("width"))
			return nil
		},
	}
}

// searchPages runs the same event sequence an interactive session would:
// mount with query, then one load-more per extra page.
func searchPages(ctx context.Context, fetcher search.Fetcher, query string, pages int) (search.Snapshot, error) {
	if pages < 1 {
		pages = 1
	}

	state := search.NewState(query)
	events := []search.Event{search.Mounted{}}
	for i := 1; i < pages; i++ {
		events = append(events, search.LoadMoreRequested{})
	}

	for _, ev := range events {
		next, req, err := search.Reduce(state, ev)
		if err != nil {
			return state.Snapshot(), err
		}
		state = next
		if req == nil {
			continue
		}

		page, err := fetcher.Search(ctx, req.Key, req.Page)
		if err != nil {
			return state.Snapshot(), fmt.Errorf("searching %s: %w", req, err)
		}
		state, _, _ = search.Reduce(state, search.FetchSucceeded{Request: *req, Page: page})

		if e, ok := state.Cache.Get(req.Key); ok && e.NbPages > 0 && req.Page+1 >= e.NbPages {
			break
		}
	}

	return state.Snapshot(), nil
}

func printResults(w io.Writer, snap search.Snapshot, width int) {
	fmt.Fprintln(w, views.TermStatus(snap))
	fmt.Fprintln(w)
	if len(snap.ActiveHits) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}
	fmt.Fprint(w, views.TermTable(snap.ActiveHits, width, -1))
}
