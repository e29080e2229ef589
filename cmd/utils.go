package cmd

import (
	"fmt"

	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/hn"
)

// newClient builds the search API client described by cfg.
func newClient(cfg *config.Config) (*hn.Client, error) {
	client, err := hn.NewClient(hn.Config{
		BaseURL:     cfg.APIBaseURL,
		HitsPerPage: cfg.HitsPerPage,
		Timeout:     cfg.HTTPTimeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}
	return client, nil
}
