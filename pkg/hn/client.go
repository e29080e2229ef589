// Package hn talks to the Hacker News search API hosted by Algolia.
package hn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/metrics"
	"github.com/rubiojr/hnsearch/pkg/search"
)

const (
	DefaultBaseURL     = "https://hn.algolia.com/api/v1"
	DefaultHitsPerPage = 100

	searchPath = "/search"
)

type Config struct {
	BaseURL     string
	HitsPerPage int
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.HitsPerPage <= 0 {
		c.HitsPerPage = DefaultHitsPerPage
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	return nil
}

// Client fetches search result pages. It implements search.Fetcher.
type Client struct {
	config Config
	client *http.Client
	logger *log.Logger
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.ForService("hn"),
	}, nil
}

// NewClientWithHTTP is NewClient with a caller-supplied HTTP client.
func NewClientWithHTTP(config Config, httpClient *http.Client) (*Client, error) {
	c, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	c.client = httpClient
	return c, nil
}

// SearchURL builds <base>/search?query=<term>&page=<page>&hitsPerPage=<n>.
// The term is sent as given, including empty or blank terms.
func (c *Client) SearchURL(term string, page int) string {
	q := url.Values{}
	q.Set("query", term)
	q.Set("page", strconv.Itoa(page))
	q.Set("hitsPerPage", strconv.Itoa(c.config.HitsPerPage))
	return c.config.BaseURL + searchPath + "?" + q.Encode()
}

// Search fetches one page of hits for term. Every failure is a *FetchError
// matching search.ErrFetchFailed.
func (c *Client) Search(ctx context.Context, term string, page int) (*search.Page, error) {
	start := time.Now()
	result, err := c.search(ctx, term, page)
	if err != nil {
		metrics.RecordFetch(metrics.OutcomeError, 0, time.Since(start))
		return nil, err
	}
	metrics.RecordFetch(metrics.OutcomeOK, len(result.Hits), time.Since(start))
	c.logger.Debugf("fetched %d hits for %q page %d in %s", len(result.Hits), term, page, time.Since(start))
	return result, nil
}

func (c *Client) search(ctx context.Context, term string, page int) (*search.Page, error) {
	fail := func(status int, err error) error {
		return &FetchError{Term: term, Page: page, StatusCode: status, Err: err}
	}

	u := c.SearchURL(term, page)
	c.logger.Debugf("GET %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(resp.StatusCode, fmt.Errorf("API request failed with status %d", resp.StatusCode))
	}

	var result search.Page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}
	if result.Hits == nil {
		result.Hits = []search.Item{}
	}

	return &result, nil
}

// FetchError describes a failed search request. StatusCode is zero when no
// HTTP response was received.
type FetchError struct {
	Term       string
	Page       int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("searching %q page %d: %v", e.Term, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == search.ErrFetchFailed
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
