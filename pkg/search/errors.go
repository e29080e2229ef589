package search

import "errors"

var (
	// ErrFetchFailed is reported for every failed search request: transport
	// errors, non-2xx responses and undecodable bodies alike.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidState is returned when an operation needs a cache entry for
	// the active term and there is none.
	ErrInvalidState = errors.New("invalid state")

	// ErrStopped is returned by controller operations once its loop exited.
	ErrStopped = errors.New("session stopped")
)
