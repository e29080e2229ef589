package api

import (
	"time"

	"github.com/rubiojr/hnsearch/pkg/search"
)

type SearchRequest struct {
	Query string `json:"query"`
}

type SessionResponse struct {
	ID       string          `json:"id"`
	Snapshot search.Snapshot `json:"snapshot"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Sessions  int       `json:"sessions"`
}
