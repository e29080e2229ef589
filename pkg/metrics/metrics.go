// Package metrics provides Prometheus metrics for hnsearch.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hnsearch"

var (
	// FetchTotal counts search API requests by outcome ("ok" or "error").
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Total number of search API requests",
		},
		[]string{"outcome"},
	)

	// FetchDuration measures search API round trips.
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of search API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// HitsFetched counts hits received from the search API.
	HitsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_fetched_total",
			Help:      "Total number of hits received from the search API",
		},
	)

	// SessionsActive tracks live web sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live search sessions",
		},
	)

	// DismissedTotal counts dismiss operations applied to a session.
	DismissedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dismissed_total",
			Help:      "Total number of dismiss operations",
		},
	)
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// RecordFetch records one search API request.
func RecordFetch(outcome string, hits int, elapsed time.Duration) {
	FetchTotal.WithLabelValues(outcome).Inc()
	FetchDuration.Observe(elapsed.Seconds())
	if hits > 0 {
		HitsFetched.Add(float64(hits))
	}
}
