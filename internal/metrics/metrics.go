// Package metrics exposes Prometheus collectors for the roster service.
//
// Metrics are served at /metrics in the Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPC metrics
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toast_rpc_requests_total",
			Help: "Total RPC calls by procedure and result code",
		},
		[]string{"procedure", "code"},
	)

	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toast_rpc_request_duration_seconds",
			Help:    "RPC latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"procedure"},
	)

	// Roster metrics
	RosterDataVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "toast_roster_data_version",
			Help: "Last observed roster data version",
		},
	)

	RosterMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toast_roster_mutations_total",
			Help: "Roster mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	OrphansSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toast_roster_orphans_swept_total",
			Help: "Participants deleted because their last session was deleted",
		},
	)

	// Matching metrics
	DuplicatePairsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "toast_duplicate_pairs",
			Help:    "Duplicate pairs returned per duplicate check",
			Buckets: prometheus.LinearBuckets(0, 2, 8),
		},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "toast_recommendation_candidates",
			Help:    "Candidates returned per recommendation query",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		},
	)

	// Result cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toast_cache_hits_total",
			Help: "Result cache hits by operation",
		},
		[]string{"operation"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toast_cache_misses_total",
			Help: "Result cache misses by operation",
		},
		[]string{"operation"},
	)

	CachePurges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toast_cache_purges_total",
			Help: "Result cache purges caused by a new data version",
		},
	)

	// Import metrics
	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toast_import_rows_total",
			Help: "Imported sheet rows by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordMutation counts a roster mutation.
func RecordMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RosterMutations.WithLabelValues(operation, outcome).Inc()
}
