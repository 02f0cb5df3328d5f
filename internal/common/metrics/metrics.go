// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_route_decisions_total",
			Help: "Total number of route decisions by outcome",
		},
		[]string{"decision"},
	)

	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_backend_calls_total",
			Help: "Total number of backend adapter calls by backend and status",
		},
		[]string{"backend", "status"},
	)

	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_backend_call_duration_seconds",
			Help: "Duration of backend adapter calls in seconds",
		},
		[]string{"backend"},
	)

	CacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_cache_events_total",
			Help: "Response cache hits, misses and errors by backend",
		},
		[]string{"backend", "event"},
	)

	TablesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_tables_extracted_total",
			Help: "Tabular extraction outcomes",
		},
		[]string{"outcome"},
	)
)
