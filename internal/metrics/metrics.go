package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for zen-core
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  prometheus.CounterVec
	DBRetriesTotal  prometheus.CounterVec

	// Cache Metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Setup engine metrics
	EvaluationsTotal      prometheus.CounterVec
	EvaluationDuration    prometheus.Histogram
	AuditLogFailuresTotal prometheus.Counter
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencore_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zencore_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zencore_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Database Metrics
		DBQueriesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencore_db_queries_total",
				Help: "Total database queries by operation type",
			},
			[]string{"query_type"},
		),
		DBRetriesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencore_db_retries_total",
				Help: "Retried database operations after transient connection errors",
			},
			[]string{"operation"},
		),

		// Cache Metrics
		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencore_cache_hits_total",
				Help: "Cache hits by cache prefix",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencore_cache_misses_total",
				Help: "Cache misses by cache prefix",
			},
			[]string{"cache"},
		),

		// Setup engine metrics
		EvaluationsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zencore_setup_evaluations_total",
				Help: "Setup status evaluations by trigger (read, stale, forced)",
			},
			[]string{"trigger"},
		),
		EvaluationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zencore_setup_evaluation_duration_seconds",
				Help:    "Full evaluation run duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		AuditLogFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "zencore_setup_audit_log_failures_total",
				Help: "Best-effort progress log appends that failed",
			},
		),
	}
}
