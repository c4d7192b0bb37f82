package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the flight-data core.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Cache Metrics
	CacheHitsTotal       prometheus.CounterVec
	CacheMissesTotal     prometheus.CounterVec
	CacheFallbacksTotal  prometheus.CounterVec
	CacheWritesTotal     prometheus.CounterVec
	PersistentTierErrors prometheus.Counter

	// Statistics Metrics
	StatsComputeDuration prometheus.HistogramVec
	StatsNoDataTotal     prometheus.Counter

	// Registry / Auto-Loader Metrics
	AirportsDiscoveredTotal prometheus.Counter
	AirportLookupsTotal     prometheus.CounterVec
	DiscoveryQueueDepth     prometheus.Gauge

	// Upstream Metrics
	UpstreamRequestsTotal prometheus.CounterVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispecer_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispecer_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),

		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispecer_cache_hits_total",
				Help: "Total cache hits by category and tier",
			},
			[]string{"category", "tier"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispecer_cache_misses_total",
				Help: "Total cache misses by category",
			},
			[]string{"category"},
		),
		CacheFallbacksTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispecer_cache_persistent_fallbacks_total",
				Help: "Reads served from the persistent tier after an in-memory miss",
			},
			[]string{"category"},
		),
		CacheWritesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispecer_cache_writes_total",
				Help: "Total cache writes by category",
			},
			[]string{"category"},
		),
		PersistentTierErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dispecer_cache_persistent_errors_total",
				Help: "Persistent tier read/write failures (degraded to memory-only)",
			},
		),

		StatsComputeDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispecer_stats_compute_duration_seconds",
				Help:    "Statistics computation time per airport",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"period"},
		),
		StatsNoDataTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dispecer_stats_no_data_total",
				Help: "Statistics requests answered with the insufficient-data sentinel",
			},
		),

		AirportsDiscoveredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dispecer_airports_discovered_total",
				Help: "Airport codes discovered in flight data and registered",
			},
		),
		AirportLookupsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispecer_airport_lookups_total",
				Help: "External airport-info lookups by outcome",
			},
			[]string{"outcome"},
		),
		DiscoveryQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispecer_discovery_queue_depth",
				Help: "Airport codes currently queued for enrichment",
			},
		),

		UpstreamRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispecer_upstream_requests_total",
				Help: "Upstream API calls by provider and status",
			},
			[]string{"provider", "status"},
		),
	}
}
