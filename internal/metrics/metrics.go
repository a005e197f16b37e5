package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring ingestion and the query path
var (
	IngestTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fever_ingest_ticks_total",
			Help: "Total number of ingestion ticks by outcome",
		},
		[]string{"result"},
	)

	IngestTicksSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fever_ingest_ticks_skipped_total",
			Help: "Total number of ticks skipped because a prior run was still in flight",
		},
	)

	IngestEventsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fever_ingest_events_inserted_total",
			Help: "Total number of new events persisted by the ingestion pipeline",
		},
	)

	IngestTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fever_ingest_tick_duration_seconds",
			Help:    "Duration of completed ingestion ticks",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fever_query_cache_hits_total",
			Help: "Total number of range queries answered from the cache",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fever_query_cache_misses_total",
			Help: "Total number of range queries that fell through to the store",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fever_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fever_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(
		IngestTicksTotal,
		IngestTicksSkippedTotal,
		IngestEventsInsertedTotal,
		IngestTickDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}
