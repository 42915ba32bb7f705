package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion Metrics
var (
	// FetchRequestsTotal tracks fetch operations by outcome (success/upstream_error/store_error)
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_requests_total",
			Help: "Total fetch operations by outcome",
		},
		[]string{"outcome"},
	)

	// PostsInsertedTotal tracks newly inserted posts
	PostsInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_inserted_total",
			Help: "Total posts newly inserted into the store",
		},
	)

	// PostsDeduplicatedTotal tracks upstream posts skipped because they already existed
	PostsDeduplicatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_deduplicated_total",
			Help: "Total upstream posts skipped as already stored",
		},
	)

	// CacheReadsTotal tracks cached reads by result (hit/empty)
	CacheReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_reads_total",
			Help: "Total cached post reads by result",
		},
		[]string{"result"},
	)
)

// Upstream Source Metrics
var (
	// UpstreamRequestDuration tracks upstream search latency in seconds
	UpstreamRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream search request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// UpstreamErrorsTotal tracks upstream failures by kind (rate_limited/unavailable/other)
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Total upstream search failures by kind",
		},
		[]string{"kind"},
	)

	// UpstreamBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	UpstreamBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "upstream_breaker_state",
			Help: "Current upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Enrichment Metrics
var (
	// EnrichmentRunsTotal tracks enrichment runs by outcome (completed/store_error)
	EnrichmentRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_runs_total",
			Help: "Total enrichment runs by outcome",
		},
		[]string{"outcome"},
	)

	// EnrichmentTriggersTotal tracks triggers by disposition (queued/debounced/dropped)
	EnrichmentTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_triggers_total",
			Help: "Total enrichment triggers by disposition",
		},
		[]string{"disposition"},
	)

	// PostsScoredTotal tracks posts fully scored by both models
	PostsScoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_scored_total",
			Help: "Total posts enriched with both sentiment scores",
		},
	)

	// ModelFailuresTotal tracks per-post model failures by model (lexicon/classifier)
	ModelFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_failures_total",
			Help: "Total per-post sentiment model failures by model",
		},
		[]string{"model"},
	)

	// EnrichmentRunDuration tracks enrichment run duration in seconds
	EnrichmentRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_run_duration_seconds",
			Help:    "Enrichment run duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)
