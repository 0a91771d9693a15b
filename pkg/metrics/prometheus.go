// Package metrics provides Prometheus metrics for the curation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Vote ledger
	votesCast         prometheus.Counter
	votesRemoved      prometheus.Counter
	votesToggled      prometheus.Counter
	voteTxnRetries    prometheus.Counter
	voteTxnFailures   prometheus.Counter
	ledgerTxnLatency  prometheus.Histogram

	// Ranking
	scoreComputations prometheus.Counter
	batchComputations prometheus.Counter
	scoreCacheHits    prometheus.Counter
	scoreCacheMisses  prometheus.Counter
	scoreCacheClears  prometheus.Counter

	// Catalog
	librariesTotal prometheus.Gauge
	votesTotal     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with the given options applied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rueda",
		subsystem:        "curation",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.votesCast = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_cast_total",
		Help:      "Total number of votes cast or overwritten",
	})
	m.votesRemoved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_removed_total",
		Help:      "Total number of votes removed",
	})
	m.votesToggled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_toggled_total",
		Help:      "Total number of toggle operations that cleared an active vote",
	})
	m.voteTxnRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "vote_txn_retries_total",
		Help:      "Total number of ledger transactions retried after a conflict",
	})
	m.voteTxnFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "vote_txn_failures_total",
		Help:      "Total number of ledger transactions that exhausted retries",
	})
	m.ledgerTxnLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_txn_latency_milliseconds",
		Help:      "Histogram of vote ledger transaction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scoreComputations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_computations_total",
		Help:      "Total number of single-library curation score computations",
	})
	m.batchComputations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_computations_total",
		Help:      "Total number of category-wide score computations",
	})
	m.scoreCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_cache_hits_total",
		Help:      "Total number of score cache hits",
	})
	m.scoreCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_cache_misses_total",
		Help:      "Total number of score cache misses",
	})
	m.scoreCacheClears = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_cache_clears_total",
		Help:      "Total number of bulk score cache invalidations",
	})

	m.librariesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "libraries_total",
		Help:      "Number of library records in the catalog",
	})
	m.votesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_total",
		Help:      "Number of live vote records in the ledger",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers delegate to the global manager.

func RecordVoteCast()    { globalManager.votesCast.Inc() }
func RecordVoteRemoved() { globalManager.votesRemoved.Inc() }
func RecordVoteToggled() { globalManager.votesToggled.Inc() }

func RecordVoteTxnRetry()   { globalManager.voteTxnRetries.Inc() }
func RecordVoteTxnFailure() { globalManager.voteTxnFailures.Inc() }

func RecordLedgerTxnLatency(latencyMs float64) {
	globalManager.ledgerTxnLatency.Observe(latencyMs)
}

func RecordScoreComputation() { globalManager.scoreComputations.Inc() }
func RecordBatchComputation() { globalManager.batchComputations.Inc() }
func RecordScoreCacheHit()    { globalManager.scoreCacheHits.Inc() }
func RecordScoreCacheMiss()   { globalManager.scoreCacheMisses.Inc() }
func RecordScoreCacheClear()  { globalManager.scoreCacheClears.Inc() }

func UpdateLibrariesTotal(count int) { globalManager.librariesTotal.Set(float64(count)) }
func UpdateVotesTotal(count int)     { globalManager.votesTotal.Set(float64(count)) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry exposes the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
