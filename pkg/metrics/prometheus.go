// Package metrics provides Prometheus metrics for the Creator Score
// rewards service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Ranking pass metrics - the heart of the service
	rankingPasses      prometheus.Counter
	rankingPassErrors  prometheus.Counter
	rankingPassDuration prometheus.Histogram

	// Snapshot metrics
	snapshotEntries    prometheus.Gauge
	snapshotLastUnix   prometheus.Gauge
	snapshotShortCount prometheus.Counter

	// Reward pool metrics
	rewardPoolTotal    prometheus.Gauge
	rewardPayableTotal prometheus.Gauge
	optedOutCount      prometheus.Gauge
	boostedCount       prometheus.Gauge

	// Decision metrics
	decisionWrites    prometheus.Counter
	decisionConflicts prometheus.Counter

	// External source metrics
	talentPagesFetched prometheus.Counter
	talentFetchErrors  prometheus.Counter
	boostQuerySuccess  prometheus.Counter
	boostQueryErrors   prometheus.Counter

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "creatorscore",
		subsystem:        "rewards",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.rankingPasses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_passes_total",
		Help:      "Total number of completed ranking passes",
	})

	m.rankingPassErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_pass_errors_total",
		Help:      "Total number of ranking passes that failed",
	})

	m.rankingPassDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_pass_duration_milliseconds",
		Help:      "Histogram of end-to-end ranking pass duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_entries",
		Help:      "Number of entries in the currently served snapshot",
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_unix",
		Help:      "Unix timestamp of the last published snapshot",
	})

	m.snapshotShortCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_short_count_total",
		Help:      "Total number of passes that received fewer profiles than requested",
	})

	m.rewardPoolTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_pool_total_usdc",
		Help:      "Configured sponsor pool total in USDC",
	})

	m.rewardPayableTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_payable_total_usdc",
		Help:      "Sum of payable rewards in the current snapshot",
	})

	m.optedOutCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "opted_out_count",
		Help:      "Number of opted-out creators inside the reward window",
	})

	m.boostedCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boosted_count",
		Help:      "Number of boosted creators inside the reward window",
	})

	m.decisionWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decision_writes_total",
		Help:      "Total number of recorded reward decisions",
	})

	m.decisionConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decision_conflicts_total",
		Help:      "Total number of writes rejected because a decision was final",
	})

	m.talentPagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "talent_pages_fetched_total",
		Help:      "Total number of profile pages fetched from the score source",
	})

	m.talentFetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "talent_fetch_errors_total",
		Help:      "Total number of score source fetch failures",
	})

	m.boostQuerySuccess = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boost_query_success_total",
		Help:      "Total number of successful token holder queries",
	})

	m.boostQueryErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boost_query_errors_total",
		Help:      "Total number of failed token holder queries",
	})

	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits by cache name",
		},
		[]string{"cache"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses by cache name",
		},
		[]string{"cache"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
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

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type",
		},
		[]string{"error_type", "severity"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of operations that resulted in errors",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordRankingPass records a completed ranking pass and its duration.
func RecordRankingPass(durationMs float64) {
	globalManager.rankingPasses.Inc()
	globalManager.rankingPassDuration.Observe(durationMs)
}

// RecordRankingPassError increments the failed ranking pass counter.
func RecordRankingPassError() {
	globalManager.rankingPassErrors.Inc()
}

// UpdateSnapshotEntries sets the size of the currently served snapshot.
func UpdateSnapshotEntries(count int) {
	globalManager.snapshotEntries.Set(float64(count))
}

// UpdateSnapshotUnix sets the publish timestamp of the current snapshot.
func UpdateSnapshotUnix(unix int64) {
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// RecordSnapshotShortCount increments the short-count pass counter.
func RecordSnapshotShortCount() {
	globalManager.snapshotShortCount.Inc()
}

// UpdateRewardPoolTotal sets the configured pool total.
func UpdateRewardPoolTotal(amount float64) {
	globalManager.rewardPoolTotal.Set(amount)
}

// UpdateRewardPayableTotal sets the payable sum of the current snapshot.
func UpdateRewardPayableTotal(amount float64) {
	globalManager.rewardPayableTotal.Set(amount)
}

// UpdateOptedOutCount sets the opted-out creator count in the window.
func UpdateOptedOutCount(count int) {
	globalManager.optedOutCount.Set(float64(count))
}

// UpdateBoostedCount sets the boosted creator count in the window.
func UpdateBoostedCount(count int) {
	globalManager.boostedCount.Set(float64(count))
}

// RecordDecisionWrite increments the decision writes counter.
func RecordDecisionWrite() {
	globalManager.decisionWrites.Inc()
}

// RecordDecisionConflict increments the final-decision conflict counter.
func RecordDecisionConflict() {
	globalManager.decisionConflicts.Inc()
}

// RecordTalentPage increments the fetched pages counter.
func RecordTalentPage() {
	globalManager.talentPagesFetched.Inc()
}

// RecordTalentFetchError increments the score source failure counter.
func RecordTalentFetchError() {
	globalManager.talentFetchErrors.Inc()
}

// RecordBoostQuerySuccess increments the successful holder query counter.
func RecordBoostQuerySuccess() {
	globalManager.boostQuerySuccess.Inc()
}

// RecordBoostQueryError increments the failed holder query counter.
func RecordBoostQueryError() {
	globalManager.boostQueryErrors.Inc()
}

// RecordCacheHit increments the hit counter for a named cache.
func RecordCacheHit(cache string) {
	globalManager.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter for a named cache.
func RecordCacheMiss(cache string) {
	globalManager.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint increments the per-endpoint error counter.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType increments the per-type error counter.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorLatency records latency of a failed operation.
func RecordErrorLatency(component, errorType string, durationMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets current memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause observation in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}
