// Package metrics provides Prometheus metrics for the huddle pipeline and
// its HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the huddle service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline Metrics - stage outcomes and feed latency
	stageResults *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec

	// Odds Metrics - market group reconciliation
	oddsGroupQueries prometheus.Counter
	oddsGroupSkipped prometheus.Counter

	// Snapshot Metrics - document assembly
	snapshotWrites   prometheus.Counter
	snapshotLastUnix prometheus.Gauge

	// Insights Proxy Metrics
	proxyRequests *prometheus.CounterVec
	proxyRetries  prometheus.Counter

	// Refresh Queue Metrics - on-demand snapshot refresh requests
	refreshRequests  *prometheus.CounterVec
	refreshQueueSize prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "huddle",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.stageResults = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_results_total",
			Help:      "Pipeline stage outcomes by stage name and status (ok/empty/failed)",
		},
		[]string{"stage", "status"},
	)

	m.fetchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetch_latency_seconds",
			Help:      "Upstream feed fetch latency in seconds by source",
			Buckets:   m.histogramBuckets,
		},
		[]string{"source"},
	)

	m.oddsGroupQueries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "odds_group_queries_total",
		Help:      "Total market-group quote queries issued",
	})

	m.oddsGroupSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "odds_group_skipped_total",
		Help:      "Market groups skipped because no bookmaker offered quotes",
	})

	m.snapshotWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_writes_total",
		Help:      "Snapshot documents written",
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_write_timestamp_seconds",
		Help:      "Unix timestamp of the last snapshot write",
	})

	m.proxyRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "insights",
			Name:      "proxy_requests_total",
			Help:      "Completion proxy requests by terminal status code",
		},
		[]string{"status_code"},
	)

	m.proxyRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "insights",
		Name:      "proxy_retries_total",
		Help:      "Completion proxy retries triggered by rate-limit responses",
	})

	m.refreshRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "refresh_requests_total",
			Help:      "On-demand refresh requests by outcome (accepted/coalesced/dropped)",
		},
		[]string{"outcome"},
	)

	m.refreshQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_queue_size",
		Help:      "Refresh requests currently queued",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// GetRegistry returns the registry backing the global manager, for mounting
// the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording on the global manager.

// RecordStageResult counts one pipeline stage outcome.
func RecordStageResult(stage, status string) {
	globalManager.stageResults.WithLabelValues(stage, status).Inc()
}

// RecordFetchLatency observes one upstream fetch duration.
func RecordFetchLatency(source string, seconds float64) {
	globalManager.fetchLatency.WithLabelValues(source).Observe(seconds)
}

// RecordOddsGroupQuery counts one market-group quote query.
func RecordOddsGroupQuery() {
	globalManager.oddsGroupQueries.Inc()
}

// RecordOddsGroupSkipped counts one market group skipped for lack of quotes.
func RecordOddsGroupSkipped() {
	globalManager.oddsGroupSkipped.Inc()
}

// RecordSnapshotWrite counts a snapshot write and stamps its time.
func RecordSnapshotWrite(unixSeconds float64) {
	globalManager.snapshotWrites.Inc()
	globalManager.snapshotLastUnix.Set(unixSeconds)
}

// RecordProxyRequest counts one terminal completion-proxy response.
func RecordProxyRequest(statusCode string) {
	globalManager.proxyRequests.WithLabelValues(statusCode).Inc()
}

// RecordProxyRetry counts one rate-limit retry in the completion proxy.
func RecordProxyRetry() {
	globalManager.proxyRetries.Inc()
}

// RecordRefreshRequest counts one refresh request by outcome.
func RecordRefreshRequest(outcome string) {
	globalManager.refreshRequests.WithLabelValues(outcome).Inc()
}

// UpdateRefreshQueueSize sets the current refresh queue depth.
func UpdateRefreshQueueSize(n int) {
	globalManager.refreshQueueSize.Set(float64(n))
}

// RecordHTTPRequest counts one served HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one served HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}
