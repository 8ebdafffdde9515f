// Package metrics provides Prometheus metrics for the cupstats dashboard.
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

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeEmpty  = "empty"
	OutcomeError  = "error"
	OutcomeCached = "cached"
)

// Manager manages all Prometheus metrics for the dashboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dataset metrics, set once per load
	datasetRawRows    prometheus.Gauge
	datasetMatches    prometheus.Gauge
	datasetDropped    prometheus.Gauge
	datasetOverflow   prometheus.Gauge
	datasetLoadMillis prometheus.Gauge

	// Rendering metrics
	viewRenders        *prometheus.CounterVec
	viewRenderDuration *prometheus.HistogramVec
	renderCacheHits    prometheus.Counter
	renderCacheMisses  prometheus.Counter

	// Aggregation metrics
	aggregations        *prometheus.CounterVec
	aggregationDuration *prometheus.HistogramVec
	schemaErrors        *prometheus.CounterVec
	emptyResults        *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// MCP tool calls
	mcpToolCalls *prometheus.CounterVec

	// Prerender pipeline
	prerenderQueueSize prometheus.Gauge
	prerenderJobs      *prometheus.CounterVec
	prerenderWorkers   prometheus.Gauge

	// Error tracking
	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager on a fresh registry with opts applied.
// Call it once at startup, before any metric is recorded.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cupstats",
		subsystem:        "dashboard",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often system gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.datasetRawRows = auto.NewGauge(m.gauge("dataset_raw_rows", "Rows in the raw results table"))
	m.datasetMatches = auto.NewGauge(m.gauge("dataset_matches", "Rows in the deduplicated match table"))
	m.datasetDropped = auto.NewGauge(m.gauge("dataset_duplicates_dropped", "Raw rows collapsed by deduplication"))
	m.datasetOverflow = auto.NewGauge(m.gauge("dataset_overflow_keys", "Match keys with more than two raw rows"))
	m.datasetLoadMillis = auto.NewGauge(m.gauge("dataset_load_duration_milliseconds", "Duration of the last dataset load"))

	m.viewRenders = auto.NewCounterVec(
		m.counter("view_renders_total", "Screen renders by view and outcome"),
		[]string{"view", "outcome"},
	)
	m.viewRenderDuration = auto.NewHistogramVec(
		m.histogram("view_render_duration_milliseconds", "Screen render duration in milliseconds", m.histogramBuckets),
		[]string{"view"},
	)
	m.renderCacheHits = auto.NewCounter(m.counter("render_cache_hits_total", "Screens served from the render cache"))
	m.renderCacheMisses = auto.NewCounter(m.counter("render_cache_misses_total", "Screens rendered while the cache was enabled"))

	m.aggregations = auto.NewCounterVec(
		m.counter("aggregations_total", "Aggregation runs by query and outcome"),
		[]string{"query", "outcome"},
	)
	m.aggregationDuration = auto.NewHistogramVec(
		m.histogram("aggregation_duration_milliseconds", "Aggregation duration in milliseconds", m.histogramBuckets),
		[]string{"query"},
	)
	m.schemaErrors = auto.NewCounterVec(
		m.counter("schema_errors_total", "Requests for columns absent from a table"),
		[]string{"component"},
	)
	m.emptyResults = auto.NewCounterVec(
		m.counter("empty_results_total", "Aggregations that produced no rows"),
		[]string{"query"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counter("http_errors_total", "HTTP error responses by endpoint and error kind"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.mcpToolCalls = auto.NewCounterVec(
		m.counter("mcp_tool_calls_total", "MCP tool invocations by tool and outcome"),
		[]string{"tool", "outcome"},
	)

	m.prerenderQueueSize = auto.NewGauge(m.gauge("prerender_queue_size", "Render jobs waiting in the prerender queue"))
	m.prerenderJobs = auto.NewCounterVec(
		m.counter("prerender_jobs_total", "Prerender jobs by outcome"),
		[]string{"outcome"},
	)
	m.prerenderWorkers = auto.NewGauge(m.gauge("prerender_workers", "Running prerender workers"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counter("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Dataset Metrics Functions.

// UpdateDataset sets the dataset size gauges.
func UpdateDataset(rawRows, matches, dropped, overflow int) {
	globalManager.datasetRawRows.Set(float64(rawRows))
	globalManager.datasetMatches.Set(float64(matches))
	globalManager.datasetDropped.Set(float64(dropped))
	globalManager.datasetOverflow.Set(float64(overflow))
}

// RecordDatasetLoad records how long the last load took.
func RecordDatasetLoad(d time.Duration) {
	globalManager.datasetLoadMillis.Set(millis(d))
}

// Rendering Metrics Functions.

// RecordViewRender counts a render and observes its duration.
func RecordViewRender(view, outcome string, d time.Duration) {
	globalManager.viewRenders.WithLabelValues(view, outcome).Inc()
	globalManager.viewRenderDuration.WithLabelValues(view).Observe(millis(d))
}

// RecordRenderCache counts a render cache lookup.
func RecordRenderCache(hit bool) {
	if hit {
		globalManager.renderCacheHits.Inc()
		return
	}
	globalManager.renderCacheMisses.Inc()
}

// Aggregation Metrics Functions.

// RecordAggregation counts an aggregation run and observes its duration.
func RecordAggregation(query, outcome string, d time.Duration) {
	globalManager.aggregations.WithLabelValues(query, outcome).Inc()
	globalManager.aggregationDuration.WithLabelValues(query).Observe(millis(d))
}

// RecordSchemaError counts a SchemaError raised by component.
func RecordSchemaError(component string) {
	globalManager.schemaErrors.WithLabelValues(component).Inc()
}

// RecordEmptyResult counts an aggregation that produced no rows.
func RecordEmptyResult(query string) {
	globalManager.emptyResults.WithLabelValues(query).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordMCPToolCall counts an MCP tool invocation.
func RecordMCPToolCall(tool, outcome string) {
	globalManager.mcpToolCalls.WithLabelValues(tool, outcome).Inc()
}

// UpdatePrerenderQueueSize sets the number of queued render jobs.
func UpdatePrerenderQueueSize(n int) {
	globalManager.prerenderQueueSize.Set(float64(n))
}

// RecordPrerenderJob counts a finished or rejected render job.
func RecordPrerenderJob(outcome string) {
	globalManager.prerenderJobs.WithLabelValues(outcome).Inc()
}

// UpdatePrerenderWorkers sets the number of running prerender workers.
func UpdatePrerenderWorkers(n int) {
	globalManager.prerenderWorkers.Set(float64(n))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
