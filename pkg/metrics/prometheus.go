// Package metrics provides Prometheus metrics for the pacer analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pacer service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline metrics
	analysesTotal      *prometheus.CounterVec
	feedbackSource     *prometheus.CounterVec
	analysisLatency    prometheus.Histogram
	mediaBytes         *prometheus.HistogramVec
	coercedFieldsTotal *prometheus.CounterVec
	unknownSportsTotal prometheus.Counter

	// Augmentation metrics
	augmentOutcomes *prometheus.CounterVec
	augmentLatency  prometheus.Histogram

	// Augmentation queue / worker metrics
	queueCapacity    prometheus.Gauge
	queueSize        prometheus.Gauge
	queueRejected    prometheus.Counter
	workerActive     prometheus.Gauge
	workerBusy       prometheus.Gauge
	jobLatency       prometheus.Histogram
	capturedFrames   *prometheus.CounterVec
	rejectedRequests *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System Performance Metrics
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pacer",
		subsystem:        "analysis",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      prometheus.Labels{},
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

	m.analysesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analyses_total",
		Help:        "Total number of completed attempt analyses by sport",
		ConstLabels: m.constLabels,
	}, []string{"sport"})

	m.feedbackSource = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "feedback_source_total",
		Help:        "Feedback strings served, split by heuristic or augmented origin",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analysis_latency_milliseconds",
		Help:        "End-to-end pipeline latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.mediaBytes = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "media_bytes",
		Help:        "Size of received media parts in bytes",
		Buckets:     prometheus.ExponentialBuckets(16*1024, 4, 8),
		ConstLabels: m.constLabels,
	}, []string{"part"})

	m.coercedFieldsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "coerced_fields_total",
		Help:        "Numeric form fields that failed to parse and were coerced to zero",
		ConstLabels: m.constLabels,
	}, []string{"field"})

	m.unknownSportsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unknown_sports_total",
		Help:        "Submissions that resolved to the placeholder lead record",
		ConstLabels: m.constLabels,
	})

	m.augmentOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "outcomes_total",
		Help:        "Remote augmentation outcomes (skipped, failed, succeeded)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.augmentLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "latency_milliseconds",
		Help:        "Remote completion call latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "queue_capacity",
		Help:        "Capacity of the augmentation job queue",
		ConstLabels: m.constLabels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "queue_size",
		Help:        "Jobs currently waiting for an augmentation worker",
		ConstLabels: m.constLabels,
	})

	m.queueRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "queue_rejected_total",
		Help:        "Jobs rejected because the augmentation queue was full or closed",
		ConstLabels: m.constLabels,
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "worker_count",
		Help:        "Number of running augmentation workers",
		ConstLabels: m.constLabels,
	})

	m.workerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "worker_busy",
		Help:        "Augmentation workers currently waiting on the remote service",
		ConstLabels: m.constLabels,
	})

	m.jobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "augment",
		Name:        "job_latency_milliseconds",
		Help:        "Time from enqueue to result delivery in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.capturedFrames = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "capture",
		Name:        "frames_total",
		Help:        "Still frame extraction attempts by result",
		ConstLabels: m.constLabels,
	}, []string{"result"})

	m.rejectedRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "rejected_requests_total",
		Help:        "Requests rejected at the transport boundary by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "errors_by_endpoint_total",
		Help:        "HTTP error responses by endpoint, method and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "errors",
		Name:        "by_component_total",
		Help:        "Errors by component and error type",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Current heap allocation in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutine_count",
		Help:        "Current number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		ConstLabels: m.constLabels,
	})
}

// RecordAnalysis counts a completed analysis and its end-to-end latency.
func RecordAnalysis(sport string, latencyMs float64) {
	globalManager.analysesTotal.WithLabelValues(sport).Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordFeedbackSource counts which source produced the served feedback.
func RecordFeedbackSource(source string) {
	globalManager.feedbackSource.WithLabelValues(source).Inc()
}

// RecordMediaBytes observes the size of a received media part.
func RecordMediaBytes(part string, size int64) {
	globalManager.mediaBytes.WithLabelValues(part).Observe(float64(size))
}

// RecordCoercedField counts a numeric field coerced to zero.
func RecordCoercedField(field string) {
	globalManager.coercedFieldsTotal.WithLabelValues(field).Inc()
}

// RecordUnknownSport counts a placeholder lead lookup.
func RecordUnknownSport() {
	globalManager.unknownSportsTotal.Inc()
}

// RecordAugmentOutcome counts an augmentation outcome.
func RecordAugmentOutcome(outcome string) {
	globalManager.augmentOutcomes.WithLabelValues(outcome).Inc()
}

// RecordAugmentLatency records remote call latency in milliseconds.
func RecordAugmentLatency(latencyMs float64) {
	globalManager.augmentLatency.Observe(latencyMs)
}

// UpdateQueueCapacity sets the augmentation queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the augmentation queue backlog gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueRejected counts a job the queue refused.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// UpdateWorkerCount sets the running augmentation worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// WorkerBusy adjusts the busy-worker gauge by delta (+1 on pickup, -1 on done).
func WorkerBusy(delta int) {
	globalManager.workerBusy.Add(float64(delta))
}

// RecordJobLatency records enqueue-to-result time in milliseconds.
func RecordJobLatency(latencyMs float64) {
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordFrameExtraction counts a still-frame extraction by result
// ("ok", "timeout", "none", "error").
func RecordFrameExtraction(result string) {
	globalManager.capturedFrames.WithLabelValues(result).Inc()
}

// RecordRejectedRequest counts a transport-level rejection.
func RecordRejectedRequest(reason string) {
	globalManager.rejectedRequests.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint increments the endpoint error counter.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent increments the component error counter.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
