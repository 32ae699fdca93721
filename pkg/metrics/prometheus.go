// Package metrics provides Prometheus metrics for the leadgate service.
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

// Manager manages all Prometheus metrics for the leadgate service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - Conversion quality is what matters here
	eventsReceived   *prometheus.CounterVec
	eventsGenuine    prometheus.Counter
	eventsRejected   prometheus.Counter
	eventsDuplicate  prometheus.Counter
	clickLinksIssued *prometheus.CounterVec

	// Sheet Writer Metrics - The single external write path
	sheetAppends       prometheus.Counter
	sheetAppendErrors  prometheus.Counter
	sheetAppendRetries prometheus.Counter
	sheetAppendLatency prometheus.Histogram
	sheetUpdates       prometheus.Counter
	sheetUpdateErrors  prometheus.Counter

	// CRM Forwarder Metrics
	crmForwards       prometheus.Counter
	crmForwardErrors  prometheus.Counter
	crmForwardLatency prometheus.Histogram

	// Queue Metrics - Backlog and backpressure indicators
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueDequeues      prometheus.Counter

	// Worker Metrics - Write-path processing
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Pending Registry Metrics - Clicks awaiting outbound confirmation
	pendingClicks       prometheus.Gauge
	registryEvictions   prometheus.Counter
	registryPromotions  prometheus.Counter
	registryConfirmMiss prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "leadgate",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.eventsReceived = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_received_total",
			Help:      "Total number of lead events received by event type",
		},
		[]string{"event"},
	)

	m.eventsGenuine = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_genuine_total",
		Help:      "Total number of events classified as genuine conversions",
	})

	m.eventsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rejected_total",
		Help:      "Total number of events classified as false-positive conversions",
	})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of duplicate events detected (indicates client retries)",
	})

	m.clickLinksIssued = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "click_links_issued_total",
			Help:      "Total number of messenger deep links issued by messenger",
		},
		[]string{"messenger"},
	)

	// Sheet Writer Metrics
	m.sheetAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheet_appends_total",
		Help:      "Total number of rows appended to the spreadsheet",
	})

	m.sheetAppendErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheet_append_errors_total",
		Help:      "Total number of terminal spreadsheet append failures",
	})

	m.sheetAppendRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheet_append_retries_total",
		Help:      "Total number of spreadsheet append retry attempts",
	})

	m.sheetAppendLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheet_append_latency_milliseconds",
		Help:      "Histogram of spreadsheet append latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.sheetUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheet_updates_total",
		Help:      "Total number of in-place messenger cell updates",
	})

	m.sheetUpdateErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheet_update_errors_total",
		Help:      "Total number of messenger cell update failures",
	})

	// CRM Forwarder Metrics
	m.crmForwards = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crm_forwards_total",
		Help:      "Total number of form payloads forwarded to the CRM webhook",
	})

	m.crmForwardErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crm_forward_errors_total",
		Help:      "Total number of terminal CRM webhook failures",
	})

	m.crmForwardLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crm_forward_latency_milliseconds",
		Help:      "Histogram of CRM webhook delivery latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Queue Metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the lead event queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the lead event queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue utilization ratio (size / capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of events enqueued for the sheet writer",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueue attempts (backpressure)",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of events dequeued by workers",
	})

	// Worker Metrics
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of sheet writer workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "End-to-end worker processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker processing errors",
	})

	// Pending Registry Metrics
	m.pendingClicks = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_clicks",
		Help:      "Current number of clicks awaiting outbound confirmation",
	})

	m.registryEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registry_evictions_total",
		Help:      "Total number of pending clicks evicted without confirmation",
	})

	m.registryPromotions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registry_promotions_total",
		Help:      "Total number of pending clicks promoted to genuine conversions",
	})

	m.registryConfirmMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registry_confirm_misses_total",
		Help:      "Total number of confirmations that matched no pending click",
	})

	// HTTP Performance Metrics
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

	// Enhanced Error Metrics
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and reason",
		},
		[]string{"component", "reason"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total errors by endpoint, method and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of GC pause times in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Core business metrics helpers.

// RecordEventReceived increments the received counter for an event type.
func RecordEventReceived(event string) {
	globalManager.eventsReceived.WithLabelValues(event).Inc()
}

// RecordEventGenuine increments the genuine conversion counter.
func RecordEventGenuine() {
	globalManager.eventsGenuine.Inc()
}

// RecordEventRejected increments the false-positive counter.
func RecordEventRejected() {
	globalManager.eventsRejected.Inc()
}

// RecordEventDuplicate increments the duplicate event counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordClickLinkIssued increments the issued deep link counter for a messenger.
func RecordClickLinkIssued(messenger string) {
	globalManager.clickLinksIssued.WithLabelValues(messenger).Inc()
}

// Sheet writer metrics helpers.

// RecordSheetAppend increments the successful append counter.
func RecordSheetAppend() {
	globalManager.sheetAppends.Inc()
}

// RecordSheetAppendError increments the terminal append failure counter.
func RecordSheetAppendError() {
	globalManager.sheetAppendErrors.Inc()
}

// RecordSheetAppendRetry increments the append retry counter.
func RecordSheetAppendRetry() {
	globalManager.sheetAppendRetries.Inc()
}

// RecordSheetAppendLatency records append latency in milliseconds.
func RecordSheetAppendLatency(ms float64) {
	globalManager.sheetAppendLatency.Observe(ms)
}

// RecordSheetUpdate increments the messenger cell update counter.
func RecordSheetUpdate() {
	globalManager.sheetUpdates.Inc()
}

// RecordSheetUpdateError increments the messenger cell update failure counter.
func RecordSheetUpdateError() {
	globalManager.sheetUpdateErrors.Inc()
}

// CRM forwarder metrics helpers.

// RecordCRMForward increments the CRM delivery counter.
func RecordCRMForward() {
	globalManager.crmForwards.Inc()
}

// RecordCRMForwardError increments the terminal CRM failure counter.
func RecordCRMForwardError() {
	globalManager.crmForwardErrors.Inc()
}

// RecordCRMForwardLatency records CRM delivery latency in milliseconds.
func RecordCRMForwardLatency(ms float64) {
	globalManager.crmForwardLatency.Observe(ms)
}

// Queue metrics helpers.

// UpdateQueueSize sets the current queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(ratio float64) {
	globalManager.queueUtilization.Set(ratio)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// Worker metrics helpers.

// UpdateWorkerCount sets the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency in milliseconds.
func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerProcessingLatency.Observe(ms)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Pending registry metrics helpers.

// UpdatePendingClicks sets the pending clicks gauge.
func UpdatePendingClicks(count int) {
	globalManager.pendingClicks.Set(float64(count))
}

// RecordRegistryEviction increments the unconfirmed eviction counter.
func RecordRegistryEviction() {
	globalManager.registryEvictions.Inc()
}

// RecordRegistryPromotion increments the promotion counter.
func RecordRegistryPromotion() {
	globalManager.registryPromotions.Inc()
}

// RecordRegistryConfirmMiss increments the unmatched confirmation counter.
func RecordRegistryConfirmMiss() {
	globalManager.registryConfirmMiss.Inc()
}

// HTTP metrics helpers.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// Error metrics helpers.

// RecordErrorByComponent increments the component error counter.
func RecordErrorByComponent(component, reason string) {
	globalManager.errorsByComponent.WithLabelValues(component, reason).Inc()
}

// RecordErrorByEndpoint increments the endpoint error counter.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics helpers.

// UpdateSystemMemoryUsage sets the heap usage gauge in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}
