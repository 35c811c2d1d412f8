// Package metrics provides Prometheus metrics for the techmatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching
	rankings          *prometheus.CounterVec
	rankingLatency    *prometheus.HistogramVec
	candidatesScored  prometheus.Counter
	candidatesSkipped *prometheus.CounterVec
	catalogEntries    prometheus.Gauge

	// Match events and notification delivery
	eventsEmitted           prometheus.Counter
	eventsDropped           *prometheus.CounterVec
	notificationsDelivered  prometheus.Counter
	notificationsFailed     prometheus.Counter
	notificationRetries     prometheus.Counter
	notificationsSuppressed prometheus.Counter

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Dispatcher workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Storage
	storageQueryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "techmatch",
		subsystem:        "matching",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.rankings = m.counterVec("rankings_total", "Ranking calls by direction and outcome", "direction", "outcome")
	m.rankingLatency = m.histogramVec("ranking_latency_milliseconds", "End-to-end ranking latency in milliseconds", "direction")
	m.candidatesScored = m.counter("candidates_scored_total", "Candidates that went through scoring")
	m.candidatesSkipped = m.counterVec("candidates_skipped_total", "Candidates excluded before or after scoring", "reason")
	m.catalogEntries = m.gauge("catalog_entries", "Technology entries known to the catalog")

	m.eventsEmitted = m.counter("match_events_emitted_total", "Match events handed to the dispatcher")
	m.eventsDropped = m.counterVec("match_events_dropped_total", "Match events dropped before delivery", "reason")
	m.notificationsDelivered = m.counter("notifications_delivered_total", "Notifications delivered")
	m.notificationsFailed = m.counter("notifications_failed_total", "Notifications dropped after exhausting retries")
	m.notificationRetries = m.counter("notification_retries_total", "Notification delivery retries")
	m.notificationsSuppressed = m.counter("notifications_suppressed_total", "Repeat notifications suppressed")

	m.queueSize = m.gauge("queue_size", "Current number of queued match events")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued match events")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")

	m.workerActiveCount = m.gauge("worker_active_count", "Running dispatcher workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to deliver one match event in milliseconds")

	m.storageQueryLatency = m.histogramVec("storage_query_latency_milliseconds", "Storage operation latency in milliseconds", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRanking counts a finished ranking call and observes its latency.
func RecordRanking(direction, outcome string, latencyMs float64) {
	globalManager.rankings.WithLabelValues(direction, outcome).Inc()
	globalManager.rankingLatency.WithLabelValues(direction).Observe(latencyMs)
}

// RecordCandidatesScored adds n scored candidates.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Add(float64(n))
}

// RecordCandidatesSkipped adds n candidates excluded for reason.
func RecordCandidatesSkipped(reason string, n int) {
	if n > 0 {
		globalManager.candidatesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// UpdateCatalogEntries sets the catalog size gauge.
func UpdateCatalogEntries(n int) {
	globalManager.catalogEntries.Set(float64(n))
}

// RecordEventEmitted counts an event accepted by the dispatcher.
func RecordEventEmitted() {
	globalManager.eventsEmitted.Inc()
}

// RecordEventDropped counts an event that never reached delivery.
func RecordEventDropped(reason string) {
	globalManager.eventsDropped.WithLabelValues(reason).Inc()
}

// RecordNotificationDelivered counts a delivered notification.
func RecordNotificationDelivered() {
	globalManager.notificationsDelivered.Inc()
}

// RecordNotificationFailed counts a notification given up on.
func RecordNotificationFailed() {
	globalManager.notificationsFailed.Inc()
}

// RecordNotificationRetry counts one delivery retry.
func RecordNotificationRetry() {
	globalManager.notificationRetries.Inc()
}

// RecordNotificationSuppressed counts a repeat notification that was skipped.
func RecordNotificationSuppressed() {
	globalManager.notificationsSuppressed.Inc()
}

// UpdateQueue sets size, capacity and utilization gauges together.
func UpdateQueue(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	globalManager.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateWorkerActiveCount sets the number of running dispatcher workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records delivery latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordStorageQueryLatency records the latency of a storage operation.
func RecordStorageQueryLatency(op string, latencyMs float64) {
	globalManager.storageQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component and type.
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
