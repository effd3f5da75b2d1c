package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialflow_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Content Metrics
	ContentCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_content_created_total",
			Help: "Total number of content items created",
		},
		[]string{"platform", "content_type"},
	)

	ContentTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_content_transitions_total",
			Help: "Total number of content status transitions",
		},
		[]string{"from", "to"},
	)

	ContentPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_content_published_total",
			Help: "Total number of content items published",
		},
		[]string{"platform"},
	)

	// Task Metrics
	TasksEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_tasks_enqueued_total",
			Help: "Total number of scheduled tasks enqueued",
		},
		[]string{"task_type"},
	)

	TaskAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_task_attempts_total",
			Help: "Total number of task execution attempts",
		},
		[]string{"task_type", "outcome"},
	)

	TasksExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_tasks_exhausted_total",
			Help: "Total number of tasks that exhausted their retries",
		},
		[]string{"task_type"},
	)

	TasksQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "socialflow_tasks_queue_depth",
			Help: "Number of tasks waiting in the broker queue",
		},
	)

	TaskExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialflow_task_execution_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"task_type"},
	)

	// Analytics Metrics
	SnapshotsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_analytics_snapshots_total",
			Help: "Total number of analytics snapshots recorded",
		},
		[]string{"platform"},
	)

	// Session Metrics
	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "socialflow_sessions_created_total",
			Help: "Total number of auth sessions created",
		},
	)

	SessionsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "socialflow_sessions_swept_total",
			Help: "Total number of expired sessions deleted",
		},
	)

	// Quota Metrics
	QuotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_quota_rejections_total",
			Help: "Total number of operations rejected by tier quotas",
		},
		[]string{"tier", "quota"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_storage_operations_total",
			Help: "Total number of media storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialflow_storage_operation_duration_seconds",
			Help:    "Media storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation"},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialflow_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordContentCreated records a content creation
func RecordContentCreated(platform, contentType string) {
	ContentCreatedTotal.WithLabelValues(platform, contentType).Inc()
}

// RecordContentTransition records a lifecycle transition
func RecordContentTransition(from, to string) {
	ContentTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordContentPublished records a successful publication
func RecordContentPublished(platform string) {
	ContentPublishedTotal.WithLabelValues(platform).Inc()
}

// RecordTaskEnqueued records a scheduled task enqueue
func RecordTaskEnqueued(taskType string) {
	TasksEnqueuedTotal.WithLabelValues(taskType).Inc()
}

// RecordTaskAttempt records one task execution attempt
func RecordTaskAttempt(taskType string, success bool, duration float64) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	TaskAttemptsTotal.WithLabelValues(taskType, outcome).Inc()
	TaskExecutionDuration.WithLabelValues(taskType).Observe(duration)
}

// RecordTaskExhausted records a task that will never run again
func RecordTaskExhausted(taskType string) {
	TasksExhaustedTotal.WithLabelValues(taskType).Inc()
}

// RecordSnapshot records an analytics snapshot append
func RecordSnapshot(platform string) {
	SnapshotsRecordedTotal.WithLabelValues(platform).Inc()
}

// RecordQuotaRejection records a tier quota rejection
func RecordQuotaRejection(tier, quota string) {
	QuotaRejectionsTotal.WithLabelValues(tier, quota).Inc()
}

// RecordStorageOperation records a media storage operation
func RecordStorageOperation(operation, status string, duration float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
