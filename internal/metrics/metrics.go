package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediastore_bridge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Bridge metrics
var (
	BridgeInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_invocations_total",
			Help: "Total number of method invocations by method and outcome",
		},
		[]string{"method", "outcome"}, // outcome: success, error, not_implemented, failure
	)

	BridgeInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediastore_bridge_invocation_duration_seconds",
			Help:    "Time spent dispatching a method invocation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method"},
	)

	BridgeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_errors_total",
			Help: "Structured error outcomes by error code",
		},
		[]string{"code"},
	)

	BridgeWebSocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_websocket_sessions",
			Help: "Number of open WebSocket channel sessions",
		},
	)
)

// Scan action metrics
var (
	ScanSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_scan_submissions_total",
			Help: "Scan requests handed to a platform backend",
		},
		[]string{"backend", "status"}, // status: submitted, failed
	)

	ScanSubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediastore_bridge_scan_submission_duration_seconds",
			Help:    "Time taken by a backend to accept a scan request",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend"},
	)
)

// Indexer metrics
var (
	IndexerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_indexer_queue_depth",
			Help: "Scan requests waiting for an indexer worker",
		},
	)

	IndexerQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_indexer_queue_capacity",
			Help: "Capacity of the indexer queue",
		},
	)

	IndexerWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_indexer_workers",
			Help: "Number of indexer worker goroutines",
		},
	)

	IndexerFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_indexer_files_processed_total",
			Help: "Files processed by the indexer by result",
		},
		[]string{"result"}, // indexed, removed, skipped, error
	)

	IndexerProcessDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediastore_bridge_indexer_process_duration_seconds",
			Help:    "Time taken to index a single file",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	IndexerLastIndexedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_indexer_last_indexed_timestamp",
			Help: "Unix timestamp of the most recently indexed file",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediastore_bridge_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Catalog metrics
var (
	CatalogFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_catalog_files_total",
			Help: "Files in the media catalog by type",
		},
		[]string{"type"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_thumbnail_generations_total",
			Help: "Preview thumbnails generated by decoder and status",
		},
		[]string{"decoder", "status"}, // decoder: vips, imaging, ffmpeg
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediastore_bridge_thumbnail_generation_duration_seconds",
			Help:    "Time taken to generate a preview thumbnail",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"decoder"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_filesystem_retry_attempts_total",
			Help: "Retries performed after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bridge_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediastore_bridge_filesystem_retry_duration_seconds",
			Help:    "Total time spent in a retried filesystem operation",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the soft memory limit",
		},
	)

	MemoryThrottled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_memory_throttled",
			Help: "1 while preview rendering is paused for memory pressure",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediastore_bridge_app_info",
			Help: "Build and channel information",
		},
		[]string{"version", "commit", "go_version", "channel", "backend"},
	)
)
