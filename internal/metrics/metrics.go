package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_db_queries_total",
			Help: "Total number of store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_db_query_duration_seconds",
			Help:    "Store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_db_transaction_duration_seconds",
			Help:    "Store transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_db_rows_affected",
			Help:    "Rows affected per write operation",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_db_connections_open",
			Help: "Number of open store connections",
		},
	)

	DBSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_db_size_bytes",
			Help: "Total size of the database files on disk including WAL and SHM",
		},
	)
)

// Scan orchestrator metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_scan_runs_total",
			Help: "Total number of scan runs by terminal state",
		},
		[]string{"state"}, // "completed", "cancelled", or "failed"
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_scan_running",
			Help: "Number of scans currently in flight",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_scan_last_run_timestamp",
			Help: "Unix timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_scan_files_total",
			Help: "Total number of files handled by scans, by outcome",
		},
		[]string{"outcome"}, // "indexed", "skipped", "failed", "timeout"
	)

	ScanBatchesCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_scan_batches_committed_total",
			Help: "Total number of media batches committed by scans",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_scan_errors_total",
			Help: "Total number of fatal scan errors",
		},
	)
)

// Metadata extraction metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_extractions_total",
			Help: "Total number of metadata extraction attempts, by outcome",
		},
		[]string{"outcome"}, // "ok", "failed", "timeout"
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_index_extraction_duration_seconds",
			Help:    "Metadata extraction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	ExtractionWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_extraction_workers",
			Help: "Number of workers in the metadata extraction pool",
		},
	)
)

// Filesystem retry metrics for NFS-mounted scan roots
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retries, by operation and volume",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_fs_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_fs_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_fs_operation_duration_seconds",
			Help:    "Filesystem operation duration including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_fs_stale_errors_total",
			Help: "Total number of NFS stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)
)

// Memory backpressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_memory_usage_ratio",
			Help: "Current heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_memory_paused",
			Help: "Whether extraction is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_memory_gc_pauses_total",
			Help: "Total number of forced garbage collections due to memory pressure",
		},
	)
)

// Library size metrics, refreshed by the Collector
var (
	LibraryProjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_library_projects",
			Help: "Number of projects in the store",
		},
	)

	LibraryFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_library_folders",
			Help: "Number of folder rows across all projects",
		},
	)

	LibraryMedia = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_index_library_media",
			Help: "Number of media rows across all projects, by kind",
		},
		[]string{"kind"}, // "photo" or "video"
	)

	LibraryTags = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_library_tags",
			Help: "Number of tag rows across all projects",
		},
	)
)
