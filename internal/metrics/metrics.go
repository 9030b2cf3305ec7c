// Package metrics defines the Prometheus instrumentation for the manga
// shelf server. All metrics share the mangashelf_ prefix and are
// registered with the default registry via promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mangashelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mangashelf_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_indexer_runs_total",
			Help: "Total number of library index runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_indexer_last_run_timestamp",
			Help: "Unix timestamp of the last completed index run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_indexer_last_run_duration_seconds",
			Help: "Duration of the last completed index run",
		},
	)

	IndexerVolumesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_indexer_volumes_processed_total",
			Help: "Total number of volumes processed by the indexer",
		},
	)

	IndexerSeriesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_indexer_series_processed_total",
			Help: "Total number of series directories processed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_indexer_running",
			Help: "Whether an index run is currently in progress (1 or 0)",
		},
	)

	IndexerPollChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_indexer_poll_checks_total",
			Help: "Total number of change detection polls",
		},
	)

	IndexerPollChangesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_indexer_poll_changes_detected_total",
			Help: "Total number of polls that detected library changes",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by outcome",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mangashelf_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_thumbnail_queue_depth",
			Help: "Number of thumbnail requests waiting for a worker",
		},
	)

	ThumbnailBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_thumbnail_batches_total",
			Help: "Total number of batch pregeneration passes by outcome",
		},
		[]string{"status"},
	)
)

// Page render metrics
var (
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mangashelf_render_duration_seconds",
			Help:    "PDF page render duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	RenderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_render_failures_total",
			Help: "Total number of failed page renders",
		},
		[]string{"backend"},
	)
)

// Library metrics
var (
	LibrarySeriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_series_total",
			Help: "Number of series in the library index",
		},
	)

	LibraryVolumesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_volumes_total",
			Help: "Number of volumes in the library index",
		},
	)

	LibraryFavoritesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_favorites_total",
			Help: "Number of favorite series",
		},
	)

	LibraryBookmarksTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_bookmarks_total",
			Help: "Number of stored bookmarks",
		},
	)
)

// Auth metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_auth_attempts_total",
			Help: "Total number of authentication attempts by outcome",
		},
		[]string{"status"},
	)

	AuthSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_auth_sessions_active",
			Help: "Number of active sessions",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_memory_usage_ratio",
			Help: "Heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mangashelf_memory_paused",
			Help: "Whether background processing is paused for memory pressure (1 or 0)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mangashelf_memory_gc_pauses_total",
			Help: "Total number of forced GC cycles triggered by memory pressure",
		},
	)
)

// Filesystem metrics (NFS-mounted libraries)
var (
	FilesystemStaleHandles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_fs_stale_handles_total",
			Help: "Total number of NFS stale file handle errors by operation",
		},
		[]string{"op"},
	)

	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mangashelf_fs_retries_total",
			Help: "Total number of retried filesystem operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
)
