package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cache_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_cache_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_store_queries_total",
			Help: "Total number of cache store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cache_store_query_duration_seconds",
			Help:    "Cache store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoreEntriesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cache_store_entries_purged_total",
			Help: "Cache entries purged because their original files disappeared",
		},
	)
)

// Scanner metrics
var (
	ScannerFilesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_scanner_files_scanned_total",
			Help: "Total number of files examined by the scanner",
		},
		[]string{"operation"},
	)

	ScannerScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cache_scanner_scan_duration_seconds",
			Help:    "Duration of scanner operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ScannerGhostsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cache_scanner_ghosts_evicted_total",
			Help: "Media records evicted because their files no longer exist",
		},
	)

	ScannerWatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_scanner_watcher_events_total",
			Help: "File watcher events by type",
		},
		[]string{"type"},
	)
)

// Optimizer metrics
var (
	OptimizerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_optimizer_operations_total",
			Help: "Optimization attempts by media type and outcome",
		},
		[]string{"media_type", "status"},
	)

	OptimizerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cache_optimizer_duration_seconds",
			Help:    "Duration of single-file optimizations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"media_type"},
	)

	OptimizerBytesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cache_optimizer_bytes_saved_total",
			Help: "Cumulative difference between original and derivative sizes",
		},
	)

	OptimizerCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cache_optimizer_cache_hits_total",
			Help: "Optimizations short-circuited by an existing derivative",
		},
	)
)

// Task metrics
var (
	TasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_cache_tasks_active",
			Help: "Tasks currently running or paused",
		},
	)

	TaskTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_task_transitions_total",
			Help: "Task status transitions by target status",
		},
		[]string{"status"},
	)
)
