// Package metrics exposes Prometheus collectors for the drive server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drive_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drive_bytes_uploaded_total",
			Help: "Total bytes accepted by uploads",
		},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drive_bytes_downloaded_total",
			Help: "Total bytes served by download and preview",
		},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_uploads_total",
			Help: "Total uploaded files by outcome",
		},
		[]string{"status"},
	)

	quotaExceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_quota_exceeded_total",
			Help: "Total quota rejections",
		},
		[]string{"operation"},
	)

	treeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drive_tree_operation_duration_seconds",
			Help:    "Duration of recursive folder operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	blobOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drive_blob_operation_duration_seconds",
			Help:    "Blob store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation", "status"},
	)

	reconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_reconcile_runs_total",
			Help: "Reconciliation sweeps by outcome",
		},
		[]string{"status"},
	)

	reconcileOrphans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_reconcile_orphans_total",
			Help: "Orphaned blobs found and removed by reconciliation",
		},
		[]string{"action"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request counts and latency keyed by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpload records one uploaded file.
func RecordUpload(bytes int64, success bool) {
	if success {
		bytesUploaded.Add(float64(bytes))
	}
	uploadsTotal.WithLabelValues(status(success)).Inc()
}

func RecordDownload(bytes int64) {
	bytesDownloaded.Add(float64(bytes))
}

// RecordQuotaExceeded counts a rejection by operation (upload, copy).
func RecordQuotaExceeded(operation string) {
	quotaExceededTotal.WithLabelValues(operation).Inc()
}

func ObserveTreeOperation(operation string, start time.Time, err error) {
	treeOperationDuration.WithLabelValues(operation, status(err == nil)).Observe(time.Since(start).Seconds())
}

func ObserveBlobOperation(backend, operation string, start time.Time, err error) {
	blobOperationDuration.WithLabelValues(backend, operation, status(err == nil)).Observe(time.Since(start).Seconds())
}

func RecordReconcileRun(success bool) {
	reconcileRunsTotal.WithLabelValues(status(success)).Inc()
}

// RecordReconcileOrphans adds n to the found or deleted counter.
func RecordReconcileOrphans(action string, n int) {
	reconcileOrphans.WithLabelValues(action).Add(float64(n))
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
