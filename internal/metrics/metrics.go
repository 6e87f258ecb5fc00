// Package metrics provides Prometheus metrics for the Inkwell server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Watch loop metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_watch_scans_total",
			Help: "Total watch loop scans by result",
		},
		[]string{"result"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inkwell_watch_scan_duration_seconds",
			Help:    "Time to capture and diff one workspace snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	fileChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_file_changes_total",
			Help: "Total file changes detected by the watch loop",
		},
		[]string{"type"},
	)

	// Workspace metrics
	workspaceOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_workspace_operations_total",
			Help: "Total workspace operations by outcome",
		},
		[]string{"operation", "result"},
	)

	treeFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_workspace_tree_files",
			Help: "Number of files in the last built workspace tree",
		},
	)

	// SSE metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_sse_events_total",
			Help: "Total SSE events published",
		},
		[]string{"type"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_rate_limit_hits_total",
			Help: "Total rate limit rejections (429s)",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWorkspaceOp records the outcome of a workspace operation.
func RecordWorkspaceOp(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	workspaceOpsTotal.WithLabelValues(operation, result).Inc()
}

// SetTreeFiles records the file count of the last built tree.
func SetTreeFiles(n int) {
	treeFiles.Set(float64(n))
}

// SSEConnected tracks an SSE client connecting (+1) or disconnecting (-1).
func SSEConnected(delta int) {
	sseConnectionsActive.Add(float64(delta))
}

// RecordSSEEvent records an SSE event being published.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordRateLimitHit records a rate limit rejection.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// Watch records watch loop activity. The zero value is ready to use.
type Watch struct{}

// ScanCompleted records one scan cycle.
func (Watch) ScanCompleted(result string, d time.Duration) {
	scansTotal.WithLabelValues(result).Inc()
	scanDuration.Observe(d.Seconds())
}

// ChangesDetected records the changes published by one cycle.
func (Watch) ChangesDetected(changes []domain.FileChange) {
	for _, c := range changes {
		fileChangesTotal.WithLabelValues(string(c.Type)).Inc()
	}
}
