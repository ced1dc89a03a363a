// Package metrics exposes the Prometheus collectors for subagentd's job
// manager. The coordinator-facing transport is stdio, so these are
// served on a separate loopback-only HTTP side port rather than shared
// with the tool-call path.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsSpawnedTotal counts every successful spawn, by resolved sandbox.
	JobsSpawnedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subagentd_jobs_spawned_total",
			Help: "Total number of subagent jobs spawned",
		},
		[]string{"sandbox"},
	)

	// JobsRunning tracks the current number of running jobs.
	JobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subagentd_jobs_running",
			Help: "Number of subagent jobs currently running",
		},
	)

	// JobDuration tracks job wall-clock time from spawn to termination.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subagentd_job_duration_seconds",
			Help:    "Subagent job duration in seconds, by terminal status",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"status"},
	)

	// TailBufferTruncations counts tail-buffer cap evictions, by stream.
	TailBufferTruncations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subagentd_tail_buffer_truncations_total",
			Help: "Total number of tail buffer truncations due to the 2MiB cap",
		},
		[]string{"stream"},
	)

	// StreamParseErrors counts malformed JSONL lines from agent stdout.
	StreamParseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subagentd_stream_parse_errors_total",
			Help: "Total number of stdout lines that failed JSON parsing",
		},
	)

	// ToolCalls counts MCP tool invocations, by tool and outcome.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subagentd_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	// HTTPRequestsTotal and HTTPRequestDuration cover the metrics side
	// port itself (scrape requests and, if it is ever extended, health
	// checks).
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subagentd_http_requests_total",
			Help: "Total number of HTTP requests against the metrics side port",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subagentd_http_request_duration_seconds",
			Help:    "Request duration in seconds against the metrics side port",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency for the side-port mux.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Collector adapts the package-level collectors to subagent.Metrics so
// the job manager never imports prometheus directly.
type Collector struct{}

func (Collector) RecordSpawn(sandbox string) {
	JobsSpawnedTotal.WithLabelValues(sandbox).Inc()
}

func (Collector) SetRunning(n int) {
	JobsRunning.Set(float64(n))
}

func (Collector) ObserveJobDuration(status string, seconds float64) {
	JobDuration.WithLabelValues(status).Observe(seconds)
}

func (Collector) RecordTailTruncation(stream string) {
	TailBufferTruncations.WithLabelValues(stream).Inc()
}

func (Collector) RecordStreamParseError() {
	StreamParseErrors.Inc()
}

// RecordToolCall records an MCP tool invocation outcome.
func RecordToolCall(tool, status string) {
	ToolCalls.WithLabelValues(tool, status).Inc()
}
