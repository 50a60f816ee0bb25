// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ScanDuration tracks directory scan duration.
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Directory scan duration in seconds",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30},
		},
	)

	// ScanFiles tracks file counts returned by scans.
	ScanFiles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_files",
			Help:    "Files matched per directory scan",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	// AssemblyFilesTotal tracks files concatenated into prompt payloads.
	AssemblyFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assembly_files_total",
			Help: "Total files read into assembled prompt payloads",
		},
	)

	// AssemblyBytesTotal tracks bytes of assembled prompt payloads.
	AssemblyBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assembly_bytes_total",
			Help: "Total bytes of assembled prompt payloads",
		},
	)

	// LLMRequestDuration tracks LLM request duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// LLMErrorsTotal tracks LLM failures by taxonomy code.
	LLMErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_errors_total",
			Help: "Total LLM request failures by error code",
		},
		[]string{"code"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// SessionsTotal tracks total sessions created.
	SessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_total",
			Help: "Total sessions created",
		},
	)

	// MessagesTotal tracks total messages recorded.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages recorded",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordScan records metrics for a directory scan.
func RecordScan(files int, duration float64) {
	ScanDuration.Observe(duration)
	ScanFiles.Observe(float64(files))
}

// RecordAssembly records metrics for a prompt assembly.
func RecordAssembly(files, bytes int) {
	AssemblyFilesTotal.Add(float64(files))
	AssemblyBytesTotal.Add(float64(bytes))
}

// RecordLLMRequest records metrics for a completed LLM request.
func RecordLLMRequest(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordLLMError records a classified LLM failure.
func RecordLLMError(code string) {
	LLMErrorsTotal.WithLabelValues(code).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
