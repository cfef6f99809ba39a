// Package metrics provides Prometheus instrumentation for tool calls and
// engine command executions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rimaleon/podman-mcp/pkg/logx"
)

//nolint:gochecknoglobals // Prometheus collectors are registered once per process
var (
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "podman_mcp_tool_calls_total",
		Help: "Tool invocations by tool name and outcome.",
	}, []string{"tool", "outcome"})

	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "podman_mcp_tool_duration_seconds",
		Help:    "Wall-clock duration of tool invocations.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"tool"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "podman_mcp_command_duration_seconds",
		Help:    "Wall-clock duration of podman and podman-compose commands.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"command"})
)

// Outcome labels for tool calls.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ObserveToolCall records one tool invocation.
func ObserveToolCall(tool, outcome string, duration time.Duration) {
	toolCalls.WithLabelValues(tool, outcome).Inc()
	toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveCommand records one engine or compose command execution.
func ObserveCommand(command string, duration time.Duration) {
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// Serve exposes /metrics on the given address. It blocks, so callers run it
// in a goroutine; listen errors are logged, not fatal.
func Serve(addr string, logger *logx.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("Metrics endpoint listening on %s", addr)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed: %v", err)
	}
}
