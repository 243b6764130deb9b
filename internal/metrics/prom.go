package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brushline_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks request latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brushline_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// OracleCalls counts oracle completions by provider, operation and result.
	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brushline_oracle_calls_total",
			Help: "Total oracle calls by provider, operation and result",
		},
		[]string{"provider", "operation", "result"},
	)

	// OracleDuration tracks oracle latency.
	OracleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brushline_oracle_call_duration_seconds",
			Help:    "Latency of oracle calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider", "operation"},
	)

	// Fallbacks counts deterministic fallbacks taken, by operation.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brushline_fallbacks_total",
			Help: "Total fallbacks used instead of an oracle answer",
		},
		[]string{"operation"},
	)

	// Edits counts dispatcher outcomes by command type.
	Edits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brushline_edits_total",
			Help: "Total edit dispatches by command type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "brushline_oracle_breaker_state",
			Help: "Oracle circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// ObserveRequest records one served HTTP request in both sinks.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

	if !Enabled() {
		return
	}
	New(Namespace).
		Dimension("Route", route).
		Dimension("StatusCode", strconv.Itoa(status)).
		Duration("RequestLatencyMs", elapsed).
		Count("RequestCount").
		Property("method", method).
		Flush()
}

// ObserveOracle records one oracle call.
func ObserveOracle(provider, operation, result string, elapsed time.Duration) {
	OracleCalls.WithLabelValues(provider, operation, result).Inc()
	OracleDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())

	if !Enabled() {
		return
	}
	New(Namespace).
		Dimension("Provider", provider).
		Dimension("Result", result).
		Duration("OracleLatencyMs", elapsed).
		Count("OracleCallCount").
		Property("operation", operation).
		Flush()
}

// ObserveFallback records that operation answered from its fallback.
func ObserveFallback(operation string) {
	Fallbacks.WithLabelValues(operation).Inc()

	if !Enabled() {
		return
	}
	New(Namespace).
		Dimension("Operation", operation).
		Count("FallbackCount").
		Flush()
}

// ObserveEdit records one dispatcher outcome.
func ObserveEdit(commandType, outcome string) {
	Edits.WithLabelValues(commandType, outcome).Inc()

	if !Enabled() {
		return
	}
	New(Namespace).
		Dimension("CommandType", commandType).
		Dimension("Outcome", outcome).
		Count("EditCount").
		Flush()
}
