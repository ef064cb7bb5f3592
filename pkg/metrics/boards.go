package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
)

// BoardMetrics records outbound board-service traffic.
type BoardMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	retries  *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewBoardMetrics registers the board-service metrics on the provided registerer.
func NewBoardMetrics(reg prometheus.Registerer) *BoardMetrics {
	if reg == nil {
		return &BoardMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "board_api_call_duration_seconds",
		Help:    "Duration of board-service API calls in seconds, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_api_calls_total",
		Help: "Board-service API calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_api_retries_total",
		Help: "Backoff retries after rate-limited board-service calls.",
	}, []string{"operation"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_api_rate_limit_rejections_total",
		Help: "Calls rejected locally by a rate limiter.",
	}, []string{"limiter"})
	reg.MustRegister(duration, calls, retries, rejected)
	return &BoardMetrics{
		duration: duration,
		calls:    calls,
		retries:  retries,
		rejected: rejected,
	}
}

// ObserveCall records one logical call and its outcome.
func (m *BoardMetrics) ObserveCall(operation, outcome string, duration time.Duration) {
	if m == nil || m.calls == nil {
		return
	}
	op := normalizeLabel(operation)
	m.calls.WithLabelValues(op, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncRetry counts one backoff retry for operation.
func (m *BoardMetrics) IncRetry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

// RateLimitRejected counts a local limiter rejection.
func (m *BoardMetrics) RateLimitRejected(limiter string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(limiter)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
