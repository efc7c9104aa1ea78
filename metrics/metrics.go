// Package metrics holds the Prometheus collectors of the turn cycle.
// All methods are safe on a nil *Metrics, so components take one optionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "acc"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics is the set of collectors registered on one registry.
type Metrics struct {
	turns          *prometheus.CounterVec
	turnDuration   prometheus.Histogram
	toolIterations prometheus.Histogram
	degraded       *prometheus.CounterVec
	finalize       *prometheus.CounterVec
	rewrites       *prometheus.CounterVec
	rateLimited    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns processed by outcome",
		}, []string{"outcome"}),
		turnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Latency from input to reply, Finalize excluded",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		toolIterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_iterations",
			Help:      "Capability re-invocations per reply",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		degraded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_degraded_total",
			Help:      "Oracle failures degraded to a default, by step",
		}, []string{"step"}),
		finalize: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_total",
			Help:      "Finalize tasks by outcome",
		}, []string{"outcome"}),
		rewrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_rewrites_total",
			Help:      "Configuration documents rewritten by introspection",
		}, []string{"document"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Turns rejected by the per-session rate limiter",
		}),
	}
}

// Turn records one turn's outcome and latency.
func (m *Metrics) Turn(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome(err)).Inc()
	m.turnDuration.Observe(d.Seconds())
}

// ToolIterations records the re-invocation count of one reply.
func (m *Metrics) ToolIterations(n int) {
	if m == nil {
		return
	}
	m.toolIterations.Observe(float64(n))
}

// Degraded records an oracle failure that fell back to a default.
func (m *Metrics) Degraded(step string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(step).Inc()
}

// Finalize records one finalize task's outcome.
func (m *Metrics) Finalize(err error) {
	if m == nil {
		return
	}
	m.finalize.WithLabelValues(outcome(err)).Inc()
}

// Rewrite records a configuration document rewrite.
func (m *Metrics) Rewrite(document string) {
	if m == nil {
		return
	}
	m.rewrites.WithLabelValues(document).Inc()
}

// RateLimited records a rejected turn.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
