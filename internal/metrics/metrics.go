// Package metrics provides Prometheus metrics for the orchestrator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool call outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeDenied    = "approval_required"
	OutcomeInvalid   = "invalid"
	OutcomeRecovered = "panic"
)

// Metrics holds every collector on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	ToolCallsTotal        *prometheus.CounterVec
	ToolCallDuration      *prometheus.HistogramVec
	ApprovalsTotal        *prometheus.CounterVec
	LaneDecisionsTotal    *prometheus.CounterVec
	PhaseTransitionsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_tool_calls_total",
				Help: "Total tool calls by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		ToolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conductor_tool_call_duration_seconds",
				Help:    "Tool call duration by tool.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		ApprovalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_approvals_total",
				Help: "Approval gate decisions by tool and result.",
			},
			[]string{"tool", "result"},
		),
		LaneDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_lane_decisions_total",
				Help: "Lane decisions by lane.",
			},
			[]string{"lane"},
		),
		PhaseTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_phase_transitions_total",
				Help: "Committed phase transitions by source and target phase.",
			},
			[]string{"from", "to"},
		),
		registry: reg,
	}

	reg.MustRegister(m.ToolCallsTotal)
	reg.MustRegister(m.ToolCallDuration)
	reg.MustRegister(m.ApprovalsTotal)
	reg.MustRegister(m.LaneDecisionsTotal)
	reg.MustRegister(m.PhaseTransitionsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordToolCall counts one call and observes its duration.
func (m *Metrics) RecordToolCall(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// RecordApproval counts an approval gate decision.
func (m *Metrics) RecordApproval(tool string, approved bool) {
	if m == nil {
		return
	}
	result := "approved"
	if !approved {
		result = "denied"
	}
	m.ApprovalsTotal.WithLabelValues(tool, result).Inc()
}

// RecordLane counts a lane decision.
func (m *Metrics) RecordLane(lane string) {
	if m == nil {
		return
	}
	m.LaneDecisionsTotal.WithLabelValues(lane).Inc()
}

// RecordTransition counts a committed phase transition.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.PhaseTransitionsTotal.WithLabelValues(from, to).Inc()
}
