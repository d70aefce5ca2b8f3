package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the counters and histograms the agent core reports.
// All methods are nil-safe so call sites never need to guard.
type Metrics struct {
	// LLMRequestDuration measures one model call, streamed or not.
	// Labels: model, status (success|error)
	LLMRequestDuration *prometheus.HistogramVec

	// ToolExecutions counts tool dispatches.
	// Labels: tool, status (success|error)
	ToolExecutions *prometheus.CounterVec

	// ToolDuration measures tool handler latency in seconds.
	// Labels: tool
	ToolDuration *prometheus.HistogramVec

	// AgentSteps observes how many steps a turn took before terminating.
	AgentSteps prometheus.Histogram

	// SSHConnectAttempts counts ssh_to_gateway attempts.
	// Labels: outcome (success|retry|failed)
	SSHConnectAttempts *prometheus.CounterVec
}

// NewMetrics builds and registers the metric set on reg. A nil registry
// returns nil, which every method tolerates, so metrics stay strictly
// opt-in for hosts.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		LLMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "acagent",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM chat completion latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"model", "status"}),
		ToolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acagent",
			Name:      "tool_executions_total",
			Help:      "Tool dispatches by name and outcome.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "acagent",
			Name:      "tool_duration_seconds",
			Help:      "Tool handler latency.",
			Buckets:   []float64{0.05, 0.2, 0.5, 1, 5, 15, 60, 300},
		}, []string{"tool"}),
		AgentSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "acagent",
			Name:      "agent_steps_per_turn",
			Help:      "ReAct steps taken before a turn terminated.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 30},
		}),
		SSHConnectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acagent",
			Name:      "ssh_connect_attempts_total",
			Help:      "ssh_to_gateway attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.LLMRequestDuration, m.ToolExecutions, m.ToolDuration, m.AgentSteps, m.SSHConnectAttempts)
	return m
}

// ObserveLLMRequest records one model call.
func (m *Metrics) ObserveLLMRequest(model, status string, seconds float64) {
	if m == nil {
		return
	}
	m.LLMRequestDuration.WithLabelValues(model, status).Observe(seconds)
}

// ObserveTool records one tool dispatch.
func (m *Metrics) ObserveTool(tool, status string, seconds float64) {
	if m == nil {
		return
	}
	m.ToolExecutions.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(seconds)
}

// ObserveSteps records how many steps a finished turn took.
func (m *Metrics) ObserveSteps(steps int) {
	if m == nil {
		return
	}
	m.AgentSteps.Observe(float64(steps))
}

// ObserveSSHAttempt records one ssh connection attempt outcome.
func (m *Metrics) ObserveSSHAttempt(outcome string) {
	if m == nil {
		return
	}
	m.SSHConnectAttempts.WithLabelValues(outcome).Inc()
}
