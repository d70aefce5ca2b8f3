package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsNilRegistry(t *testing.T) {
	m := NewMetrics(nil)
	if m != nil {
		t.Fatal("NewMetrics(nil) should return nil")
	}
	// Nil receiver methods must not panic.
	m.ObserveLLMRequest("gpt-4o", "success", 1.2)
	m.ObserveTool("browser_click", "success", 0.1)
	m.ObserveSteps(3)
	m.ObserveSSHAttempt("success")
}

func TestMetricsCounting(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveTool("run_gateway_command", "success", 2.0)
	m.ObserveTool("run_gateway_command", "success", 1.0)
	m.ObserveTool("run_gateway_command", "error", 0.5)

	got := testutil.ToFloat64(m.ToolExecutions.WithLabelValues("run_gateway_command", "success"))
	if got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.ToolExecutions.WithLabelValues("run_gateway_command", "error"))
	if got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}
