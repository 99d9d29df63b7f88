package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newIsolatedMetrics builds a Metrics instance registered against a fresh
// registry, so tests don't collide with each other on the default
// Prometheus registry.
func newIsolatedMetrics(t *testing.T) *Metrics {
	t.Helper()
	registry := prometheus.NewRegistry()
	m := &Metrics{
		LLMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "llm_request_duration_seconds"}, []string{"provider", "model"}),
		LLMRequestCounter:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "llm_requests_total"}, []string{"provider", "model", "status"}),
		LLMTokensUsed:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "llm_tokens_total"}, []string{"provider", "model", "type"}),
		LLMCostUSD:         prometheus.NewCounterVec(prometheus.CounterOpts{Name: "llm_cost_usd_total"}, []string{"provider", "model"}),
		ContextWindowUsed:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "context_window_tokens"}, []string{"provider", "model"}),
		ToolExecutionCounter:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tool_executions_total"}, []string{"tool_name", "status"}),
		ToolExecutionDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "tool_execution_duration_seconds"}, []string{"tool_name"}),
		SandboxExecutionCounter: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sandbox_executions_total"}, []string{"kind", "status"}),
		TaskCounter:             prometheus.NewCounterVec(prometheus.CounterOpts{Name: "scheduler_tasks_total"}, []string{"status"}),
		TaskDuration:            prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "scheduler_task_duration_seconds"}, []string{"status"}),
		ActiveAgents:            prometheus.NewGauge(prometheus.GaugeOpts{Name: "active_agents"}),
		ErrorCounter:            prometheus.NewCounterVec(prometheus.CounterOpts{Name: "errors_total"}, []string{"component", "error_kind"}),
		RunAttempts:             prometheus.NewCounterVec(prometheus.CounterOpts{Name: "run_attempts_total"}, []string{"status"}),
	}
	registry.MustRegister(m.LLMRequestDuration, m.LLMRequestCounter, m.LLMTokensUsed, m.LLMCostUSD,
		m.ContextWindowUsed, m.ToolExecutionCounter, m.ToolExecutionDuration, m.SandboxExecutionCounter,
		m.TaskCounter, m.TaskDuration, m.ActiveAgents, m.ErrorCounter, m.RunAttempts)
	return m
}

func TestRecordLLMRequest(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.RecordLLMRequest("anthropic", "claude-opus-4-6", "success", 1.5, 100, 500)
	m.RecordLLMRequest("anthropic", "claude-opus-4-6", "error", 0.2, 0, 0)

	if count := testutil.CollectAndCount(m.LLMRequestCounter); count != 2 {
		t.Fatalf("expected 2 label combinations, got %d", count)
	}
	expected := `
		# HELP llm_tokens_total
		# TYPE llm_tokens_total counter
		llm_tokens_total{model="claude-opus-4-6",provider="anthropic",type="completion"} 500
		llm_tokens_total{model="claude-opus-4-6",provider="anthropic",type="prompt"} 100
	`
	if err := testutil.CollectAndCompare(m.LLMTokensUsed, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected token metrics: %v", err)
	}
}

func TestRecordLLMCostAndContextWindow(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.RecordLLMCost("anthropic", "claude-opus-4-6", 0.015)
	m.RecordLLMCost("anthropic", "claude-opus-4-6", 0.02)
	m.RecordContextWindow("anthropic", "claude-opus-4-6", 45000)

	expected := `
		# HELP llm_cost_usd_total
		# TYPE llm_cost_usd_total counter
		llm_cost_usd_total{model="claude-opus-4-6",provider="anthropic"} 0.035
	`
	if err := testutil.CollectAndCompare(m.LLMCostUSD, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected cost metric: %v", err)
	}
	if testutil.CollectAndCount(m.ContextWindowUsed) != 1 {
		t.Fatalf("expected context window histogram to record one series")
	}
}

func TestRecordToolExecution(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.RecordToolExecution("web_search", "success", 0.5)
	m.RecordToolExecution("web_search", "success", 0.8)
	m.RecordToolExecution("shell.exec", "error", 2.0)

	if count := testutil.CollectAndCount(m.ToolExecutionCounter); count != 2 {
		t.Fatalf("expected 2 label combinations, got %d", count)
	}
}

func TestRecordSandboxExecution(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.RecordSandboxExecution("firecracker", "success")
	m.RecordSandboxExecution("firecracker", "timeout")

	expected := `
		# HELP sandbox_executions_total
		# TYPE sandbox_executions_total counter
		sandbox_executions_total{kind="firecracker",status="success"} 1
		sandbox_executions_total{kind="firecracker",status="timeout"} 1
	`
	if err := testutil.CollectAndCompare(m.SandboxExecutionCounter, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected sandbox metric: %v", err)
	}
}

func TestRecordTask(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.RecordTask("completed", 12.5)
	m.RecordTask("failed", 0.2)
	m.RecordTask("completed", 4.0)

	expected := `
		# HELP scheduler_tasks_total
		# TYPE scheduler_tasks_total counter
		scheduler_tasks_total{status="completed"} 2
		scheduler_tasks_total{status="failed"} 1
	`
	if err := testutil.CollectAndCompare(m.TaskCounter, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected task metric: %v", err)
	}
}

func TestActiveAgentsGauge(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.AgentStarted()
	m.AgentStarted()
	m.AgentFinished()

	if got := testutil.ToFloat64(m.ActiveAgents); got != 1 {
		t.Fatalf("expected 1 active agent, got %v", got)
	}
}

func TestRecordError(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.RecordError("agentexec", "tool_timeout")
	m.RecordError("agentexec", "tool_timeout")
	m.RecordError("scheduler", "all_models_failed")

	if count := testutil.CollectAndCount(m.ErrorCounter); count != 2 {
		t.Fatalf("expected 2 label combinations, got %d", count)
	}
}

func TestRecordRunAttempt(t *testing.T) {
	m := newIsolatedMetrics(t)
	m.RecordRunAttempt("success")
	m.RecordRunAttempt("retry")
	m.RecordRunAttempt("retry")

	expected := `
		# HELP run_attempts_total
		# TYPE run_attempts_total counter
		run_attempts_total{status="retry"} 2
		run_attempts_total{status="success"} 1
	`
	if err := testutil.CollectAndCompare(m.RunAttempts, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected run attempt metric: %v", err)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	m := newIsolatedMetrics(t)
	done := make(chan bool)
	iterations := 100

	go func() {
		for i := 0; i < iterations; i++ {
			m.RecordToolExecution("a", "success", 0.01)
		}
		done <- true
	}()
	go func() {
		for i := 0; i < iterations; i++ {
			m.RecordToolExecution("b", "success", 0.01)
		}
		done <- true
	}()
	<-done
	<-done

	if testutil.CollectAndCount(m.ToolExecutionCounter) != 2 {
		t.Fatalf("expected concurrent metric recording to settle into 2 series")
	}
}
