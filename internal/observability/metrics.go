package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting Prometheus
// metrics across the engine: model request latency/cost, tool and
// sandbox execution, scheduler task outcomes, and errors by taxonomy
// kind.
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	start := time.Now()
//	// ... call a provider ...
//	metrics.RecordLLMRequest("anthropic", "claude-opus-4-6", "success", time.Since(start).Seconds(), 100, 500)
type Metrics struct {
	// LLMRequestDuration measures model request latency in seconds.
	// Labels: provider, model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts model requests by provider, model, status.
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption by provider, model, type
	// (prompt|completion|cached).
	LLMTokensUsed *prometheus.CounterVec

	// LLMCostUSD tracks estimated cost in USD by provider, model.
	LLMCostUSD *prometheus.CounterVec

	// ContextWindowUsed tracks context window utilization by provider, model.
	ContextWindowUsed *prometheus.HistogramVec

	// ToolExecutionCounter counts tool invocations by tool name and status.
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time by tool name.
	ToolExecutionDuration *prometheus.HistogramVec

	// SandboxExecutionCounter counts sandbox executions by kind and status.
	SandboxExecutionCounter *prometheus.CounterVec

	// TaskCounter counts scheduler task outcomes by status (completed|failed|blocked).
	TaskCounter *prometheus.CounterVec

	// TaskDuration measures task execution time.
	TaskDuration *prometheus.HistogramVec

	// ActiveAgents is a gauge tracking currently running agent executions.
	ActiveAgents prometheus.Gauge

	// ErrorCounter tracks errors by component and taxonomy kind.
	// Labels: component (agentexec|planner|scheduler|sandbox|tools), error_kind
	ErrorCounter *prometheus.CounterVec

	// RunAttempts counts run attempts by status (success|retry|failed), for
	// fallback-chain and retry-budget observability.
	RunAttempts *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics with the
// default registry. Call once at process startup.
func NewMetrics() *Metrics {
	return &Metrics{
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "radium_llm_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_llm_requests_total",
				Help: "Total number of model requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),
		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),
		LLMCostUSD: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_llm_cost_usd_total",
				Help: "Estimated model API cost in USD",
			},
			[]string{"provider", "model"},
		),
		ContextWindowUsed: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "radium_context_window_tokens",
				Help:    "Context window tokens used per request",
				Buckets: []float64{1000, 4000, 8000, 16000, 32000, 64000, 128000},
			},
			[]string{"provider", "model"},
		),
		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "radium_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),
		SandboxExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_sandbox_executions_total",
				Help: "Total number of sandbox executions by kind and status",
			},
			[]string{"kind", "status"},
		),
		TaskCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_scheduler_tasks_total",
				Help: "Total number of scheduled tasks by outcome",
			},
			[]string{"status"},
		),
		TaskDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "radium_scheduler_task_duration_seconds",
				Help:    "Duration of individual task executions",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"status"},
		),
		ActiveAgents: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "radium_active_agents",
				Help: "Current number of agent executions in flight",
			},
		),
		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_errors_total",
				Help: "Total number of errors by component and taxonomy kind",
			},
			[]string{"component", "error_kind"},
		),
		RunAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radium_run_attempts_total",
				Help: "Total number of run attempts by status",
			},
			[]string{"status"},
		),
	}
}

// RecordLLMRequest records metrics for one model request.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordLLMCost records estimated cost for one request.
func (m *Metrics) RecordLLMCost(provider, model string, costUSD float64) {
	m.LLMCostUSD.WithLabelValues(provider, model).Add(costUSD)
}

// RecordContextWindow records context window utilization for one request.
func (m *Metrics) RecordContextWindow(provider, model string, tokensUsed int) {
	m.ContextWindowUsed.WithLabelValues(provider, model).Observe(float64(tokensUsed))
}

// RecordToolExecution records metrics for one tool execution.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordSandboxExecution records metrics for one sandboxed command.
func (m *Metrics) RecordSandboxExecution(kind, status string) {
	m.SandboxExecutionCounter.WithLabelValues(kind, status).Inc()
}

// RecordTask records metrics for one scheduler task outcome.
func (m *Metrics) RecordTask(status string, durationSeconds float64) {
	m.TaskCounter.WithLabelValues(status).Inc()
	m.TaskDuration.WithLabelValues(status).Observe(durationSeconds)
}

// AgentStarted increments the in-flight agent gauge.
func (m *Metrics) AgentStarted() { m.ActiveAgents.Inc() }

// AgentFinished decrements the in-flight agent gauge.
func (m *Metrics) AgentFinished() { m.ActiveAgents.Dec() }

// RecordError increments the error counter for a component and taxonomy kind.
func (m *Metrics) RecordError(component, errorKind string) {
	m.ErrorCounter.WithLabelValues(component, errorKind).Inc()
}

// RecordRunAttempt records a model-call attempt outcome, for fallback-chain
// and retry-budget observability.
func (m *Metrics) RecordRunAttempt(status string) {
	m.RunAttempts.WithLabelValues(status).Inc()
}
