package agentexec

import (
	"context"
	"testing"
	"time"

	"github.com/radiumhq/radium/internal/backoff"
	"github.com/radiumhq/radium/internal/errtax"
	"github.com/radiumhq/radium/internal/hooks"
	"github.com/radiumhq/radium/internal/modelcache"
	"github.com/radiumhq/radium/internal/provideradapter"
	"github.com/radiumhq/radium/internal/ratelimit"
	"github.com/radiumhq/radium/internal/routing"
	"github.com/radiumhq/radium/internal/session"
	"github.com/radiumhq/radium/internal/tools"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// flakyProvider fails with a non-failover error (errtax.ToolTimeout) for
// its first N calls, then succeeds, exercising callWithFailover's
// same-model retry-with-backoff branch.
type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, errtax.ToolTimeout("slow upstream")
	}
	return &radiumtypes.ModelResponse{Content: "done", FinishReason: radiumtypes.FinishStop}, nil
}

func (p *flakyProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	ch := make(chan radiumtypes.StreamToken)
	close(ch)
	return ch, nil
}

func (p *flakyProvider) ModelType() provideradapter.ModelType { return provideradapter.ModelTypeMock }
func (p *flakyProvider) ModelID() string                     { return "mock" }

// scriptedProvider returns one queued response per Generate call, the same
// test-double shape used across the pack for provider doubles.
type scriptedProvider struct {
	responses []*radiumtypes.ModelResponse
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	if p.calls >= len(p.responses) {
		return &radiumtypes.ModelResponse{FinishReason: radiumtypes.FinishStop}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	ch := make(chan radiumtypes.StreamToken)
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) ModelType() provideradapter.ModelType { return provideradapter.ModelTypeMock }
func (p *scriptedProvider) ModelID() string                     { return "mock" }

func newTestExecutor(t *testing.T, provider *scriptedProvider) (*Executor, *modelcache.Cache) {
	t.Helper()
	cache, err := modelcache.New(modelcache.DefaultConfig())
	if err != nil {
		t.Fatalf("modelcache.New: %v", err)
	}
	t.Cleanup(cache.Close)

	router := routing.NewRouter(routing.Config{
		SmartModel: routing.ModelTarget{Provider: "mock", Model: "mock"},
		EcoModel:   routing.ModelTarget{Provider: "mock", Model: "mock"},
	})

	registry := tools.NewRegistry()
	registry.Register(tools.Registered{
		Descriptor: radiumtypes.ToolDescriptor{Name: "echo", Category: string(tools.CategoryOther)},
		Category:   tools.CategoryOther,
		Handler: tools.HandlerFunc(func(args radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
			return radiumtypes.ToolResult{Success: true, Content: "echoed"}, nil
		}),
	})

	return &Executor{
		Router: router,
		Cache:  cache,
		Hooks:  hooks.NewRegistry(),
		Tools:  registry,
		Gate:   tools.NewGate(),
		NewProvider: func(ctx context.Context, modelType provideradapter.ModelType, model, apiKey string) (provideradapter.Provider, error) {
			return provider, nil
		},
	}, cache
}

func TestExecuteStopsOnFinishStop(t *testing.T) {
	provider := &scriptedProvider{responses: []*radiumtypes.ModelResponse{
		{Content: "done", FinishReason: radiumtypes.FinishStop},
	}}
	exec, _ := newTestExecutor(t, provider)
	sess := session.New("sess-1", "agent-1", "")

	res, err := exec.Execute(context.Background(), DefaultConfig(), radiumtypes.AgentDefinition{ID: "agent-1", PromptTemplate: "do {user_input}"}, "the thing", "req-1", "task-1", sess)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Iterations != 1 {
		t.Fatalf("expected 1 iteration, got %d", res.Iterations)
	}
	if res.Output != "done" {
		t.Fatalf("expected output %q, got %q", "done", res.Output)
	}
}

func TestExecuteRunsToolCallLoop(t *testing.T) {
	provider := &scriptedProvider{responses: []*radiumtypes.ModelResponse{
		{ToolCalls: []radiumtypes.ToolCall{{ID: "tc1", Name: "echo"}}, FinishReason: radiumtypes.FinishToolCalls},
		{Content: "all done", FinishReason: radiumtypes.FinishStop},
	}}
	exec, _ := newTestExecutor(t, provider)
	sess := session.New("sess-2", "agent-1", "")

	res, err := exec.Execute(context.Background(), DefaultConfig(), radiumtypes.AgentDefinition{ID: "agent-1", PromptTemplate: "{user_input}"}, "task", "req-1", "task-1", sess)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Iterations != 2 {
		t.Fatalf("expected 2 iterations, got %d", res.Iterations)
	}
	if len(sess.ToolCalls) != 1 {
		t.Fatalf("expected 1 recorded tool call, got %d", len(sess.ToolCalls))
	}
}

func TestExecuteDeniesPolicyBlockedTool(t *testing.T) {
	provider := &scriptedProvider{responses: []*radiumtypes.ModelResponse{
		{ToolCalls: []radiumtypes.ToolCall{{ID: "tc1", Name: "echo"}}, FinishReason: radiumtypes.FinishToolCalls},
		{Content: "done", FinishReason: radiumtypes.FinishStop},
	}}
	exec, _ := newTestExecutor(t, provider)
	exec.Gate.AddRule(tools.Rule{Band: tools.BandSystem, ToolName: "echo", Decision: tools.Deny, Reason: "blocked for test"})
	sess := session.New("sess-3", "agent-1", "")

	_, err := exec.Execute(context.Background(), DefaultConfig(), radiumtypes.AgentDefinition{ID: "agent-1", PromptTemplate: "{user_input}"}, "task", "req-1", "task-1", sess)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sess.ToolCalls[0].Name != "echo" {
		t.Fatalf("expected tool call recorded even when denied")
	}
}

func TestExecuteHonorsMaxIterations(t *testing.T) {
	provider := &scriptedProvider{}
	// Every response has tool calls, forcing the loop to hit the cap.
	for i := 0; i < 5; i++ {
		provider.responses = append(provider.responses, &radiumtypes.ModelResponse{
			ToolCalls:    []radiumtypes.ToolCall{{ID: "tc", Name: "echo"}},
			FinishReason: radiumtypes.FinishToolCalls,
		})
	}
	exec, _ := newTestExecutor(t, provider)
	sess := session.New("sess-4", "agent-1", "")

	cfg := DefaultConfig()
	cfg.MaxIterations = 2
	_, err := exec.Execute(context.Background(), cfg, radiumtypes.AgentDefinition{ID: "agent-1", PromptTemplate: "{user_input}"}, "task", "req-1", "task-1", sess)
	if err == nil {
		t.Fatalf("expected max-iterations error")
	}
}

func TestCallWithFailoverSleepsBetweenSameModelRetries(t *testing.T) {
	provider := &flakyProvider{failures: 1}
	cache, err := modelcache.New(modelcache.DefaultConfig())
	if err != nil {
		t.Fatalf("modelcache.New: %v", err)
	}
	t.Cleanup(cache.Close)

	router := routing.NewRouter(routing.Config{
		SmartModel: routing.ModelTarget{Provider: "mock", Model: "mock"},
		EcoModel:   routing.ModelTarget{Provider: "mock", Model: "mock"},
	})

	exec := &Executor{
		Router: router,
		Cache:  cache,
		Hooks:  hooks.NewRegistry(),
		Tools:  tools.NewRegistry(),
		Gate:   tools.NewGate(),
		NewProvider: func(ctx context.Context, modelType provideradapter.ModelType, model, apiKey string) (provideradapter.Provider, error) {
			return provider, nil
		},
	}
	sess := session.New("sess-5", "agent-1", "")

	cfg := DefaultConfig()
	cfg.MaxRetriesPerModel = 2
	cfg.Backoff = backoff.BackoffPolicy{InitialMs: 5, MaxMs: 20, Factor: 1, Jitter: 0}

	start := time.Now()
	res, err := exec.Execute(context.Background(), cfg, radiumtypes.AgentDefinition{ID: "agent-1", PromptTemplate: "{user_input}"}, "task", "req-1", "task-1", sess)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 calls to the same model (1 retry), got %d", provider.calls)
	}
	if res.Output != "done" {
		t.Fatalf("expected output %q, got %q", "done", res.Output)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Fatalf("expected callWithFailover to sleep between retries, elapsed only %v", elapsed)
	}
}

func TestExecutorRateLimiterDoesNotBlockPermissiveLimit(t *testing.T) {
	provider := &scriptedProvider{responses: []*radiumtypes.ModelResponse{
		{Content: "done", FinishReason: radiumtypes.FinishStop},
	}}
	exec, _ := newTestExecutor(t, provider)
	exec.RateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: 1000, BurstSize: 5, Enabled: true})
	sess := session.New("sess-6", "agent-1", "")

	res, err := exec.Execute(context.Background(), DefaultConfig(), radiumtypes.AgentDefinition{ID: "agent-1", PromptTemplate: "{user_input}"}, "task", "req-1", "task-1", sess)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Output != "done" {
		t.Fatalf("expected output %q, got %q", "done", res.Output)
	}
}
