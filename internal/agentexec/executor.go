// Package agentexec implements §4.H: the Agent Executor — the single
// "run one task" step that renders a prompt, calls a model through the
// Router/Cache/Provider Adapter trio, loops over tool calls behind the
// Policy Gate and Sandbox, runs the hook chain at each phase, and emits
// telemetry and memory on completion.
//
// Grounded on the teacher's internal/agent/{runtime.go,loop.go,
// executor.go,failover.go,tool_exec.go}: the render-call-loop-record
// shape, the fallback-on-transient-failure retry loop, and the
// tool-call-then-append-message iteration are all carried over from
// that package's structure, generalized from Nexus's fixed chat-turn
// loop to this system's task-oriented, DAG-scheduled execution step.
package agentexec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/radiumhq/radium/internal/backoff"
	"github.com/radiumhq/radium/internal/errtax"
	"github.com/radiumhq/radium/internal/hooks"
	"github.com/radiumhq/radium/internal/modelcache"
	"github.com/radiumhq/radium/internal/provideradapter"
	"github.com/radiumhq/radium/internal/ratelimit"
	"github.com/radiumhq/radium/internal/routing"
	"github.com/radiumhq/radium/internal/sandbox"
	"github.com/radiumhq/radium/internal/session"
	"github.com/radiumhq/radium/internal/telemetry"
	"github.com/radiumhq/radium/internal/tools"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// DefaultMaxIterations bounds the tool-call loop per task, per spec §4.H
// step 6 ("a maximum iteration count is reached; configurable; default
// 32").
const DefaultMaxIterations = 32

// DefaultMaxRetriesPerModel is how many attempts one model gets before
// the router advances the fallback chain, per spec §4.H step 4.
const DefaultMaxRetriesPerModel = 1

// ProviderFactory constructs a Provider for one (modelType, model,
// apiKey) tuple, passed to modelcache.Cache.GetOrCreate on a cache miss.
type ProviderFactory func(ctx context.Context, modelType provideradapter.ModelType, model, apiKey string) (provideradapter.Provider, error)

// Config configures one Executor.
type Config struct {
	MaxIterations       int
	MaxRetriesPerModel  int
	Tier                routing.Tier
	APIKey              string

	// Backoff governs the sleep between same-model retry attempts in
	// callWithFailover. Zero value falls back to backoff.DefaultPolicy().
	Backoff backoff.BackoffPolicy
}

// DefaultConfig returns spec §4.H's documented defaults.
func DefaultConfig() Config {
	return Config{MaxIterations: DefaultMaxIterations, MaxRetriesPerModel: DefaultMaxRetriesPerModel, Tier: routing.TierAuto, Backoff: backoff.DefaultPolicy()}
}

// Executor runs one agent's task step, per spec §4.H.
type Executor struct {
	Router   *routing.Router
	Cache    *modelcache.Cache
	Hooks    *hooks.Registry
	Tools    *tools.Registry
	Gate     *tools.Gate
	Sandbox  sandbox.Sandbox
	Memory   *session.Memory
	Telemetry *telemetry.Store
	Rates    telemetry.RateTable

	// RateLimiter throttles outbound requests per provider, keyed by
	// target.Provider, ahead of the provider's own quota wall. Nil
	// disables throttling entirely.
	RateLimiter *ratelimit.Limiter

	NewProvider ProviderFactory
}

// Result is the outcome of one Execute call.
type Result struct {
	Response *radiumtypes.ModelResponse
	Iterations int
	Output     string // final textual output stored to Memory
}

// Execute runs agentDef against taskInput within sess, per the nine-step
// sequence in spec §4.H.
func (e *Executor) Execute(ctx context.Context, cfg Config, agentDef radiumtypes.AgentDefinition, taskInput, requirementID, taskID string, sess *session.Session) (*Result, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxRetriesPerModel <= 0 {
		cfg.MaxRetriesPerModel = DefaultMaxRetriesPerModel
	}
	if cfg.Backoff == (backoff.BackoffPolicy{}) {
		cfg.Backoff = backoff.DefaultPolicy()
	}

	// 1. Render the prompt template.
	prompt := renderPrompt(agentDef.PromptTemplate, map[string]string{
		"user_input": taskInput,
	})

	// 2. Build the ModelRequest with the agent's tool subset.
	req := &radiumtypes.ModelRequest{
		Messages: append(append([]radiumtypes.Message(nil), sess.Messages...), radiumtypes.TextMessage(radiumtypes.RoleUser, prompt)),
		Tools:    e.toolSubset(agentDef.ToolAllowList),
	}
	sess.AppendMessage(radiumtypes.TextMessage(radiumtypes.RoleUser, prompt))

	// 3. BeforeModel hooks.
	data := &hooks.Data{Phase: hooks.PhaseBeforeModel, RequirementID: requirementID, TaskID: taskID, AgentID: agentDef.ID, Request: req}
	data, _ = e.runHooks(ctx, data)
	if rewritten, ok := data.Request.(*radiumtypes.ModelRequest); ok && rewritten != nil {
		req = rewritten
	}

	var finalResp *radiumtypes.ModelResponse
	var usage telemetry.Usage
	providerName, modelName := agentDef.EngineID, agentDef.DefaultModel

	iterations := 0
	for {
		iterations++
		if iterations > cfg.MaxIterations {
			return nil, errtax.New(errtax.KindModelResponseError, fmt.Sprintf("exceeded max iterations (%d)", cfg.MaxIterations))
		}

		resp, target, err := e.callWithFailover(ctx, cfg, req)
		if err != nil {
			return nil, err
		}
		providerName, modelName = target.Provider, target.Model
		finalResp = resp
		usage.InputTokens += int64(resp.Usage.InputTokens)
		usage.OutputTokens += int64(resp.Usage.OutputTokens)
		usage.CachedTokens += int64(resp.Usage.CachedTokens)

		if len(resp.ToolCalls) == 0 || resp.FinishReason == radiumtypes.FinishStop {
			break
		}

		for _, call := range resp.ToolCalls {
			result, handled := e.runToolCall(ctx, requirementID, taskID, agentDef, call)
			sess.AppendToolCall(call)
			req.Messages = append(req.Messages, radiumtypes.Message{
				Role:        radiumtypes.RoleTool,
				ToolResults: []radiumtypes.ToolResult{result},
			})
			sess.AppendMessage(req.Messages[len(req.Messages)-1])
			_ = handled
		}

		select {
		case <-ctx.Done():
			return nil, errtax.Wrap(errtax.KindCancelled, ctx.Err(), "execution cancelled mid tool loop")
		default:
		}
	}

	// 7. AfterModel hooks.
	data = &hooks.Data{Phase: hooks.PhaseAfterModel, RequirementID: requirementID, TaskID: taskID, AgentID: agentDef.ID, Response: finalResp}
	e.runHooks(ctx, data)

	// 8. Emit telemetry.
	if e.Telemetry != nil {
		rec := &telemetry.Record{
			AgentID:     agentDef.ID,
			Timestamp:   time.Now(),
			Usage:       usage,
			Model:       modelName,
			Provider:    providerName,
			EngineID:    agentDef.EngineID,
			Attribution: telemetry.Attribution{APIKeyID: telemetry.DeriveAPIKeyID(cfg.APIKey)},
		}
		_ = e.Telemetry.InsertTelemetry(ctx, rec, e.Rates)
	}

	// 9. Store the final textual output to Memory.
	output := ""
	if finalResp != nil {
		output = finalResp.Content
	}
	if e.Memory != nil {
		_ = e.Memory.Store(agentDef.ID, output)
	}

	return &Result{Response: finalResp, Iterations: iterations, Output: radiumtypes.Truncate(output)}, nil
}

// callWithFailover calls the provider for req, advancing the router's
// fallback chain on transient failure up to chain.length *
// MaxRetriesPerModel total attempts, per spec §4.H step 4.
func (e *Executor) callWithFailover(ctx context.Context, cfg Config, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, routing.ModelTarget, error) {
	target, _ := e.Router.Select(ctx, req, cfg.Tier)

	attempts := 0
	maxAttempts := cfg.MaxRetriesPerModel
	for {
		attempts++
		resp, err := e.callOnce(ctx, target, req)
		if err == nil {
			return resp, target, nil
		}

		taxErr, _ := errtax.Of(err)
		if taxErr == nil || !taxErr.Kind.ShouldFailover() {
			if attempts < maxAttempts {
				if sleepErr := backoff.SleepWithBackoff(ctx, cfg.Backoff, attempts); sleepErr != nil {
					return nil, target, sleepErr
				}
				continue
			}
			return nil, target, err
		}

		next, ferr := e.Router.NextFallback(target.Model, string(taxErrKind(taxErr)))
		if ferr != nil {
			return nil, target, ferr
		}
		if next == nil {
			return nil, target, err
		}
		target = *next
		attempts = 0
	}
}

func taxErrKind(e *errtax.Error) errtax.Kind {
	if e == nil {
		return errtax.KindRequestError
	}
	return e.Kind
}

func (e *Executor) callOnce(ctx context.Context, target routing.ModelTarget, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	if e.RateLimiter != nil {
		if err := e.waitForRateLimit(ctx, target.Provider); err != nil {
			return nil, err
		}
	}

	modelType := routing.ClassifyModelType(target.Provider)
	key := modelcache.NewKey(modelType, target.Model, "")
	provider, err := e.Cache.GetOrCreate(ctx, key, func(ctx context.Context) (provideradapter.Provider, error) {
		return e.NewProvider(ctx, modelType, target.Model, "")
	})
	if err != nil {
		return nil, err
	}
	return provider.Generate(ctx, req)
}

// waitForRateLimit blocks until e.RateLimiter admits a request for
// provider, or ctx is cancelled. This throttles calls ahead of a
// provider's own quota wall rather than reacting to it after the fact.
func (e *Executor) waitForRateLimit(ctx context.Context, provider string) error {
	for !e.RateLimiter.Allow(provider) {
		wait := e.RateLimiter.WaitTime(provider)
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errtax.Wrap(errtax.KindCancelled, ctx.Err(), "execution cancelled while rate-limited")
		case <-timer.C:
		}
	}
	return nil
}

// runToolCall runs the ToolSelection/BeforeTool/AfterTool hook phases and
// executes the handler via the policy gate and sandbox, per spec §4.H
// step 5.
func (e *Executor) runToolCall(ctx context.Context, requirementID, taskID string, agentDef radiumtypes.AgentDefinition, call radiumtypes.ToolCall) (radiumtypes.ToolResult, bool) {
	// 5.a ToolSelection hooks may veto or rewrite. A hook vetoes by
	// setting Extra["veto"] = true before returning Stop(), per the
	// convention documented on hooks.Data.Extra.
	data := &hooks.Data{Phase: hooks.PhaseToolSelection, RequirementID: requirementID, TaskID: taskID, AgentID: agentDef.ID, ToolCall: &call, Extra: map[string]any{}}
	data, _ = e.runHooks(ctx, data)
	if data.Extra != nil && data.Extra["veto"] == true {
		return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: "tool call vetoed by ToolSelection hook"}, false
	}

	registered, ok := e.Tools.Find(call.Name)
	if !ok {
		return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: "unknown tool: " + call.Name}, false
	}

	// 5.b BeforeTool hooks, then Policy Gate.
	data = &hooks.Data{Phase: hooks.PhaseBeforeTool, RequirementID: requirementID, TaskID: taskID, AgentID: agentDef.ID, ToolCall: &call}
	e.runHooks(ctx, data)

	if e.Gate != nil {
		res := e.Gate.Evaluate(call.Name, registered.Category)
		if res.Decision == tools.Deny {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: "denied by policy"}, false
		}
	}

	start := time.Now()
	result, err := registered.Handler.Execute(call)
	result.Duration = time.Since(start).Milliseconds()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
	}
	result.ID = call.ID

	// 5.d AfterTool hooks.
	data = &hooks.Data{Phase: hooks.PhaseAfterTool, RequirementID: requirementID, TaskID: taskID, AgentID: agentDef.ID, ToolCall: &call, ToolResult: &result}
	e.runHooks(ctx, data)

	return result, true
}

func (e *Executor) runHooks(ctx context.Context, data *hooks.Data) (*hooks.Data, []error) {
	if e.Hooks == nil {
		return data, nil
	}
	return e.Hooks.Run(ctx, data)
}

func (e *Executor) toolSubset(allow []string) []radiumtypes.ToolDescriptor {
	if e.Tools == nil {
		return nil
	}
	if len(allow) == 0 {
		return e.Tools.Descriptors()
	}
	allowed := make(map[string]bool, len(allow))
	for _, name := range allow {
		allowed[name] = true
	}
	var out []radiumtypes.ToolDescriptor
	for _, d := range e.Tools.Descriptors() {
		if allowed[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

func renderPrompt(template string, vars map[string]string) string {
	out := template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
