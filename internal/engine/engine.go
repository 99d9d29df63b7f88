// Package engine wires the components described in spec §2's control-flow
// paragraph — Router, Model Cache, Provider Adapter, Tool Registry/Policy
// Gate, Sandbox, Hook Framework, Session/Memory, Agent Executor, Planner,
// Scheduler, State Persistence, Telemetry, Collaboration, and Privacy —
// into one process-wide handle that cmd/radiumd's verbs operate against.
//
// Grounded on the teacher's cmd/nexus main.go/config.go wiring style (one
// function that builds every subsystem from a loaded Config and returns a
// single app handle), generalized from Nexus's channel-adapter wiring to
// this engine's planner/scheduler/executor wiring. Mutable shared state —
// the Model Cache, the hook registry, the policy gate — is built once here
// and passed explicitly into every Executor, never reached through an
// ambient global, per spec §9's "no ambient globals" design note.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/radiumhq/radium/internal/agentexec"
	"github.com/radiumhq/radium/internal/collab"
	"github.com/radiumhq/radium/internal/config"
	"github.com/radiumhq/radium/internal/hooks"
	"github.com/radiumhq/radium/internal/modelcache"
	"github.com/radiumhq/radium/internal/observability"
	"github.com/radiumhq/radium/internal/planner"
	"github.com/radiumhq/radium/internal/privacy"
	"github.com/radiumhq/radium/internal/provideradapter"
	"github.com/radiumhq/radium/internal/ratelimit"
	"github.com/radiumhq/radium/internal/routing"
	"github.com/radiumhq/radium/internal/sandbox"
	"github.com/radiumhq/radium/internal/scheduler"
	"github.com/radiumhq/radium/internal/session"
	"github.com/radiumhq/radium/internal/statestore"
	"github.com/radiumhq/radium/internal/telemetry"
	"github.com/radiumhq/radium/internal/tools"
)

// Engine is the assembled process-wide handle. Its fields are the shared,
// concurrency-safe resources spec §5 names: Model Cache, Session store,
// Policy/Hook registries, Telemetry DB, Lock manager.
type Engine struct {
	Config *config.Config

	Logger  *observability.Logger
	Metrics *observability.Metrics

	Router      *routing.Router
	Cache       *modelcache.Cache
	Hooks       *hooks.Registry
	ToolReg     *tools.Registry
	Gate        *tools.Gate
	Sandbox     sandbox.Sandbox
	SandboxKind sandbox.Kind
	Privacy     *privacy.Filter

	Sessions *session.Store
	Bus      *collab.Bus
	Locks    *collab.LockManager
	Delegate *collab.DelegationManager
	Progress *collab.ProgressTracker

	Telemetry *telemetry.Store
	Rates     telemetry.RateTable

	// RateLimiter throttles outbound provider requests per
	// cfg.Routing.RateLimit, keyed by provider name. Nil when disabled.
	RateLimiter *ratelimit.Limiter

	State statestore.Store

	WorkspaceRoot string
	InternalsRoot string
}

// New constructs every subsystem from cfg and the workspace root resolved
// by the caller (spec §6's `.radium/` layout lives under workspaceRoot).
func New(ctx context.Context, cfg *config.Config, workspaceRoot string) (*Engine, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:     observability.LogLevelFromString(cfg.Logging.Level),
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	metrics := observability.NewMetrics()

	internalsRoot := filepath.Join(workspaceRoot, ".radium", "_internals")
	if err := os.MkdirAll(internalsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create internals dir: %w", err)
	}

	cache, err := modelcache.New(modelcache.Config{
		Enabled:               cfg.Cache.Enabled,
		InactivityTimeoutSecs: cfg.Cache.InactivityTimeoutSecs,
		MaxCacheSize:          cfg.Cache.MaxCacheSize,
		CleanupIntervalSecs:   cfg.Cache.CleanupIntervalSecs,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: model cache: %w", err)
	}

	router := routing.NewRouter(routing.Config{
		SmartModel: routing.ModelTarget{Provider: cfg.Routing.SmartProvider, Model: cfg.Routing.SmartModel},
		EcoModel:   routing.ModelTarget{Provider: cfg.Routing.EcoProvider, Model: cfg.Routing.EcoModel},
		Fallback:   buildFallbackChain(cfg),
	})

	var limiter *ratelimit.Limiter
	if cfg.Routing.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: cfg.Routing.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.Routing.RateLimit.BurstSize,
			Enabled:           true,
		})
	}

	hookRegistry := hooks.NewRegistry()
	if err := hooks.BuildFromDeclarations(hookRegistry, cfg.Hooks, slog.Default()); err != nil {
		return nil, fmt.Errorf("engine: hooks: %w", err)
	}

	gate := tools.NewGate()
	for _, r := range cfg.Tools.Rules {
		band, ok := bandFromString(r.Band)
		if !ok {
			return nil, fmt.Errorf("engine: unknown policy band %q", r.Band)
		}
		decision, ok := decisionFromString(r.Decision)
		if !ok {
			return nil, fmt.Errorf("engine: unknown policy decision %q", r.Decision)
		}
		gate.AddRule(tools.Rule{
			Band:     band,
			Decision: decision,
			Tool:     r.Tool,
			Category: tools.Category(r.Category),
			Reason:   r.Reason,
		})
	}

	box, kind, warn := buildSandbox(cfg.Sandbox)
	if warn != nil {
		logger.Warn(ctx, "sandbox backend unavailable, falling back to none", "error", warn.Error())
	}
	if err := box.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("engine: sandbox initialize: %w", err)
	}

	bus := collab.NewBus()
	locks := collab.NewLockManager()
	delegate := collab.NewDelegationManager(cfg.Collaboration.DelegationDepthMax)
	progress := collab.NewProgressTracker(bus)

	toolReg := tools.NewRegistry()
	tools.RegisterBuiltinTools(toolReg, box)
	tools.RegisterCollabTools(toolReg, bus, locks, delegate, progress)

	privacyStyle := privacy.StyleFull
	switch cfg.Privacy.RedactionStyle {
	case "partial":
		privacyStyle = privacy.StylePartial
	case "hash":
		privacyStyle = privacy.StyleHash
	}
	filter := privacy.New(privacyStyle)

	store, err := statestore.NewFileStore(filepath.Join(internalsRoot, "executions"))
	if err != nil {
		return nil, fmt.Errorf("engine: state store: %w", err)
	}

	dbPath := cfg.Telemetry.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(workspaceRoot, dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("engine: telemetry dir: %w", err)
	}
	telemetryStore, err := telemetry.Open(dbPath, telemetry.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("engine: telemetry store: %w", err)
	}

	return &Engine{
		Config:        cfg,
		Logger:        logger,
		Metrics:       metrics,
		Router:        router,
		Cache:         cache,
		Hooks:         hookRegistry,
		ToolReg:       toolReg,
		Gate:          gate,
		Sandbox:       box,
		SandboxKind:   kind,
		Privacy:       filter,
		Sessions:      session.NewStore(),
		Bus:           bus,
		Locks:         locks,
		Delegate:      delegate,
		Progress:      progress,
		Telemetry:     telemetryStore,
		Rates:         telemetry.DefaultRateTable(),
		RateLimiter:   limiter,
		State:         store,
		WorkspaceRoot: workspaceRoot,
		InternalsRoot: internalsRoot,
	}, nil
}

// Close releases the engine's long-lived resources.
func (e *Engine) Close() {
	e.Cache.Close()
	if e.Telemetry != nil {
		e.Telemetry.Close()
	}
}

// NewProvider is the agentexec.ProviderFactory this engine hands to every
// Executor: it resolves credentials from config and asks the Model Cache
// for the (provider, model, key) triple, constructing via
// provideradapter.New only on a cache miss.
func (e *Engine) NewProvider(ctx context.Context, modelType provideradapter.ModelType, model, apiKey string) (provideradapter.Provider, error) {
	key := modelcache.NewKey(modelType, model, apiKey)
	return e.Cache.GetOrCreate(ctx, key, func(ctx context.Context) (provideradapter.Provider, error) {
		creds := provideradapter.Credentials{APIKey: apiKey}
		if pc, ok := e.Config.Providers[string(modelType)]; ok {
			creds.BaseURL = pc.BaseURL
			creds.AWSRegion = pc.Region
		}
		if modelType == provideradapter.ModelTypeLocal {
			creds.CheckpointPath = os.Getenv("RADIUM_BURN_BIGRAM_CHECKPOINT")
		}
		return provideradapter.New(ctx, modelType, model, creds)
	})
}

// APIKeyFor returns the configured API key for a provider, preferring the
// value layered in by config.Load's environment overrides.
func (e *Engine) APIKeyFor(provider string) string {
	if pc, ok := e.Config.Providers[provider]; ok {
		return pc.APIKey
	}
	return ""
}

// ExecutorConfig returns the agentexec.Config this engine applies by
// default, honoring any manual tier override.
func (e *Engine) ExecutorConfig(tier routing.Tier) agentexec.Config {
	cfg := agentexec.DefaultConfig()
	cfg.MaxRetriesPerModel = e.Config.Routing.MaxRetriesPerModel
	if tier != "" {
		cfg.Tier = tier
	}
	return cfg
}

// NewExecutor builds an agentexec.Executor sharing this engine's singleton
// resources, pointed at a memory store scoped to one requirement.
func (e *Engine) NewExecutor(mem *session.Memory) *agentexec.Executor {
	return &agentexec.Executor{
		Router:      e.Router,
		Cache:       e.Cache,
		Hooks:       e.Hooks,
		Tools:       e.ToolReg,
		Gate:        e.Gate,
		Sandbox:     e.Sandbox,
		Memory:      mem,
		Telemetry:   e.Telemetry,
		Rates:       e.Rates,
		RateLimiter: e.RateLimiter,
		NewProvider: e.NewProvider,
	}
}

// NewPlanner builds a planner.Planner sharing this engine's router/cache.
func (e *Engine) NewPlanner() (*planner.Planner, error) {
	return planner.New(e.Router, e.Cache, e.NewProvider)
}

// SchedulerConfig returns the scheduler.Config this engine applies by
// default, honoring the configured parallelism cap (0 meaning
// runtime.NumCPU(), per spec §4.J).
func (e *Engine) SchedulerConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	if e.Config.Scheduler.Parallelism > 0 {
		cfg.Parallelism = e.Config.Scheduler.Parallelism
	} else {
		cfg.Parallelism = runtime.NumCPU()
	}
	if e.Config.Scheduler.MaxRetriesPerTask > 0 {
		cfg.MaxRetriesPerTask = e.Config.Scheduler.MaxRetriesPerTask
	}
	return cfg
}

// MemoryDirFor returns the on-disk memory directory for a requirement, per
// the persisted layout in spec §6 (`.radium/plan/<REQ-ID>/memory/`).
func (e *Engine) MemoryDirFor(requirementID string) string {
	return filepath.Join(e.WorkspaceRoot, ".radium", "plan", requirementID, "memory")
}

func buildFallbackChain(cfg *config.Config) *routing.FallbackChain {
	var models []routing.ModelTarget
	for _, entry := range cfg.Routing.FallbackChain {
		provider, model := splitProviderModel(entry)
		if provider == "" {
			continue
		}
		models = append(models, routing.ModelTarget{Provider: provider, Model: model})
	}
	if len(models) == 0 {
		models = []routing.ModelTarget{
			{Provider: cfg.Routing.SmartProvider, Model: cfg.Routing.SmartModel},
			{Provider: cfg.Routing.EcoProvider, Model: cfg.Routing.EcoModel},
		}
	}
	retries := cfg.Routing.MaxRetriesPerModel
	if retries <= 0 {
		retries = 1
	}
	return routing.NewFallbackChainWithRetries(models, retries)
}

func splitProviderModel(entry string) (provider, model string) {
	for i := 0; i < len(entry); i++ {
		if entry[i] == '/' {
			return entry[:i], entry[i+1:]
		}
	}
	return entry, ""
}

func bandFromString(s string) (tools.Band, bool) {
	switch s {
	case "system":
		return tools.BandSystem, true
	case "org":
		return tools.BandOrg, true
	case "user":
		return tools.BandUser, true
	case "session":
		return tools.BandSession, true
	default:
		return 0, false
	}
}

func decisionFromString(s string) (tools.Decision, bool) {
	switch s {
	case "allow":
		return tools.Allow, true
	case "deny":
		return tools.Deny, true
	case "ask":
		return tools.Ask, true
	default:
		return 0, false
	}
}

func buildSandbox(cfg config.SandboxConfig) (sandbox.Sandbox, sandbox.Kind, error) {
	kind := sandboxKindFromString(cfg.Kind)
	policy := sandbox.DefaultPolicy()
	policy.Kind = kind
	policy.NetworkEnabled = cfg.AllowNetwork
	if cfg.TimeoutSecs > 0 {
		policy.DefaultTimeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}

	box, taxErr := sandbox.NewWithFallback(policy)
	var warn error
	if taxErr != nil {
		warn = taxErr
	}
	return box, box.Kind(), warn
}

func sandboxKindFromString(s string) sandbox.Kind {
	switch s {
	case "docker":
		return sandbox.KindDocker
	case "process":
		return sandbox.KindProcess
	case "namespace", "firecracker":
		return sandbox.KindNamespace
	default:
		return sandbox.KindNone
	}
}

