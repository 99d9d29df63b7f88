// Package config implements §2/§4.K's layered configuration loader:
// built-in defaults, overridden by a TOML file (default
// .radium/config.toml), overridden by RADIUM_* and provider *_API_KEY
// environment variables.
//
// Grounded on the teacher's internal/config package: the section-struct
// layout (one file per concern, a root Config aggregating them) and the
// version-gated upgrade story (version.go, kept verbatim) are carried
// over directly. The teacher decodes YAML/JSON5; this package decodes
// TOML via github.com/BurntSushi/toml per the project's configuration
// file format, since the teacher's own dependency pack already carries
// BurntSushi/toml for agent-definition files.
package config

import (
	"time"

	"github.com/radiumhq/radium/internal/hooks"
)

// Config is the root configuration structure for radiumd.
type Config struct {
	Version int `toml:"version"`

	Providers     map[string]ProviderConfig `toml:"providers"`
	Routing       RoutingConfig             `toml:"routing"`
	Cache         CacheConfig               `toml:"cache"`
	Sandbox       SandboxConfig             `toml:"sandbox"`
	Tools         ToolsConfig               `toml:"tools"`
	Session       SessionConfig             `toml:"session"`
	Telemetry     TelemetryConfig           `toml:"telemetry"`
	Scheduler     SchedulerConfig           `toml:"scheduler"`
	Planner       PlannerConfig             `toml:"planner"`
	Logging       LoggingConfig             `toml:"logging"`
	Hooks         []hooks.Declaration       `toml:"hooks"`
	Collaboration CollaborationConfig       `toml:"collaboration"`
	Privacy       PrivacyConfig             `toml:"privacy"`
}

// CollaborationConfig configures the delegation manager and lock manager
// shared by concurrently running agents, per spec §6's `collaboration`
// block.
type CollaborationConfig struct {
	DelegationDepthMax int `toml:"delegation_depth_max"`
	LockTimeoutSecs    int `toml:"lock_timeout_secs"`
}

// PrivacyConfig configures the redaction filter applied to context
// assembly, per spec §6's `security.privacy` block.
type PrivacyConfig struct {
	Enable         bool   `toml:"enable"`
	RedactionStyle string `toml:"redaction_style"` // "full", "partial", "hash"
}

// ProviderConfig configures one model provider (anthropic, openai,
// bedrock, google, mock).
type ProviderConfig struct {
	APIKey       string `toml:"api_key"`
	DefaultModel string `toml:"default_model"`
	BaseURL      string `toml:"base_url"`
	Region       string `toml:"region"` // bedrock
}

// RoutingConfig configures the Smart/Eco routing tiers and fallback
// chain, mirroring the teacher's LLMRoutingConfig shape.
type RoutingConfig struct {
	SmartProvider      string   `toml:"smart_provider"`
	SmartModel         string   `toml:"smart_model"`
	EcoProvider        string   `toml:"eco_provider"`
	EcoModel           string   `toml:"eco_model"`
	FallbackChain      []string `toml:"fallback_chain"`
	MaxRetriesPerModel int      `toml:"max_retries_per_model"`

	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig throttles outbound model requests per provider ahead
// of the provider's own quota wall, so the executor backs off before a
// QuotaExceeded error forces a fallback. Keyed per-provider by
// ratelimit.Limiter at the engine level.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`
}

// CacheConfig configures the model-client cache.
type CacheConfig struct {
	Enabled               bool `toml:"enabled"`
	InactivityTimeoutSecs int  `toml:"inactivity_timeout_secs"`
	MaxCacheSize          int  `toml:"max_cache_size"`
	CleanupIntervalSecs   int  `toml:"cleanup_interval_secs"`
}

// SandboxConfig selects and configures the default execution sandbox.
type SandboxConfig struct {
	Kind               string   `toml:"kind"` // "firecracker", "docker", "direct"
	AllowNetwork       bool     `toml:"allow_network"`
	WorkspaceAllowlist []string `toml:"workspace_allowlist"`
	TimeoutSecs        int      `toml:"timeout_secs"`
}

// ToolsConfig configures the tool registry's default policy.
type ToolsConfig struct {
	DefaultDecision string           `toml:"default_decision"` // "allow", "deny", "ask"
	Rules           []ToolPolicyRule `toml:"rules"`
}

// ToolPolicyRule mirrors the teacher's config_tools.go ToolPolicyRule,
// generalized from per-channel scoping to the Band precedence used by
// the tool policy gate.
type ToolPolicyRule struct {
	Band     string `toml:"band"` // "system", "org", "user", "session"
	Tool     string `toml:"tool"`
	Category string `toml:"category"`
	Decision string `toml:"decision"` // "allow", "deny", "ask"
	Reason   string `toml:"reason"`
}

// SessionConfig configures session workspace defaults.
type SessionConfig struct {
	WorkspaceRoot string `toml:"workspace_root"`
	MemoryRoot    string `toml:"memory_root"`
}

// TelemetryConfig configures cost/usage persistence.
type TelemetryConfig struct {
	DBPath         string `toml:"db_path"`
	RateTableFile  string `toml:"rate_table_file"`
	ExportDefault  string `toml:"export_format"` // "csv", "json", "markdown"
}

// SchedulerConfig configures the parallel task scheduler.
type SchedulerConfig struct {
	Parallelism       int `toml:"parallelism"`
	MaxRetriesPerTask int `toml:"max_retries_per_task"`
}

// PlannerConfig configures requirement decomposition.
type PlannerConfig struct {
	PromptTemplateFile string        `toml:"prompt_template_file"`
	Timeout            time.Duration `toml:"timeout"`
}

// LoggingConfig configures structured logging, per the teacher's
// observability.LogConfig.
type LoggingConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"` // "json" or "text"
	AddSource bool   `toml:"add_source"`
}

// Defaults returns a Config populated with the built-in defaults that
// the loader applies before reading any file.
func Defaults() Config {
	return Config{
		Version: CurrentVersion,
		Routing: RoutingConfig{
			SmartProvider:      "anthropic",
			SmartModel:         "claude-sonnet-4-5",
			EcoProvider:        "anthropic",
			EcoModel:           "claude-haiku-4-5",
			MaxRetriesPerModel: 1,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 10,
				BurstSize:         20,
			},
		},
		Cache: CacheConfig{
			Enabled:               true,
			InactivityTimeoutSecs: 900,
			MaxCacheSize:          64,
			CleanupIntervalSecs:   60,
		},
		Sandbox: SandboxConfig{
			Kind:        "direct",
			TimeoutSecs: 120,
		},
		Tools: ToolsConfig{
			DefaultDecision: "ask",
		},
		Session: SessionConfig{
			WorkspaceRoot: ".radium/workspace",
			MemoryRoot:    ".radium/memory",
		},
		Telemetry: TelemetryConfig{
			DBPath:        ".radium/telemetry.db",
			ExportDefault: "json",
		},
		Scheduler: SchedulerConfig{
			Parallelism:       0, // 0 means runtime.NumCPU()
			MaxRetriesPerTask: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Collaboration: CollaborationConfig{
			DelegationDepthMax: 4,
			LockTimeoutSecs:    30,
		},
		Privacy: PrivacyConfig{
			Enable:         false,
			RedactionStyle: "partial",
		},
	}
}
