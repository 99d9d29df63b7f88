package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// knownProviderEnvKeys maps provider IDs to the environment variable that
// carries their API key, following the convention used across the
// provider SDKs in the dependency pack (ANTHROPIC_API_KEY,
// OPENAI_API_KEY, etc).
var knownProviderEnvKeys = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"google":    "GOOGLE_API_KEY",
}

// Load reads defaults, then path (if it exists), then environment
// overrides, and returns the merged Config. A missing file at path is
// not an error — the loader falls back to defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides layers RADIUM_* environment variables and
// provider-specific *_API_KEY variables on top of the file-decoded
// config, per §2's "environment variable overrides" requirement.
func applyEnvOverrides(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for provider, envKey := range knownProviderEnvKeys {
		key := os.Getenv(envKey)
		if key == "" {
			continue
		}
		pc := cfg.Providers[provider]
		pc.APIKey = key
		cfg.Providers[provider] = pc
	}

	if v := os.Getenv("RADIUM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RADIUM_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RADIUM_SANDBOX_KIND"); v != "" {
		cfg.Sandbox.Kind = v
	}
	if v := os.Getenv("RADIUM_SCHEDULER_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.Parallelism = n
		}
	}
	if v := os.Getenv("RADIUM_SMART_MODEL"); v != "" {
		parts := strings.SplitN(v, "/", 2)
		if len(parts) == 2 {
			cfg.Routing.SmartProvider, cfg.Routing.SmartModel = parts[0], parts[1]
		}
	}
	if v := os.Getenv("RADIUM_ECO_MODEL"); v != "" {
		parts := strings.SplitN(v, "/", 2)
		if len(parts) == 2 {
			cfg.Routing.EcoProvider, cfg.Routing.EcoModel = parts[0], parts[1]
		}
	}
	if v := os.Getenv("RADIUM_TELEMETRY_DB"); v != "" {
		cfg.Telemetry.DBPath = v
	}
}
