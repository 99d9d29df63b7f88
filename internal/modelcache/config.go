package modelcache

import (
	"errors"
	"time"
)

// Config configures the model cache (§4.B). Field names and defaults mirror
// the CacheConfig validated on process startup.
type Config struct {
	Enabled               bool `toml:"enabled"`
	InactivityTimeoutSecs int  `toml:"inactivity_timeout_secs"`
	MaxCacheSize          int  `toml:"max_cache_size"`
	CleanupIntervalSecs   int  `toml:"cleanup_interval_secs"`
}

// DefaultConfig returns the cache's documented defaults: 30 minute
// inactivity timeout, 10 entries, swept every 5 minutes.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		InactivityTimeoutSecs: 1800,
		MaxCacheSize:          10,
		CleanupIntervalSecs:   300,
	}
}

var (
	ErrInvalidInactivityTimeout = errors.New("modelcache: inactivity_timeout_secs must be greater than 0")
	ErrInvalidMaxCacheSize      = errors.New("modelcache: max_cache_size must be greater than 0")
	ErrInvalidCleanupInterval   = errors.New("modelcache: cleanup_interval_secs must be greater than 0")
)

// Validate rejects any zero-valued interval or size field.
func (c Config) Validate() error {
	if c.InactivityTimeoutSecs <= 0 {
		return ErrInvalidInactivityTimeout
	}
	if c.MaxCacheSize <= 0 {
		return ErrInvalidMaxCacheSize
	}
	if c.CleanupIntervalSecs <= 0 {
		return ErrInvalidCleanupInterval
	}
	return nil
}

func (c Config) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutSecs) * time.Second
}

func (c Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSecs) * time.Second
}
