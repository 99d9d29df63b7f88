// Package modelcache implements §4.B: a size- and inactivity-bounded cache
// of constructed Provider instances, keyed by provider family, model name,
// and API-key hash, with a background sweeper for eviction.
package modelcache

import (
	"context"
	"sync"
	"time"

	"github.com/radiumhq/radium/internal/provideradapter"
)

// entry wraps a cached Provider with access bookkeeping, mirroring the
// original implementation's touch-on-access model.
type entry struct {
	provider     provideradapter.Provider
	lastAccessed time.Time
	createdAt    time.Time
	accessCount  uint64
}

func (e *entry) touch(now time.Time) {
	e.lastAccessed = now
	e.accessCount++
}

// Stats reports cumulative cache behavior for telemetry/diagnostics.
type Stats struct {
	TotalHits      uint64
	TotalMisses    uint64
	TotalEvictions uint64
	CacheSize      int
}

// Factory constructs a Provider on a cache miss.
type Factory func(ctx context.Context) (provideradapter.Provider, error)

// Cache holds at most Config.MaxCacheSize live providers and evicts the
// least-recently-used one on overflow, in addition to the background
// sweeper's inactivity-based eviction.
type Cache struct {
	mu      sync.RWMutex
	cfg     Config
	entries map[Key]*entry
	stats   Stats

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New validates cfg and starts the background sweeper goroutine. Callers
// must call Close to stop the sweeper.
func New(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Cache{
		cfg:     cfg,
		entries: make(map[Key]*entry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c, nil
}

// GetOrCreate returns the cached provider for key, constructing one via
// build on a miss. Concurrent misses for the same key may race the
// factory; the loser's provider is discarded rather than returned, since
// providers are stateless enough that constructing one twice is cheap and
// simpler than per-key construction locks.
func (c *Cache) GetOrCreate(ctx context.Context, key Key, build Factory) (provideradapter.Provider, error) {
	now := time.Now()

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		e.touch(now)
		c.stats.TotalHits++
		c.mu.Unlock()
		return e.provider, nil
	}
	c.mu.RUnlock()

	provider, err := build(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalMisses++
	if existing, ok := c.entries[key]; ok {
		existing.touch(now)
		return existing.provider, nil
	}
	if len(c.entries) >= c.cfg.MaxCacheSize {
		c.evictLRULocked()
	}
	c.entries[key] = &entry{provider: provider, lastAccessed: now, createdAt: now, accessCount: 1}
	c.stats.CacheSize = len(c.entries)
	return provider, nil
}

// evictLRULocked removes the least-recently-accessed entry. Callers must
// hold c.mu for writing.
func (c *Cache) evictLRULocked() {
	var oldestKey Key
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.lastAccessed.Before(oldest) {
			oldestKey, oldest, first = k, e.lastAccessed, false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.stats.TotalEvictions++
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.CacheSize = len(c.entries)
	return s
}

// Evict removes a single key, e.g. on credential rotation.
func (c *Cache) Evict(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.TotalEvictions++
	}
}

func (c *Cache) sweepLoop() {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.CleanupInterval())
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweepOnce(time.Now())
		}
	}
}

func (c *Cache) sweepOnce(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	timeout := c.cfg.InactivityTimeout()
	for k, e := range c.entries {
		if now.Sub(e.lastAccessed) >= timeout {
			delete(c.entries, k)
			c.stats.TotalEvictions++
		}
	}
	c.stats.CacheSize = len(c.entries)
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}
