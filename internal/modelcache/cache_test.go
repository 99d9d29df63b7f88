package modelcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/radiumhq/radium/internal/provideradapter"
)

func mockFactory(calls *int32) Factory {
	return func(ctx context.Context) (provideradapter.Provider, error) {
		atomic.AddInt32(calls, 1)
		return provideradapter.NewMockProvider("mock-1"), nil
	}
}

func TestGetOrCreateCachesByKey(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	var calls int32
	key := NewKey(provideradapter.ModelTypeMock, "mock-1", "key1")
	if _, err := c.GetOrCreate(context.Background(), key, mockFactory(&calls)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := c.GetOrCreate(context.Background(), key, mockFactory(&calls)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected factory called once, got %d", calls)
	}
	stats := c.Stats()
	if stats.TotalHits != 1 || stats.TotalMisses != 1 || stats.CacheSize != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDifferentAPIKeysGetDistinctEntries(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	key1 := NewKey(provideradapter.ModelTypeMock, "mock-1", "key1")
	key2 := NewKey(provideradapter.ModelTypeMock, "mock-1", "key2")
	if key1 == key2 {
		t.Fatal("expected distinct keys for distinct API keys")
	}

	var calls int32
	if _, err := c.GetOrCreate(context.Background(), key1, mockFactory(&calls)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := c.GetOrCreate(context.Background(), key2, mockFactory(&calls)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected factory called twice for distinct keys, got %d", calls)
	}
}

func TestEvictsLRUOnOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCacheSize = 1
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	var calls int32
	key1 := NewKey(provideradapter.ModelTypeMock, "mock-1", "key1")
	key2 := NewKey(provideradapter.ModelTypeMock, "mock-2", "key1")
	if _, err := c.GetOrCreate(context.Background(), key1, mockFactory(&calls)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := c.GetOrCreate(context.Background(), key2, mockFactory(&calls)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	stats := c.Stats()
	if stats.CacheSize != 1 {
		t.Fatalf("expected cache size capped at 1, got %d", stats.CacheSize)
	}
	if stats.TotalEvictions != 1 {
		t.Fatalf("expected 1 eviction, got %d", stats.TotalEvictions)
	}
}

func TestSweepEvictsInactiveEntries(t *testing.T) {
	cfg := Config{Enabled: true, InactivityTimeoutSecs: 1, MaxCacheSize: 10, CleanupIntervalSecs: 1}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	var calls int32
	key := NewKey(provideradapter.ModelTypeMock, "mock-1", "key1")
	if _, err := c.GetOrCreate(context.Background(), key, mockFactory(&calls)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	c.sweepOnce(time.Now().Add(2 * time.Second))
	if c.Stats().CacheSize != 0 {
		t.Fatalf("expected sweep to evict inactive entry, size=%d", c.Stats().CacheSize)
	}
}

func TestConfigValidateRejectsZeroValues(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero timeout", Config{InactivityTimeoutSecs: 0, MaxCacheSize: 1, CleanupIntervalSecs: 1}},
		{"zero max size", Config{InactivityTimeoutSecs: 1, MaxCacheSize: 0, CleanupIntervalSecs: 1}},
		{"zero cleanup interval", Config{InactivityTimeoutSecs: 1, MaxCacheSize: 1, CleanupIntervalSecs: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
