package session

import (
	"testing"
	"time"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

func TestSessionAppendOnlyAndLastActiveMonotone(t *testing.T) {
	s := New("s1", "agent-1", "/tmp")
	first := s.LastActive
	time.Sleep(time.Millisecond)
	s.AppendMessage(radiumtypes.TextMessage(radiumtypes.RoleUser, "hi"))
	if len(s.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(s.Messages))
	}
	if !s.LastActive.After(first) {
		t.Fatalf("expected LastActive to advance")
	}
	s.AppendMessage(radiumtypes.TextMessage(radiumtypes.RoleAssistant, "hello"))
	if len(s.Messages) != 2 {
		t.Fatalf("expected append-only growth, got %d messages", len(s.Messages))
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore()
	s := New("s1", "agent-1", "/tmp")
	store.Create(s)
	if got := store.Get("s1"); got != s {
		t.Fatalf("expected to get back the same session")
	}
	if store.Get("missing") != nil {
		t.Fatalf("expected nil for missing session")
	}
}

func TestMemoryStoreRoundTripsWithinTruncation(t *testing.T) {
	dir := t.TempDir()
	mem, err := NewMemory(dir)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	if err := mem.Store("agent-1", "hello world"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	entry, err := mem.Get("agent-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Output != "hello world" {
		t.Fatalf("expected round-trip, got %q", entry.Output)
	}
}

func TestMemoryStoreTruncatesTo2000Chars(t *testing.T) {
	dir := t.TempDir()
	mem, _ := NewMemory(dir)
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'a'
	}
	if err := mem.Store("agent-1", string(long)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	entry, _ := mem.Get("agent-1")
	if len(entry.Output) != radiumtypes.MemoryTruncateLimit {
		t.Fatalf("expected %d chars, got %d", radiumtypes.MemoryTruncateLimit, len(entry.Output))
	}
}

func TestMemoryGetMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	mem, _ := NewMemory(dir)
	entry, err := mem.Get("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry for missing agent")
	}
}

func TestMemoryIsolatedAcrossRequirements(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	memA, _ := NewMemory(dirA)
	memB, _ := NewMemory(dirB)
	memA.Store("agent-1", "req A output")
	entry, err := memB.Get("agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected requirement isolation, but found entry: %+v", entry)
	}
}
