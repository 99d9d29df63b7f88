package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// Memory persists one JSON file per (requirement, agent_id) under a
// requirement-scoped directory, per spec §4.G/§6's
// `.radium/plan/<REQ-ID>/memory/<agent-id>.json` layout.
//
// Grounded on the teacher's internal/storage persistence idiom (directory
// per logical scope, one JSON blob per key) and spec §4.K's atomic
// write contract, reused here since Memory shares the same durability
// requirement as scheduler state.
type Memory struct {
	root string // .../.radium/plan/<requirement-id>/memory
}

// NewMemory returns a Memory rooted at root, creating it if absent.
func NewMemory(root string) (*Memory, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("memory: create root: %w", err)
	}
	return &Memory{root: root}, nil
}

func (m *Memory) path(agentID string) string {
	return filepath.Join(m.root, agentID+".json")
}

// Store truncates output to the last MemoryTruncateLimit characters and
// writes it atomically (temp file + rename), per spec §8 invariant 8.
func (m *Memory) Store(agentID, output string) error {
	entry := radiumtypes.MemoryEntry{
		AgentID:   agentID,
		Output:    radiumtypes.Truncate(output),
		CreatedAt: nowFunc(),
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal: %w", err)
	}
	target := m.path(agentID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("memory: write temp: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("memory: rename: %w", err)
	}
	return nil
}

// Get loads the stored entry for agentID, or (nil, nil) if none exists.
func (m *Memory) Get(agentID string) (*radiumtypes.MemoryEntry, error) {
	data, err := os.ReadFile(m.path(agentID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: read: %w", err)
	}
	var entry radiumtypes.MemoryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("memory: unmarshal: %w", err)
	}
	return &entry, nil
}

// Tail returns just the stored output (the "memory tail") for agentID, or
// "" if no entry exists, used by context assembly to include a
// predecessor agent's output in a later prompt.
func (m *Memory) Tail(agentID string) (string, error) {
	entry, err := m.Get(agentID)
	if err != nil || entry == nil {
		return "", err
	}
	return entry.Output, nil
}

// nowFunc is a seam for deterministic tests.
var nowFunc = defaultNow
