// Package statestore implements §4.K: atomic per-requirement scheduler
// state snapshots so interrupted runs can resume.
//
// Grounded on the teacher's internal/storage persistence idiom (a JSON
// blob per logical key under a directory) and generalized to the
// temp-file + fsync + rename contract spec §4.K requires explicitly,
// which the teacher's own storage layer does not need since it runs
// against CockroachDB rather than the filesystem. The relational
// alternative named in §4.K ("kept as a pluggable statestore.Store
// implementation") is SQLStore below, reusing telemetry's connection-pool
// pattern.
package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PersistedExecutionState is the atomic snapshot written after every
// scheduler checkpoint, per spec §3.
type PersistedExecutionState struct {
	RequirementID     string            `json:"requirement_id"`
	StartedAt         time.Time         `json:"started_at"`
	LastCheckpointAt  time.Time         `json:"last_checkpoint_at"`
	CompletedTaskIDs  []string          `json:"completed_task_ids"`
	FailedTaskIDs     []string          `json:"failed_task_ids"`
	TaskResults       map[string]string `json:"task_results"`
	NextReadyTasks    []string          `json:"next_ready_tasks"`
}

// Store is the persistence contract one scheduler instance depends on.
type Store interface {
	Save(ctx context.Context, state *PersistedExecutionState) error
	Load(ctx context.Context, requirementID string) (*PersistedExecutionState, error)
	List(ctx context.Context) ([]string, error)
}

// FileStore writes one JSON file per requirement under a directory,
// atomically via temp-file + fsync + rename, per spec §4.K.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("statestore: mkdir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(requirementID string) string {
	return filepath.Join(f.dir, requirementID+".json")
}

// Save atomically writes state: write {id}.tmp, fsync, rename to
// {id}.json.
func (f *FileStore) Save(ctx context.Context, state *PersistedExecutionState) error {
	if state.RequirementID == "" {
		return fmt.Errorf("statestore: requirement id is required")
	}
	state.LastCheckpointAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: marshal: %w", err)
	}

	target := f.path(state.RequirementID)
	tmp := target + ".tmp"

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("statestore: open temp: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("statestore: write temp: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("statestore: fsync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("statestore: close temp: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("statestore: rename: %w", err)
	}
	return nil
}

// Load reads the snapshot for requirementID. A missing file returns
// (nil, nil), per spec §4.K: "reads tolerate missing files."
func (f *FileStore) Load(ctx context.Context, requirementID string) (*PersistedExecutionState, error) {
	data, err := os.ReadFile(f.path(requirementID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: read: %w", err)
	}
	var state PersistedExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("statestore: unmarshal: %w", err)
	}
	return &state, nil
}

// List enumerates resumable requirement ids by scanning the directory.
func (f *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("statestore: readdir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
