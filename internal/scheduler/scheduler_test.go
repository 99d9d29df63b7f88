package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/radiumhq/radium/internal/statestore"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

func linearDAG() *radiumtypes.TaskDAG {
	return &radiumtypes.TaskDAG{
		RequirementID: "req-1",
		Tasks: []*radiumtypes.Task{
			{ID: "t1", DependsOn: nil, Status: radiumtypes.TaskPending},
			{ID: "t2", DependsOn: []string{"t1"}, Status: radiumtypes.TaskPending},
			{ID: "t3", DependsOn: []string{"t1"}, Status: radiumtypes.TaskPending},
		},
	}
}

func TestRunCompletesAllTasksRespectingDependencies(t *testing.T) {
	dag := linearDAG()
	var mu sync.Mutex
	var order []string

	run := func(ctx context.Context, task *radiumtypes.Task) (string, error, bool) {
		mu.Lock()
		order = append(order, task.ID)
		mu.Unlock()
		return "ok", nil, false
	}

	s := New(dag, nil, nil, run, Config{Parallelism: 2})
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Completed != 3 || !report.Success {
		t.Fatalf("expected all 3 completed successfully, got %+v", report)
	}
	if order[0] != "t1" {
		t.Fatalf("expected t1 to run before its dependents, got order %v", order)
	}
}

func TestFailedTaskBlocksDependents(t *testing.T) {
	dag := linearDAG()
	run := func(ctx context.Context, task *radiumtypes.Task) (string, error, bool) {
		if task.ID == "t1" {
			return "", fmt.Errorf("boom"), false
		}
		return "ok", nil, false
	}

	s := New(dag, nil, nil, run, Config{Parallelism: 2})
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 || report.Blocked != 2 || report.Success {
		t.Fatalf("expected 1 failed, 2 blocked, not successful, got %+v", report)
	}
}

func TestRetryableErrorReentersPending(t *testing.T) {
	dag := &radiumtypes.TaskDAG{RequirementID: "req-1", Tasks: []*radiumtypes.Task{{ID: "t1", Status: radiumtypes.TaskPending}}}
	attempts := 0
	run := func(ctx context.Context, task *radiumtypes.Task) (string, error, bool) {
		attempts++
		if attempts < 2 {
			return "", fmt.Errorf("transient"), true
		}
		return "ok", nil, false
	}

	s := New(dag, nil, nil, run, Config{Parallelism: 1, MaxRetriesPerTask: 2})
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if report.Completed != 1 || !report.Success {
		t.Fatalf("expected eventual success, got %+v", report)
	}
}

func TestResumeSkipsCompletedTasks(t *testing.T) {
	dag := linearDAG()
	dir := t.TempDir()
	store, err := statestore.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Save(context.Background(), &statestore.PersistedExecutionState{
		RequirementID:    "req-1",
		CompletedTaskIDs: []string{"t1"},
		TaskResults:      map[string]string{"t1": "already done"},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var ran []string
	run := func(ctx context.Context, task *radiumtypes.Task) (string, error, bool) {
		ran = append(ran, task.ID)
		return "ok", nil, false
	}

	s := New(dag, store, nil, run, Config{Parallelism: 2})
	if err := s.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, id := range ran {
		if id == "t1" {
			t.Fatalf("expected t1 not to be re-executed after resume")
		}
	}
	if report.Completed != 3 {
		t.Fatalf("expected 3 completed (1 resumed + 2 run), got %d", report.Completed)
	}
}

func TestNoDependenciesIsImmediatelyReady(t *testing.T) {
	dag := &radiumtypes.TaskDAG{RequirementID: "req-1", Tasks: []*radiumtypes.Task{{ID: "t1", Status: radiumtypes.TaskPending}}}
	ready := dag.ReadyTasks()
	if len(ready) != 1 {
		t.Fatalf("expected task with no dependencies to be immediately ready")
	}
}
