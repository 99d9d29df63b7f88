// Package scheduler implements §4.J: the parallel task scheduler that
// walks a TaskDAG respecting dependencies and a parallelism cap,
// checkpoints progress after every completion, and resumes an
// interrupted requirement from its last snapshot.
//
// Grounded on the teacher's internal/tasks (scheduler.go, executor.go,
// types.go, store.go): the Pending/Running/Completed/Failed state
// machine and checkpoint-on-completion discipline are carried over
// directly, generalized from the teacher's flat task-list dispatch to
// dependency-aware readiness via radiumtypes.TaskDAG.ReadyTasks. The
// fan-out is realized with golang.org/x/sync/semaphore bounding
// concurrent goroutines, since the teacher's own toolchain already
// carries golang.org/x/sync transitively for its own task fan-out.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/radiumhq/radium/internal/collab"
	"github.com/radiumhq/radium/internal/statestore"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// RunFunc executes one task to completion. retryable tells the scheduler
// whether a non-nil err should re-enter Pending (up to the per-task
// retry budget) or go straight to Failed.
type RunFunc func(ctx context.Context, task *radiumtypes.Task) (result string, err error, retryable bool)

// Config configures a Scheduler.
type Config struct {
	Parallelism       int
	MaxRetriesPerTask int
}

// DefaultConfig matches spec §4.J: parallelism capped at the number of
// available cores, one retry per task.
func DefaultConfig() Config {
	return Config{Parallelism: runtime.NumCPU(), MaxRetriesPerTask: 1}
}

// Report is the final summary returned by Run, per spec §4.J.
type Report struct {
	Total     int
	Completed int
	Failed    int
	Blocked   int
	Duration  time.Duration
	Success   bool
}

// Scheduler drives one requirement's TaskDAG to completion.
type Scheduler struct {
	cfg      Config
	dag      *radiumtypes.TaskDAG
	store    statestore.Store
	progress *collab.ProgressTracker
	run      RunFunc

	mu      sync.Mutex
	retries map[string]int
}

// New returns a Scheduler for dag. store and progress may be nil to
// disable checkpointing/progress reporting respectively.
func New(dag *radiumtypes.TaskDAG, store statestore.Store, progress *collab.ProgressTracker, run RunFunc, cfg Config) *Scheduler {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.NumCPU()
	}
	if cfg.MaxRetriesPerTask <= 0 {
		cfg.MaxRetriesPerTask = 1
	}
	return &Scheduler{cfg: cfg, dag: dag, store: store, progress: progress, run: run, retries: make(map[string]int)}
}

// Resume loads any persisted snapshot for dag.RequirementID and applies
// completed/failed statuses, per spec §4.J: "never re-execute a task
// already Completed." A missing snapshot is not an error — the run
// starts fresh.
func (s *Scheduler) Resume(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	state, err := s.store.Load(ctx, s.dag.RequirementID)
	if err != nil {
		return fmt.Errorf("scheduler: resume: %w", err)
	}
	if state == nil {
		return nil
	}
	completed := toSet(state.CompletedTaskIDs)
	failed := toSet(state.FailedTaskIDs)
	for _, t := range s.dag.Tasks {
		if completed[t.ID] {
			t.Status = radiumtypes.TaskCompleted
			t.Result = state.TaskResults[t.ID]
		} else if failed[t.ID] {
			t.Status = radiumtypes.TaskFailed
		}
	}
	s.propagateBlockedLocked()
	return nil
}

// Run dispatches ready tasks respecting the parallelism cap until no task
// is Pending or Running, checkpointing after every completion.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	sem := semaphore.NewWeighted(int64(s.cfg.Parallelism))
	var wg sync.WaitGroup
	progressed := make(chan struct{}, 1)
	signal := func() {
		select {
		case progressed <- struct{}{}:
		default:
		}
	}

	for {
		s.mu.Lock()
		ready := s.dag.ReadyTasks()
		active := s.hasActiveLocked()
		s.mu.Unlock()

		if len(ready) == 0 {
			if !active {
				break
			}
			select {
			case <-progressed:
			case <-ctx.Done():
				wg.Wait()
				return nil, ctx.Err()
			}
			continue
		}

		for _, task := range ready {
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return nil, err
			}
			s.markRunning(task)

			wg.Add(1)
			go func(task *radiumtypes.Task) {
				defer wg.Done()
				defer sem.Release(1)
				defer signal()

				result, err, retryable := s.run(ctx, task)
				s.onTaskDone(ctx, task, result, err, retryable)
			}(task)
		}

		select {
		case <-progressed:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}
	}

	wg.Wait()
	return s.finalReport(start), nil
}

func (s *Scheduler) markRunning(t *radiumtypes.Task) {
	s.mu.Lock()
	t.Status = radiumtypes.TaskRunning
	s.mu.Unlock()
}

func (s *Scheduler) onTaskDone(ctx context.Context, task *radiumtypes.Task, result string, err error, retryable bool) {
	s.mu.Lock()
	oldStatus := radiumtypes.TaskRunning
	if err == nil {
		task.Status = radiumtypes.TaskCompleted
		task.Result = result
	} else if retryable && s.retries[task.ID] < s.cfg.MaxRetriesPerTask {
		s.retries[task.ID]++
		task.Status = radiumtypes.TaskPending
	} else {
		task.Status = radiumtypes.TaskFailed
		task.Result = err.Error()
	}
	s.propagateBlockedLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if s.store != nil {
		_ = s.store.Save(ctx, snapshot)
	}
	if s.progress != nil {
		s.progress.ReportProgress(task.ID, 0, string(task.Status), fmt.Sprintf("%s -> %s", oldStatus, task.Status))
	}
}

// propagateBlockedLocked marks every Pending task with a Failed or
// Blocked dependency as Blocked, per spec §4.J ("any dependent of a
// Failed task transitions to Blocked"), transitively. Callers must hold
// s.mu.
func (s *Scheduler) propagateBlockedLocked() {
	index := make(map[string]*radiumtypes.Task, len(s.dag.Tasks))
	for _, t := range s.dag.Tasks {
		index[t.ID] = t
	}
	changed := true
	for changed {
		changed = false
		for _, t := range s.dag.Tasks {
			if t.Status != radiumtypes.TaskPending {
				continue
			}
			for _, dep := range t.DependsOn {
				depTask := index[dep]
				if depTask == nil {
					continue
				}
				if depTask.Status == radiumtypes.TaskFailed || depTask.Status == radiumtypes.TaskBlocked {
					t.Status = radiumtypes.TaskBlocked
					changed = true
					break
				}
			}
		}
	}
}

func (s *Scheduler) hasActiveLocked() bool {
	for _, t := range s.dag.Tasks {
		if t.Status == radiumtypes.TaskPending || t.Status == radiumtypes.TaskRunning {
			return true
		}
	}
	return false
}

func (s *Scheduler) snapshotLocked() *statestore.PersistedExecutionState {
	state := &statestore.PersistedExecutionState{
		RequirementID: s.dag.RequirementID,
		TaskResults:   make(map[string]string),
	}
	for _, t := range s.dag.Tasks {
		switch t.Status {
		case radiumtypes.TaskCompleted:
			state.CompletedTaskIDs = append(state.CompletedTaskIDs, t.ID)
			state.TaskResults[t.ID] = t.Result
		case radiumtypes.TaskFailed:
			state.FailedTaskIDs = append(state.FailedTaskIDs, t.ID)
		}
	}
	for _, t := range s.dag.ReadyTasks() {
		state.NextReadyTasks = append(state.NextReadyTasks, t.ID)
	}
	return state
}

func (s *Scheduler) finalReport(start time.Time) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Report{Total: len(s.dag.Tasks), Duration: time.Since(start)}
	for _, t := range s.dag.Tasks {
		switch t.Status {
		case radiumtypes.TaskCompleted:
			r.Completed++
		case radiumtypes.TaskFailed:
			r.Failed++
		case radiumtypes.TaskBlocked:
			r.Blocked++
		}
	}
	r.Success = r.Failed == 0 && r.Blocked == 0
	return r
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
