package collab

import "testing"

func TestSpawnWorkerTracksDepth(t *testing.T) {
	d := NewDelegationManager(3)

	del1, err := d.SpawnWorker("root", "worker-a", "task-1")
	if err != nil {
		t.Fatalf("SpawnWorker: %v", err)
	}
	if del1.Depth != 1 {
		t.Fatalf("expected depth 1, got %d", del1.Depth)
	}

	del2, err := d.SpawnWorker("worker-a", "worker-b", "task-2")
	if err != nil {
		t.Fatalf("SpawnWorker: %v", err)
	}
	if del2.Depth != 2 {
		t.Fatalf("expected depth 2, got %d", del2.Depth)
	}
}

func TestSpawnWorkerRejectsBeyondMaxDepth(t *testing.T) {
	d := NewDelegationManager(2)

	if _, err := d.SpawnWorker("root", "worker-a", "task-1"); err != nil {
		t.Fatalf("depth 1 should succeed: %v", err)
	}
	if _, err := d.SpawnWorker("worker-a", "worker-b", "task-2"); err != nil {
		t.Fatalf("depth 2 should succeed: %v", err)
	}
	if _, err := d.SpawnWorker("worker-b", "worker-c", "task-3"); err == nil {
		t.Fatalf("expected depth 3 to be rejected with max depth 2")
	}
}

func TestDefaultMaxDepthAppliedWhenNonPositive(t *testing.T) {
	d := NewDelegationManager(0)
	if d.maxDepth != DefaultMaxDelegationDepth {
		t.Fatalf("expected default max depth %d, got %d", DefaultMaxDelegationDepth, d.maxDepth)
	}
}

func TestDepthOfUnknownAgentIsZero(t *testing.T) {
	d := NewDelegationManager(3)
	if depth := d.DepthOf("never-seen"); depth != 0 {
		t.Fatalf("expected depth 0 for unseen agent, got %d", depth)
	}
}
