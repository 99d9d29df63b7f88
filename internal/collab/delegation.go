package collab

import (
	"fmt"
	"sync"
)

// DefaultMaxDelegationDepth bounds spawn_worker recursion per spec §4.M
// ("delegation depth is bounded to prevent runaway sub-agent fan-out").
// No teacher file encodes a depth bound for multiagent delegation (the
// teacher's supervisor hands work to a fixed worker pool rather than
// letting workers themselves spawn workers), so this bound and its
// tracking are built fresh, following the teacher's map+mutex registry
// idiom used elsewhere (internal/tools.Registry, internal/hooks.Registry).
const DefaultMaxDelegationDepth = 5

// Delegation describes one spawn_worker request's place in the tree.
type Delegation struct {
	ID       string
	Parent   string
	Worker   string
	TaskID   string
	Depth    int
	Children []string
}

// DelegationManager tracks parent/child agent relationships and enforces
// a maximum recursion depth for spawn_worker.
type DelegationManager struct {
	mu       sync.Mutex
	maxDepth int
	byID     map[string]*Delegation
	depthOf  map[string]int // agentID -> depth in the delegation tree
	seq      int
}

// NewDelegationManager returns a manager bounded by maxDepth; maxDepth
// <= 0 falls back to DefaultMaxDelegationDepth.
func NewDelegationManager(maxDepth int) *DelegationManager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDelegationDepth
	}
	return &DelegationManager{
		maxDepth: maxDepth,
		byID:     make(map[string]*Delegation),
		depthOf:  make(map[string]int),
	}
}

// SpawnWorker records a delegation from parentAgentID to workerAgentID
// for taskID. It returns an error if granting it would exceed maxDepth.
func (d *DelegationManager) SpawnWorker(parentAgentID, workerAgentID, taskID string) (*Delegation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	parentDepth := d.depthOf[parentAgentID] // 0 for a root agent never seen before
	childDepth := parentDepth + 1
	if childDepth > d.maxDepth {
		return nil, fmt.Errorf("collab: delegation depth %d exceeds max %d for worker %q", childDepth, d.maxDepth, workerAgentID)
	}

	d.seq++
	id := fmt.Sprintf("deleg-%d", d.seq)
	del := &Delegation{
		ID:     id,
		Parent: parentAgentID,
		Worker: workerAgentID,
		TaskID: taskID,
		Depth:  childDepth,
	}
	d.byID[id] = del
	d.depthOf[workerAgentID] = childDepth

	if parent, ok := d.findByWorker(parentAgentID); ok {
		parent.Children = append(parent.Children, id)
	}
	return del, nil
}

func (d *DelegationManager) findByWorker(workerAgentID string) (*Delegation, bool) {
	for _, del := range d.byID {
		if del.Worker == workerAgentID {
			return del, true
		}
	}
	return nil, false
}

// DepthOf returns the current delegation depth of agentID (0 if it has
// never been delegated work, i.e. it is a root agent).
func (d *DelegationManager) DepthOf(agentID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.depthOf[agentID]
}

// Tree returns every recorded delegation, for diagnostics/telemetry.
func (d *DelegationManager) Tree() []*Delegation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Delegation, 0, len(d.byID))
	for _, del := range d.byID {
		out = append(out, del)
	}
	return out
}
