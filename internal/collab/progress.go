package collab

import (
	"sync"
	"time"
)

// ProgressReport is one report_progress call's recorded state, per spec
// §4.M.
type ProgressReport struct {
	AgentID   string
	Percent   float64
	Status    string
	Message   string
	UpdatedAt time.Time
}

// ProgressTracker keeps the latest progress report per agent, grounded
// on the teacher's InMemorySwarmContext (internal/multiagent/swarm.go):
// same mutex-guarded "latest state per key" map, generalized from a
// single shared-context value to one progress report per agent and
// widened with a best-effort subscriber feed via Bus.
type ProgressTracker struct {
	mu     sync.RWMutex
	latest map[string]ProgressReport
	bus    *Bus
}

// NewProgressTracker returns a tracker that also publishes updates on
// bus under the "progress" message type, if bus is non-nil.
func NewProgressTracker(bus *Bus) *ProgressTracker {
	return &ProgressTracker{latest: make(map[string]ProgressReport), bus: bus}
}

// ReportProgress records agentID's latest progress and broadcasts it.
func (p *ProgressTracker) ReportProgress(agentID string, percent float64, status, message string) ProgressReport {
	report := ProgressReport{
		AgentID:   agentID,
		Percent:   percent,
		Status:    status,
		Message:   message,
		UpdatedAt: time.Now(),
	}
	p.mu.Lock()
	p.latest[agentID] = report
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.Broadcast(agentID, "progress", report)
	}
	return report
}

// Get returns the latest report for agentID, if any.
func (p *ProgressTracker) Get(agentID string) (ProgressReport, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.latest[agentID]
	return r, ok
}

// Snapshot returns every tracked agent's latest report.
func (p *ProgressTracker) Snapshot() map[string]ProgressReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]ProgressReport, len(p.latest))
	for k, v := range p.latest {
		out[k] = v
	}
	return out
}
