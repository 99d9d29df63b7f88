// Package session implements §4.G: conversation state (Session), per-agent
// persisted output (Memory), and prompt context assembly from hierarchical
// files and their @path imports.
//
// Grounded on the teacher's internal/sessions.MemoryStore (mutex-guarded
// maps, clone-on-read/write so callers never observe a half-written
// struct, append-only message history), generalized from the teacher's
// chat-session shape to the requirement-scoped Session this spec defines.
package session

import (
	"sync"
	"time"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// State is the lifecycle state of a Session.
type State string

const (
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Approval records the outcome of one Policy Gate Ask decision surfaced to
// an operator during a session.
type Approval struct {
	ToolName  string
	Approved  bool
	Reason    string
	Timestamp time.Time
}

// Artifact is a file or blob produced during a session (sandbox output,
// a generated document).
type Artifact struct {
	Name      string
	Path      string
	CreatedAt time.Time
}

// Session is the append-only conversation/tool/approval/artifact trace for
// one agent execution, per spec §3/§4.G.
type Session struct {
	ID            string
	CreatedAt     time.Time
	LastActive    time.Time
	State         State
	AgentID       string
	WorkspaceRoot string
	Metadata      map[string]any

	Messages  []radiumtypes.Message
	ToolCalls []radiumtypes.ToolCall
	Approvals []Approval
	Artifacts []Artifact
}

// New creates an Active session with CreatedAt/LastActive set to now.
func New(id, agentID, workspaceRoot string) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		CreatedAt:     now,
		LastActive:    now,
		State:         StateActive,
		AgentID:       agentID,
		WorkspaceRoot: workspaceRoot,
		Metadata:      make(map[string]any),
	}
}

// Touch updates LastActive to now; LastActive must never decrease
// (spec §8 invariant 7).
func (s *Session) Touch() { s.LastActive = time.Now() }

// AppendMessage appends msg; the Messages slice is append-only.
func (s *Session) AppendMessage(msg radiumtypes.Message) {
	s.Messages = append(s.Messages, msg)
	s.Touch()
}

// AppendToolCall appends a tool call record.
func (s *Session) AppendToolCall(tc radiumtypes.ToolCall) {
	s.ToolCalls = append(s.ToolCalls, tc)
	s.Touch()
}

// AppendApproval appends an approval decision.
func (s *Session) AppendApproval(a Approval) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	s.Approvals = append(s.Approvals, a)
	s.Touch()
}

// AppendArtifact appends an artifact record.
func (s *Session) AppendArtifact(a Artifact) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.Artifacts = append(s.Artifacts, a)
	s.Touch()
}

// Store holds Sessions in memory, safe for concurrent access. Exactly one
// executor owns the writer side of a given Session id at a time per spec
// §5; Store itself only guards the map of sessions, not per-session
// mutation ordering.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session.
func (s *Store) Create(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns the session by id, or nil.
func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// List returns every session, most-recently-active first.
func (s *Store) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
