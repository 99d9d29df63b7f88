// Package radiumtypes defines the data model shared across the execution
// core: requirements, tasks, agent definitions, tool descriptors, and the
// provider-agnostic model request/response shapes.
package radiumtypes

import "time"

// Requirement is an identified unit of work that the Planner turns into a
// TaskDAG.
type Requirement struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskBlocked   TaskStatus = "blocked"
)

// Task is a single agent-executed step within a requirement.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	DependsOn     []string   `json:"depends_on"`
	AssignedAgent string     `json:"assigned_agent,omitempty"`
	Input         string     `json:"input"`
	Status        TaskStatus `json:"status"`
	Result        string     `json:"result,omitempty"`
}

// TaskDAG is the dependency graph over Tasks for one requirement.
type TaskDAG struct {
	RequirementID string  `json:"requirement_id"`
	Tasks         []*Task `json:"tasks"`
}

// TaskByID returns the task with the given id, or nil.
func (d *TaskDAG) TaskByID(id string) *Task {
	for _, t := range d.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Validate checks the two invariants from spec §3: acyclicity and that every
// dependency refers to a task in the same requirement.
func (d *TaskDAG) Validate() error {
	index := make(map[string]*Task, len(d.Tasks))
	for _, t := range d.Tasks {
		index[t.ID] = t
	}
	for _, t := range d.Tasks {
		for _, dep := range t.DependsOn {
			if _, ok := index[dep]; !ok {
				return &DAGError{Reason: "missing dependency", TaskID: t.ID, EdgeTo: dep}
			}
		}
	}

	// Kahn's algorithm for cycle detection.
	inDegree := make(map[string]int, len(d.Tasks))
	adj := make(map[string][]string, len(d.Tasks))
	for _, t := range d.Tasks {
		if _, ok := inDegree[t.ID]; !ok {
			inDegree[t.ID] = 0
		}
		for _, dep := range t.DependsOn {
			adj[dep] = append(adj[dep], t.ID)
			inDegree[t.ID]++
		}
	}
	queue := make([]string, 0, len(d.Tasks))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited != len(d.Tasks) {
		return &DAGError{Reason: "cycle detected", Edges: cyclicEdges(d.Tasks, inDegree)}
	}
	return nil
}

func cyclicEdges(tasks []*Task, residualInDegree map[string]int) []string {
	var edges []string
	for _, t := range tasks {
		if residualInDegree[t.ID] > 0 {
			for _, dep := range t.DependsOn {
				if residualInDegree[dep] > 0 || residualInDegree[t.ID] > 0 {
					edges = append(edges, dep+"->"+t.ID)
				}
			}
		}
	}
	return edges
}

// DAGError reports an acyclicity or referential-integrity violation in a
// TaskDAG.
type DAGError struct {
	Reason string
	TaskID string
	EdgeTo string
	Edges  []string
}

func (e *DAGError) Error() string {
	if e.Reason == "cycle detected" {
		return "task graph cycle detected: " + joinEdges(e.Edges)
	}
	return "task " + e.TaskID + " depends on unknown task " + e.EdgeTo
}

func joinEdges(edges []string) string {
	out := ""
	for i, e := range edges {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out
}

// ReadyTasks returns tasks that are Pending and whose dependencies are all
// Completed.
func (d *TaskDAG) ReadyTasks() []*Task {
	index := make(map[string]*Task, len(d.Tasks))
	for _, t := range d.Tasks {
		index[t.ID] = t
	}
	var ready []*Task
	for _, t := range d.Tasks {
		if t.Status != TaskPending {
			continue
		}
		allDone := true
		for _, dep := range t.DependsOn {
			if depTask := index[dep]; depTask == nil || depTask.Status != TaskCompleted {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, t)
		}
	}
	return ready
}

// AgentDefinition is an immutable (during an execution) description of an
// agent: its prompt, engine, model, and capabilities.
type AgentDefinition struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	PromptTemplate    string   `json:"prompt_template"`
	EngineID          string   `json:"engine_id"`
	DefaultModel      string   `json:"default_model"`
	CapabilitySet     []string `json:"capability_set,omitempty"`
	SandboxPolicyName string   `json:"sandbox_policy,omitempty"`
	ToolAllowList     []string `json:"tool_allow_list,omitempty"`
	MaxConcurrentTask int      `json:"max_concurrent_tasks,omitempty"`
}

// MemoryEntry is the per-agent textual output recorded for a requirement.
type MemoryEntry struct {
	AgentID   string    `json:"agent_id"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryTruncateLimit is the canonical tail length for stored memory, per
// spec invariant 8: store(agent, x); get(agent) returns the last 2000
// characters of x.
const MemoryTruncateLimit = 2000

// Truncate returns the last MemoryTruncateLimit characters (by rune) of s.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MemoryTruncateLimit {
		return s
	}
	return string(runes[len(runes)-MemoryTruncateLimit:])
}
