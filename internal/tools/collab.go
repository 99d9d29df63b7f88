package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/radiumhq/radium/internal/collab"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// lockTimeout bounds how long request_lock blocks before giving up,
// matching the sandbox exec handlers' fixed timeout discipline.
const lockTimeout = 30 * time.Second

// RegisterCollabTools wires the §4.M collaboration primitives (delegation,
// locks, the message bus, progress reporting) into reg as agent-callable
// tools in the "agents" category, so a running agent can spawn a worker,
// coordinate over shared resources, and report status the same way it
// reads a file or runs a command.
func RegisterCollabTools(reg *Registry, bus *collab.Bus, locks *collab.LockManager, delegate *collab.DelegationManager, progress *collab.ProgressTracker) {
	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "delegate_task",
			Description: "Spawn a worker agent for a sub-task, bounded by the configured delegation depth.",
			Category:    string(CategoryAgents),
			Parameters: schema(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent_id": map[string]any{"type": "string", "description": "The delegating agent's own ID."},
					"task_id":  map[string]any{"type": "string", "description": "The sub-task the worker will execute."},
				},
				"required": []string{"agent_id", "task_id"},
			}),
		},
		Category: CategoryAgents,
		Handler:  delegateTaskHandler(delegate),
	})

	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "request_lock",
			Description: "Acquire a read or write lock on a named resource, blocking until granted or timed out.",
			Category:    string(CategoryAgents),
			Parameters: schema(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"resource": map[string]any{"type": "string", "description": "Resource name, typically a workspace path."},
					"write":    map[string]any{"type": "boolean", "description": "Request an exclusive write lock instead of a shared read lock."},
				},
				"required": []string{"resource"},
			}),
		},
		Category: CategoryAgents,
		Handler:  requestLockHandler(locks),
	})

	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "report_progress",
			Description: "Publish the calling agent's current progress for status/doctor reporting.",
			Category:    string(CategoryAgents),
			Parameters: schema(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent_id": map[string]any{"type": "string"},
					"percent":  map[string]any{"type": "number"},
					"status":   map[string]any{"type": "string"},
					"message":  map[string]any{"type": "string"},
				},
				"required": []string{"agent_id", "status"},
			}),
		},
		Category: CategoryAgents,
		Handler:  reportProgressHandler(progress),
	})

	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "send_message",
			Description: "Send a message to another agent, or broadcast to every subscribed agent when `to` is omitted.",
			Category:    string(CategoryAgents),
			Parameters: schema(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent_id": map[string]any{"type": "string", "description": "The sending agent's own ID."},
					"to":       map[string]any{"type": "string", "description": "Recipient agent ID; omit to broadcast."},
					"type":     map[string]any{"type": "string"},
					"payload":  map[string]any{"type": "string"},
				},
				"required": []string{"agent_id", "type"},
			}),
		},
		Category: CategoryAgents,
		Handler:  sendMessageHandler(bus),
	})
}

func delegateTaskHandler(delegate *collab.DelegationManager) HandlerFunc {
	return func(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
		var args struct {
			AgentID string `json:"agent_id"`
			TaskID  string `json:"task_id"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
		workerID := "worker-" + uuid.NewString()
		del, err := delegate.SpawnWorker(args.AgentID, workerID, args.TaskID)
		if err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
		raw, _ := json.Marshal(del)
		return radiumtypes.ToolResult{ID: call.ID, Success: true, Content: string(raw)}, nil
	}
}

func requestLockHandler(locks *collab.LockManager) HandlerFunc {
	return func(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
		var args struct {
			Resource string `json:"resource"`
			Write    bool   `json:"write"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		defer cancel()

		var err error
		if args.Write {
			_, err = locks.RequestWriteLock(ctx, args.Resource)
		} else {
			_, err = locks.RequestReadLock(ctx, args.Resource)
		}
		if err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
		return radiumtypes.ToolResult{ID: call.ID, Success: true, Content: "lock granted on " + args.Resource}, nil
	}
}

func reportProgressHandler(progress *collab.ProgressTracker) HandlerFunc {
	return func(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
		var args struct {
			AgentID string  `json:"agent_id"`
			Percent float64 `json:"percent"`
			Status  string  `json:"status"`
			Message string  `json:"message"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
		progress.ReportProgress(args.AgentID, args.Percent, args.Status, args.Message)
		return radiumtypes.ToolResult{ID: call.ID, Success: true}, nil
	}
}

func sendMessageHandler(bus *collab.Bus) HandlerFunc {
	return func(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
		var args struct {
			AgentID string `json:"agent_id"`
			To      string `json:"to"`
			Type    string `json:"type"`
			Payload string `json:"payload"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
		if args.To == "" {
			bus.Broadcast(args.AgentID, args.Type, args.Payload)
		} else {
			bus.Send(args.AgentID, args.To, args.Type, args.Payload)
		}
		return radiumtypes.ToolResult{ID: call.ID, Success: true}, nil
	}
}
