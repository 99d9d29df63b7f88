package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/radiumhq/radium/internal/sandbox"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// schema marshals a bare JSON-schema object literal, falling back to an
// untyped object descriptor if marshaling somehow fails (it never does for
// the literals below).
func schema(v map[string]any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return raw
}

// RegisterBuiltinTools wires the file_operations, terminal, and git tool
// categories named in spec §4.D into reg, every handler running commands
// through box rather than directly against the host — the same
// Handler-per-category shape the teacher's internal/tools/exec package
// uses, generalized to run inside whatever Sandbox variant the caller
// configured instead of always shelling out locally.
func RegisterBuiltinTools(reg *Registry, box sandbox.Sandbox) {
	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "read_file",
			Description: "Read a UTF-8 text file from the workspace.",
			Category:    string(CategoryFileOperations),
			Parameters: schema(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "Path relative to the workspace root."},
				},
				"required": []string{"path"},
			}),
		},
		Category: CategoryFileOperations,
		Handler:  HandlerFunc(readFileHandler),
	})

	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "write_file",
			Description: "Write a UTF-8 text file in the workspace, creating parent directories as needed.",
			Category:    string(CategoryFileOperations),
			Parameters: schema(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":    map[string]any{"type": "string", "description": "Path relative to the workspace root."},
					"content": map[string]any{"type": "string", "description": "File content to write."},
				},
				"required": []string{"path", "content"},
			}),
		},
		Category: CategoryFileOperations,
		Handler:  HandlerFunc(writeFileHandler),
	})

	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "run_command",
			Description: "Run a shell command inside the configured sandbox.",
			Category:    string(CategoryTerminal),
			Parameters: schema(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"command": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "argv, e.g. [\"ls\", \"-la\"].",
					},
					"cwd": map[string]any{"type": "string", "description": "Working directory relative to the workspace root."},
				},
				"required": []string{"command"},
			}),
		},
		Category: CategoryTerminal,
		Handler:  sandboxExecHandler(box),
	})

	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "git_status",
			Description: "Run `git status --short` in the workspace.",
			Category:    string(CategoryGit),
			Parameters:  schema(map[string]any{"type": "object", "properties": map[string]any{}}),
		},
		Category: CategoryGit,
		Handler:  fixedCommandHandler(box, []string{"git", "status", "--short"}),
	})

	reg.Register(Registered{
		Descriptor: radiumtypes.ToolDescriptor{
			Name:        "git_diff",
			Description: "Run `git diff` in the workspace.",
			Category:    string(CategoryGit),
			Parameters:  schema(map[string]any{"type": "object", "properties": map[string]any{}}),
		},
		Category: CategoryGit,
		Handler:  fixedCommandHandler(box, []string{"git", "diff"}),
	})
}

func readFileHandler(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
	}
	data, err := os.ReadFile(filepath.Clean(args.Path))
	if err != nil {
		return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
	}
	return radiumtypes.ToolResult{ID: call.ID, Success: true, Content: string(data)}, nil
}

func writeFileHandler(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
	}
	path := filepath.Clean(args.Path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
	}
	if err := os.WriteFile(path, []byte(args.Content), 0o644); err != nil {
		return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
	}
	return radiumtypes.ToolResult{ID: call.ID, Success: true, Content: "wrote " + path}, nil
}

func sandboxExecHandler(box sandbox.Sandbox) HandlerFunc {
	return func(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
		var args struct {
			Command []string `json:"command"`
			Cwd     string   `json:"cwd"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return radiumtypes.ToolResult{ID: call.ID, Success: false, Error: err.Error()}, nil
		}
		return runInSandbox(box, call.ID, args.Command, args.Cwd)
	}
}

func fixedCommandHandler(box sandbox.Sandbox, command []string) HandlerFunc {
	return func(call radiumtypes.ToolCall) (radiumtypes.ToolResult, error) {
		return runInSandbox(box, call.ID, command, "")
	}
}

func runInSandbox(box sandbox.Sandbox, callID string, command []string, cwd string) (radiumtypes.ToolResult, error) {
	if box == nil {
		return radiumtypes.ToolResult{ID: callID, Success: false, Error: "no sandbox configured"}, nil
	}
	if len(command) == 0 {
		return radiumtypes.ToolResult{ID: callID, Success: false, Error: "empty command"}, nil
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := box.Execute(ctx, sandbox.ExecRequest{
		Command:      command,
		WorkspaceDir: cwd,
		Timeout:      30 * time.Second,
	})
	dur := time.Since(start).Milliseconds()
	if err != nil {
		return radiumtypes.ToolResult{ID: callID, Success: false, Error: err.Error(), Duration: dur}, nil
	}
	content := res.Stdout
	if res.Stderr != "" {
		content += "\n" + res.Stderr
	}
	return radiumtypes.ToolResult{
		ID:       callID,
		Success:  res.ExitCode == 0 && !res.TimedOut,
		Content:  content,
		Duration: dur,
	}, nil
}
