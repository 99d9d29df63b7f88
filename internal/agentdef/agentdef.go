// Package agentdef loads the on-disk AgentDefinition file format named in
// spec §6: one TOML file per agent under `.radium/agents/`, decoded into
// the pkg/radiumtypes.AgentDefinition the Agent Executor consumes.
//
// Grounded on internal/config's BurntSushi/toml decode-file pattern,
// generalized from a single root config file to one file per agent plus
// a directory scan.
package agentdef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// doc mirrors the file format's `[agent]` table exactly as spec §6
// describes it; ReasoningEffort and Category are carried for completeness
// even though only PromptTemplate/EngineID/DefaultModel/ToolAllowList are
// consumed by today's Agent Executor.
type doc struct {
	Agent struct {
		ID               string   `toml:"id"`
		Name             string   `toml:"name"`
		Description      string   `toml:"description"`
		PromptPath       string   `toml:"prompt_path"`
		Engine           string   `toml:"engine"`
		Model            string   `toml:"model"`
		ReasoningEffort  string   `toml:"reasoning_effort"`
		Category         string   `toml:"category"`
		CapabilitySet    []string `toml:"capability_set"`
		ToolAllowList    []string `toml:"tool_allow_list"`
		SandboxPolicy    string   `toml:"sandbox_policy"`
		MaxConcurrent    int      `toml:"max_concurrent_tasks"`
	} `toml:"agent"`
}

// Load decodes one agent-definition TOML file rooted at baseDir, resolving
// `prompt_path` relative to the file's own directory and inlining its
// contents into AgentDefinition.PromptTemplate.
func Load(path string) (radiumtypes.AgentDefinition, error) {
	var d doc
	if _, err := toml.DecodeFile(path, &d); err != nil {
		return radiumtypes.AgentDefinition{}, fmt.Errorf("agentdef: parse %s: %w", path, err)
	}
	if d.Agent.ID == "" {
		return radiumtypes.AgentDefinition{}, fmt.Errorf("agentdef: %s: missing agent.id", path)
	}

	prompt := ""
	if d.Agent.PromptPath != "" {
		promptPath := d.Agent.PromptPath
		if !filepath.IsAbs(promptPath) {
			promptPath = filepath.Join(filepath.Dir(path), promptPath)
		}
		raw, err := os.ReadFile(promptPath)
		if err != nil {
			return radiumtypes.AgentDefinition{}, fmt.Errorf("agentdef: %s: read prompt_path: %w", path, err)
		}
		prompt = string(raw)
	}

	return radiumtypes.AgentDefinition{
		ID:                d.Agent.ID,
		Name:              d.Agent.Name,
		Description:       d.Agent.Description,
		PromptTemplate:    prompt,
		EngineID:          d.Agent.Engine,
		DefaultModel:      d.Agent.Model,
		CapabilitySet:     d.Agent.CapabilitySet,
		SandboxPolicyName: d.Agent.SandboxPolicy,
		ToolAllowList:     d.Agent.ToolAllowList,
		MaxConcurrentTask: d.Agent.MaxConcurrent,
	}, nil
}

// LoadDir scans dir for `*.toml` agent definitions and returns them keyed
// by AgentDefinition.ID, sorted file-name order for deterministic load
// diagnostics.
func LoadDir(dir string) (map[string]radiumtypes.AgentDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]radiumtypes.AgentDefinition{}, nil
		}
		return nil, fmt.Errorf("agentdef: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make(map[string]radiumtypes.AgentDefinition, len(names))
	for _, name := range names {
		def, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out[def.ID] = def
	}
	return out, nil
}

// Default returns a minimal built-in "generalist" agent used when a task
// names no assigned_agent and no agent file matches, so `run`/`complete`
// always have something to dispatch to.
func Default() radiumtypes.AgentDefinition {
	return radiumtypes.AgentDefinition{
		ID:             "generalist",
		Name:           "Generalist",
		Description:    "Fallback agent used when a task names no assigned_agent.",
		PromptTemplate: "You are an autonomous engineering agent. Complete the following task:\n\n{user_input}",
		EngineID:       "anthropic",
	}
}
