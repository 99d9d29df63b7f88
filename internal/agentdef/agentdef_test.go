package agentdef

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadResolvesPromptPathRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "prompt.md"), "You are a reviewer.")
	writeFile(t, filepath.Join(dir, "reviewer.toml"), `
[agent]
id = "reviewer"
name = "Reviewer"
prompt_path = "prompt.md"
engine = "anthropic"
model = "claude-opus"
tool_allow_list = ["read_file", "git_diff"]
max_concurrent_tasks = 2
`)

	def, err := Load(filepath.Join(dir, "reviewer.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if def.ID != "reviewer" || def.EngineID != "anthropic" || def.DefaultModel != "claude-opus" {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if def.PromptTemplate != "You are a reviewer." {
		t.Fatalf("expected inlined prompt, got %q", def.PromptTemplate)
	}
	if len(def.ToolAllowList) != 2 || def.MaxConcurrentTask != 2 {
		t.Fatalf("unexpected tool allow list/max concurrent: %+v", def)
	}
}

func TestLoadMissingAgentIDFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	writeFile(t, path, `
[agent]
name = "No ID"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a definition missing agent.id")
	}
}

func TestLoadMissingPromptPathFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	writeFile(t, path, `
[agent]
id = "broken"
prompt_path = "missing.md"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a missing prompt_path target")
	}
}

func TestLoadDirReturnsEmptyMapForMissingDirectory(t *testing.T) {
	defs, err := LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("expected an empty map, got %+v", defs)
	}
}

func TestLoadDirKeysDefinitionsByID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.toml"), `
[agent]
id = "alpha"
`)
	writeFile(t, filepath.Join(dir, "b.toml"), `
[agent]
id = "beta"
`)
	writeFile(t, filepath.Join(dir, "ignored.txt"), "not an agent file")

	defs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d: %+v", len(defs), defs)
	}
	if _, ok := defs["alpha"]; !ok {
		t.Error("expected alpha to be loaded")
	}
	if _, ok := defs["beta"]; !ok {
		t.Error("expected beta to be loaded")
	}
}

func TestDefaultReturnsGeneralistFallback(t *testing.T) {
	def := Default()
	if def.ID != "generalist" || def.PromptTemplate == "" {
		t.Fatalf("expected a usable generalist fallback, got %+v", def)
	}
}
