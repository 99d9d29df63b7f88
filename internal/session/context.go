package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/radiumhq/radium/internal/privacy"
)

// ContextFileName is the well-known context file discovered while walking
// from the invocation directory up to the workspace root.
const ContextFileName = "RADIUM.md"

// importPattern matches an `@path` import reference within a context file,
// e.g. "@./shared/conventions.md". No teacher file implements this exact
// mechanism (Nexus has no hierarchical prompt-context system); this is
// built fresh from spec §4.G's description, using the teacher's own
// regexp-based text-scanning idiom (observability.Logger's redaction
// patterns) for the parsing style.
var importPattern = regexp.MustCompile(`(?m)^@([^\s]+)\s*$`)

// ContextMetrics reports what context assembly did, surfaced to callers
// that want to display privacy-redaction counts or cache behavior.
type ContextMetrics struct {
	FilesRead      int
	ImportsResolved int
	RedactionCount int
	CacheHit       bool
}

// Assembler builds prompt context per spec §4.G: hierarchical context
// files (nearer scopes override by appending later), their @path imports
// resolved recursively with cycle-break on re-visit, then memory tails for
// named predecessor agents.
type Assembler struct {
	WorkspaceRoot string
	Memory        *Memory
	Privacy       *privacy.Filter // nil disables redaction

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	text    string
	mtimes  map[string]int64 // path -> unix nanos, for invalidation
	metrics ContextMetrics
}

// NewAssembler returns an Assembler rooted at workspaceRoot.
func NewAssembler(workspaceRoot string, mem *Memory, filter *privacy.Filter) *Assembler {
	return &Assembler{
		WorkspaceRoot: workspaceRoot,
		Memory:        mem,
		Privacy:       filter,
		cache:         make(map[string]cacheEntry),
	}
}

// Assemble builds the context string for invocationDir, including the
// memory tails of predecessorAgents, applying privacy redaction when a
// Filter is configured.
func (a *Assembler) Assemble(invocationDir string, predecessorAgents []string) (string, ContextMetrics, error) {
	cacheKey := invocationDir + "|" + strings.Join(predecessorAgents, ",")

	a.mu.Lock()
	if entry, ok := a.cache[cacheKey]; ok && !a.invalidated(entry) {
		a.mu.Unlock()
		metrics := entry.metrics
		metrics.CacheHit = true
		return entry.text, metrics, nil
	}
	a.mu.Unlock()

	files, err := a.discoverContextFiles(invocationDir)
	if err != nil {
		return "", ContextMetrics{}, err
	}

	var b strings.Builder
	metrics := ContextMetrics{}
	mtimes := make(map[string]int64)
	visited := make(map[string]bool)

	for _, f := range files {
		text, err := a.readResolved(f, visited, &metrics, mtimes)
		if err != nil {
			return "", ContextMetrics{}, err
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	for _, agentID := range predecessorAgents {
		if a.Memory == nil {
			continue
		}
		tail, err := a.Memory.Tail(agentID)
		if err != nil {
			return "", ContextMetrics{}, err
		}
		if tail != "" {
			fmt.Fprintf(&b, "\n--- memory: %s ---\n%s\n", agentID, tail)
		}
	}

	result := b.String()
	if a.Privacy != nil {
		redacted, count := a.Privacy.Redact(result)
		result = redacted
		metrics.RedactionCount = count
	}

	a.mu.Lock()
	a.cache[cacheKey] = cacheEntry{text: result, mtimes: mtimes, metrics: metrics}
	a.mu.Unlock()

	return result, metrics, nil
}

// invalidated reports whether any file the cached entry read has a newer
// mtime now, per spec §4.G: "cached with an entry invalidated when any
// contributing file's mtime changes."
func (a *Assembler) invalidated(entry cacheEntry) bool {
	for path, cached := range entry.mtimes {
		info, err := os.Stat(path)
		if err != nil {
			return true
		}
		if info.ModTime().UnixNano() != cached {
			return true
		}
	}
	return false
}

// discoverContextFiles walks from invocationDir up to WorkspaceRoot,
// collecting every ContextFileName found, ordered so nearer scopes
// (closer to invocationDir) come last and therefore override by appending.
func (a *Assembler) discoverContextFiles(invocationDir string) ([]string, error) {
	var found []string
	dir := invocationDir
	root := filepath.Clean(a.WorkspaceRoot)
	for {
		candidate := filepath.Join(dir, ContextFileName)
		if _, err := os.Stat(candidate); err == nil {
			found = append([]string{candidate}, found...) // prepend: root-most first
		}
		if filepath.Clean(dir) == root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return found, nil
}

// readResolved reads path, recursively resolving @path imports, breaking
// cycles on re-visit.
func (a *Assembler) readResolved(path string, visited map[string]bool, metrics *ContextMetrics, mtimes map[string]int64) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if visited[abs] {
		return "", nil // cycle-break: already included
	}
	visited[abs] = true

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("context: stat %s: %w", abs, err)
	}
	mtimes[abs] = info.ModTime().UnixNano()

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("context: read %s: %w", abs, err)
	}
	metrics.FilesRead++

	text := string(data)
	baseDir := filepath.Dir(abs)

	var b strings.Builder
	last := 0
	for _, m := range importPattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:m[0]])
		importPath := text[m[2]:m[3]]
		resolved := filepath.Join(baseDir, importPath)
		imported, err := a.readResolved(resolved, visited, metrics, mtimes)
		if err != nil {
			return "", err
		}
		if imported != "" {
			metrics.ImportsResolved++
		}
		b.WriteString(imported)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
