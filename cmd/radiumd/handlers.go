package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/radiumhq/radium/internal/agentdef"
	"github.com/radiumhq/radium/internal/config"
	"github.com/radiumhq/radium/internal/engine"
	"github.com/radiumhq/radium/internal/errtax"
	"github.com/radiumhq/radium/internal/planner"
	"github.com/radiumhq/radium/internal/scheduler"
	"github.com/radiumhq/radium/internal/session"
	"github.com/radiumhq/radium/internal/telemetry"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// defaultPlanPromptTemplate is used when no planner.prompt_template_file
// is configured. It asks the model to decompose a requirement into the
// schema-constrained task graph planner.Planner validates.
const defaultPlanPromptTemplate = `Decompose the following requirement into an ordered set of ` +
	`agent-executable tasks. Each task needs a unique id, a short title, ` +
	`the ids of tasks it depends on, and the concrete input an agent would ` +
	`act on.

Requirement: {requirement_title}
Source: {requirement_source}`

func openEngine(ctx context.Context, workspaceRoot string) (*engine.Engine, error) {
	cfgPath := filepath.Join(workspaceRoot, ".radium", "config.toml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return engine.New(ctx, cfg, workspaceRoot)
}

// deriveRequirement builds a Requirement from a CLI-supplied source
// string, per spec §6: a REQ-<digits> string is used as the id verbatim,
// otherwise a short content-derived id keeps repeated `plan` invocations
// against the same source idempotent.
func deriveRequirement(source, title string) radiumtypes.Requirement {
	trimmed := strings.TrimSpace(source)
	id := trimmed
	if planner.DetectSource(trimmed) != planner.SourceReqID {
		sum := sha256.Sum256([]byte(trimmed))
		id = "REQ-" + hex.EncodeToString(sum[:])[:10]
	}
	if title == "" {
		title = trimmed
	}
	return radiumtypes.Requirement{ID: id, Title: title, Source: trimmed}
}

func planPromptTemplate(cfg *config.Config, workspaceRoot string) (string, error) {
	if cfg.Planner.PromptTemplateFile == "" {
		return defaultPlanPromptTemplate, nil
	}
	path := cfg.Planner.PromptTemplateFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(workspaceRoot, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read planner.prompt_template_file: %w", err)
	}
	return string(raw), nil
}

func planDir(workspaceRoot, requirementID string) string {
	return filepath.Join(workspaceRoot, ".radium", "plan", requirementID)
}

func dagPath(workspaceRoot, requirementID string) string {
	return filepath.Join(planDir(workspaceRoot, requirementID), "dag.json")
}

func saveDAG(workspaceRoot string, dag *radiumtypes.TaskDAG) error {
	dir := planDir(workspaceRoot, dag.RequirementID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plan dir: %w", err)
	}
	raw, err := json.MarshalIndent(dag, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task graph: %w", err)
	}
	return os.WriteFile(dagPath(workspaceRoot, dag.RequirementID), raw, 0o644)
}

func loadDAG(workspaceRoot, requirementID string) (*radiumtypes.TaskDAG, error) {
	raw, err := os.ReadFile(dagPath(workspaceRoot, requirementID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no plan found for %s, run `radiumd plan` first", requirementID)
		}
		return nil, fmt.Errorf("read task graph: %w", err)
	}
	var dag radiumtypes.TaskDAG
	if err := json.Unmarshal(raw, &dag); err != nil {
		return nil, fmt.Errorf("decode task graph: %w", err)
	}
	return &dag, nil
}

// runPlan decomposes a requirement into a TaskDAG and persists it under
// the requirement's plan directory, per spec §4.I/§6.
func runPlan(ctx context.Context, workspaceRoot, source, title string) (*radiumtypes.TaskDAG, error) {
	eng, err := openEngine(ctx, workspaceRoot)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	requirement := deriveRequirement(source, title)
	prompt, err := planPromptTemplate(eng.Config, workspaceRoot)
	if err != nil {
		return nil, err
	}

	p, err := eng.NewPlanner()
	if err != nil {
		return nil, fmt.Errorf("build planner: %w", err)
	}
	dag, err := p.Plan(ctx, requirement, prompt)
	if err != nil {
		return nil, err
	}
	if err := saveDAG(workspaceRoot, dag); err != nil {
		return nil, err
	}
	return dag, nil
}

// loadAgentDefs scans .radium/agents/ for agent definitions, always
// including the built-in generalist as a fallback target.
func loadAgentDefs(workspaceRoot string) (map[string]radiumtypes.AgentDefinition, error) {
	defs, err := agentdef.LoadDir(filepath.Join(workspaceRoot, ".radium", "agents"))
	if err != nil {
		return nil, fmt.Errorf("load agent definitions: %w", err)
	}
	fallback := agentdef.Default()
	if _, ok := defs[fallback.ID]; !ok {
		defs[fallback.ID] = fallback
	}
	return defs, nil
}

func agentForTask(defs map[string]radiumtypes.AgentDefinition, task *radiumtypes.Task) radiumtypes.AgentDefinition {
	if task.AssignedAgent != "" {
		if def, ok := defs[task.AssignedAgent]; ok {
			return def
		}
	}
	return defs[agentdef.Default().ID]
}

// runDAG drives dag to completion with one Executor per requirement,
// resuming from any persisted scheduler snapshot first.
func runDAG(ctx context.Context, eng *engine.Engine, dag *radiumtypes.TaskDAG, defs map[string]radiumtypes.AgentDefinition) (*scheduler.Report, error) {
	mem, err := session.NewMemory(eng.MemoryDirFor(dag.RequirementID))
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	executor := eng.NewExecutor(mem)

	runFunc := func(ctx context.Context, task *radiumtypes.Task) (string, error, bool) {
		agentDef := agentForTask(defs, task)
		sess := session.New(task.ID, agentDef.ID, eng.WorkspaceRoot)
		eng.Sessions.Create(sess)

		cfg := eng.ExecutorConfig("")
		result, err := executor.Execute(ctx, cfg, agentDef, task.Input, dag.RequirementID, task.ID, sess)
		if err != nil {
			return "", err, errtax.KindOf(err).Retryable()
		}
		return result.Output, nil, false
	}

	sched := scheduler.New(dag, eng.State, eng.Progress, runFunc, eng.SchedulerConfig())
	if err := sched.Resume(ctx); err != nil {
		return nil, err
	}
	report, err := sched.Run(ctx)
	if err != nil {
		return nil, err
	}
	_ = saveDAG(eng.WorkspaceRoot, dag)
	return report, nil
}

func runRun(ctx context.Context, workspaceRoot, requirementID string) (*scheduler.Report, error) {
	eng, err := openEngine(ctx, workspaceRoot)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	dag, err := loadDAG(workspaceRoot, requirementID)
	if err != nil {
		return nil, err
	}
	defs, err := loadAgentDefs(workspaceRoot)
	if err != nil {
		return nil, err
	}
	return runDAG(ctx, eng, dag, defs)
}

// runComplete plans and immediately runs a requirement in one engine
// instance, per spec §6's `complete` verb.
func runComplete(ctx context.Context, workspaceRoot, source, title string) (*scheduler.Report, error) {
	eng, err := openEngine(ctx, workspaceRoot)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	requirement := deriveRequirement(source, title)
	prompt, err := planPromptTemplate(eng.Config, workspaceRoot)
	if err != nil {
		return nil, err
	}
	p, err := eng.NewPlanner()
	if err != nil {
		return nil, fmt.Errorf("build planner: %w", err)
	}
	dag, err := p.Plan(ctx, requirement, prompt)
	if err != nil {
		return nil, err
	}
	if err := saveDAG(workspaceRoot, dag); err != nil {
		return nil, err
	}

	defs, err := loadAgentDefs(workspaceRoot)
	if err != nil {
		return nil, err
	}
	return runDAG(ctx, eng, dag, defs)
}

type statusLine struct {
	RequirementID string
	Completed     int
	Failed        int
	Blocked       int
	Pending       int
}

// runStatus reports on resumable requirements by combining the
// statestore's per-requirement snapshots with the telemetry store's
// cost/usage totals.
func runStatus(ctx context.Context, workspaceRoot, requirementID string) ([]statusLine, *telemetry.Summary, error) {
	eng, err := openEngine(ctx, workspaceRoot)
	if err != nil {
		return nil, nil, err
	}
	defer eng.Close()

	ids, err := eng.State.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list execution state: %w", err)
	}
	if requirementID != "" {
		filtered := ids[:0]
		for _, id := range ids {
			if id == requirementID {
				filtered = append(filtered, id)
			}
		}
		ids = filtered
	}
	sort.Strings(ids)

	lines := make([]statusLine, 0, len(ids))
	for _, id := range ids {
		state, err := eng.State.Load(ctx, id)
		if err != nil || state == nil {
			continue
		}
		line := statusLine{RequirementID: id, Completed: len(state.CompletedTaskIDs), Failed: len(state.FailedTaskIDs)}
		if dag, err := loadDAG(workspaceRoot, id); err == nil {
			for _, t := range dag.Tasks {
				switch t.Status {
				case radiumtypes.TaskBlocked:
					line.Blocked++
				case radiumtypes.TaskPending, radiumtypes.TaskRunning:
					line.Pending++
				}
			}
		}
		lines = append(lines, line)
	}

	records, err := eng.Telemetry.Query(ctx, telemetry.Filter{})
	if err != nil {
		return lines, nil, fmt.Errorf("query telemetry: %w", err)
	}
	summary := telemetry.Summarize(records, func(model string) (string, bool) {
		return model, model == eng.Config.Routing.SmartModel
	})
	return lines, &summary, nil
}

// runClean removes the engine-managed internals directory (scheduler
// snapshots, telemetry DB, agent memory) so a workspace can start fresh.
// Plan output under .radium/plan is left in place unless wipePlans is set.
func runClean(workspaceRoot string, wipePlans bool) error {
	internals := filepath.Join(workspaceRoot, ".radium", "_internals")
	if err := os.RemoveAll(internals); err != nil {
		return fmt.Errorf("remove %s: %w", internals, err)
	}
	if wipePlans {
		plans := filepath.Join(workspaceRoot, ".radium", "plan")
		if err := os.RemoveAll(plans); err != nil {
			return fmt.Errorf("remove %s: %w", plans, err)
		}
	}
	return nil
}

type doctorReport struct {
	ConfigPath      string
	ConfigOK        bool
	ConfigErr       string
	SandboxKind     string
	SandboxWarning  string
	ProvidersOK     []string
	ProvidersMissed []string
	PolicyConflicts int
}

// runDoctor sanity-checks config, sandbox availability, provider
// credentials, and policy-rule conflicts, per spec §6's `doctor` verb.
func runDoctor(ctx context.Context, workspaceRoot string) (*doctorReport, error) {
	report := &doctorReport{ConfigPath: filepath.Join(workspaceRoot, ".radium", "config.toml")}

	cfg, err := config.Load(report.ConfigPath)
	if err != nil {
		report.ConfigErr = err.Error()
		return report, nil
	}
	report.ConfigOK = true

	eng, err := engine.New(ctx, cfg, workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	defer eng.Close()

	report.SandboxKind = string(eng.SandboxKind)

	for name := range cfg.Providers {
		if eng.APIKeyFor(name) != "" {
			report.ProvidersOK = append(report.ProvidersOK, name)
		} else {
			report.ProvidersMissed = append(report.ProvidersMissed, name)
		}
	}
	sort.Strings(report.ProvidersOK)
	sort.Strings(report.ProvidersMissed)

	report.PolicyConflicts = len(eng.Gate.Conflicts())
	return report, nil
}

func formatReport(r *scheduler.Report) string {
	status := "ok"
	if !r.Success {
		status = "incomplete"
	}
	return fmt.Sprintf("%s: %d/%d completed, %d failed, %d blocked (%s)",
		status, r.Completed, r.Total, r.Failed, r.Blocked, r.Duration.Round(time.Millisecond))
}
