package hooks

import (
	"context"
	"log/slog"
)

// AuditHook is a single concrete implementation registered under several
// phases at once (BeforeModel/AfterModel/BeforeTool/AfterTool), matching
// the "adapters allow a single concrete implementation to serve multiple
// phases" contract in spec §4.F. It only logs; it never halts a chain.
type AuditHook struct {
	Name   string
	Logger *slog.Logger
}

// NewAuditHook builds an AuditHook and returns the four Hook registrations
// that adapt it onto the model/tool phases. Callers pass each to
// Registry.Register.
func NewAuditHook(name string, logger *slog.Logger) []*Hook {
	a := &AuditHook{Name: name, Logger: logger}
	return []*Hook{
		{Name: name, Phase: PhaseBeforeModel, Priority: 0, Run: a.logPhase},
		{Name: name, Phase: PhaseAfterModel, Priority: 0, Run: a.logPhase},
		{Name: name, Phase: PhaseBeforeTool, Priority: 0, Run: a.logPhase},
		{Name: name, Phase: PhaseAfterTool, Priority: 0, Run: a.logPhase},
	}
}

func (a *AuditHook) logPhase(ctx context.Context, data *Data) Result {
	a.Logger.Info("hook audit",
		"hook", a.Name,
		"phase", data.Phase,
		"requirement_id", data.RequirementID,
		"task_id", data.TaskID,
		"agent_id", data.AgentID,
	)
	return Continue()
}
