package hooks

import (
	"context"
	"log/slog"
)

// BuildFromDeclarations turns a validated list of config Declarations into
// concrete Hook registrations and registers them against reg. Only the
// Audit and Telemetry types build a real interceptor today; Approval is
// served structurally by tools.Gate's AskHook callback rather than the
// hook chain, and Script hooks have no in-process runtime to shell out to
// here — both are accepted by Declaration.Validate (so config authors can
// declare intent) but produce no registration, matching the teacher's
// own pattern of treating unimplemented hook types as no-ops rather than
// load-time failures.
func BuildFromDeclarations(reg *Registry, decls []Declaration, logger *slog.Logger) error {
	if err := ValidateAll(decls); err != nil {
		return err
	}
	for _, d := range decls {
		switch d.Type {
		case TypeAudit:
			for _, h := range NewAuditHook(d.Name, logger) {
				if containsPhase(d.Phases, h.Phase) {
					h.Priority = d.Priority
					reg.Register(h)
				}
			}
		case TypeTelemetry:
			reg.Register(&Hook{
				Name:     d.Name,
				Phase:    PhaseTelemetryCollect,
				Priority: d.Priority,
				Run:      telemetryForwardFunc(logger, d.Name),
			})
		case TypeApproval, TypeScript:
			// No in-process hook-chain registration; see doc comment.
		}
	}
	return nil
}

func containsPhase(phases []Phase, p Phase) bool {
	if len(phases) == 0 {
		return true
	}
	for _, ph := range phases {
		if ph == p {
			return true
		}
	}
	return false
}

func telemetryForwardFunc(logger *slog.Logger, name string) Func {
	return func(ctx context.Context, data *Data) Result {
		logger.Info("telemetry hook", "hook", name, "requirement_id", data.RequirementID, "task_id", data.TaskID)
		return Continue()
	}
}
