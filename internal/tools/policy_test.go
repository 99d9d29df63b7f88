package tools

import "testing"

func TestGateDefaultAllowsEverything(t *testing.T) {
	g := NewGate()
	res := g.Evaluate("run_terminal_cmd", CategoryTerminal)
	if res.Decision != Allow {
		t.Fatalf("expected Allow with no rules, got %v", res.Decision)
	}
}

func TestGateBandPriorityOverridesLowerBand(t *testing.T) {
	g := NewGate()
	g.AddRule(Rule{Band: BandUser, ToolName: "run_terminal_cmd", Decision: Allow})
	g.AddRule(Rule{Band: BandSystem, ToolName: "run_terminal_cmd", Decision: Deny, Reason: "org lockdown"})

	res := g.Evaluate("run_terminal_cmd", CategoryTerminal)
	if res.Decision != Deny {
		t.Fatalf("expected System band Deny to win over User band Allow, got %v", res.Decision)
	}
	if res.Band != BandSystem {
		t.Fatalf("expected winning band System, got %v", res.Band)
	}
}

func TestGateSameBandDenyBeatsAskBeatsAllow(t *testing.T) {
	g := NewGate()
	g.AddRule(Rule{Band: BandOrg, ToolName: "run_terminal_cmd", Decision: Allow})
	g.AddRule(Rule{Band: BandOrg, ToolName: "run_terminal_cmd", Decision: Ask})
	g.AddRule(Rule{Band: BandOrg, ToolName: "run_terminal_cmd", Decision: Deny})

	res := g.Evaluate("run_terminal_cmd", CategoryTerminal)
	if res.Decision != Deny {
		t.Fatalf("expected Deny to win within the same band, got %v", res.Decision)
	}
}

func TestGateAskHookCanResolveToAllow(t *testing.T) {
	g := NewGate()
	g.AddRule(Rule{Band: BandUser, ToolName: "run_terminal_cmd", Decision: Ask})
	g.AskHook = func(toolName string, category Category) Decision { return Allow }

	res := g.Evaluate("run_terminal_cmd", CategoryTerminal)
	if res.Decision != Allow {
		t.Fatalf("expected AskHook to resolve to Allow, got %v", res.Decision)
	}
	if res.NeedsAsk {
		t.Fatal("NeedsAsk should be cleared once AskHook resolves the decision")
	}
}

func TestGateAskWithoutHookStaysAsk(t *testing.T) {
	g := NewGate()
	g.AddRule(Rule{Band: BandUser, ToolName: "run_terminal_cmd", Decision: Ask})

	res := g.Evaluate("run_terminal_cmd", CategoryTerminal)
	if res.Decision != Ask || !res.NeedsAsk {
		t.Fatalf("expected unresolved Ask, got decision=%v needsAsk=%v", res.Decision, res.NeedsAsk)
	}
}

func TestGateCategoryRuleMatchesAnyToolInCategory(t *testing.T) {
	g := NewGate()
	g.AddRule(Rule{Band: BandSystem, Category: CategoryTerminal, Decision: Deny})

	res := g.Evaluate("run_any_terminal_tool", CategoryTerminal)
	if res.Decision != Deny {
		t.Fatalf("expected category-wide Deny, got %v", res.Decision)
	}
}

func TestGateConflictsDetectsDisagreement(t *testing.T) {
	g := NewGate()
	g.AddRule(Rule{Band: BandOrg, ToolName: "run_terminal_cmd", Decision: Allow})
	g.AddRule(Rule{Band: BandUser, ToolName: "run_terminal_cmd", Decision: Deny})

	conflicts := g.Conflicts()
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
}

func TestGateNoConflictWhenRulesAgree(t *testing.T) {
	g := NewGate()
	g.AddRule(Rule{Band: BandOrg, ToolName: "run_terminal_cmd", Decision: Deny})
	g.AddRule(Rule{Band: BandUser, ToolName: "run_terminal_cmd", Decision: Deny})

	if conflicts := g.Conflicts(); len(conflicts) != 0 {
		t.Fatalf("expected no conflicts when rules agree, got %d", len(conflicts))
	}
}
