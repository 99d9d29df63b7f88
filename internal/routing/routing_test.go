package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/radiumhq/radium/internal/errtax"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

func TestClassifyTaskType(t *testing.T) {
	cases := []struct {
		input string
		want  TaskType
	}{
		{"please refactor this function", TaskCode},
		{"analyze and compare these two strategies", TaskReasoning},
		{"format this file with consistent indent", TaskFormatting},
		{"what time is it", TaskSimple},
	}
	for _, tc := range cases {
		if got := ClassifyTaskType(tc.input); got != tc.want {
			t.Errorf("ClassifyTaskType(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestComplexityScoreWeighting(t *testing.T) {
	w := DefaultComplexityWeights()
	score := NewComplexityScore(1.0, 1.0, 1.0, 1.0, w)
	if score.Score != 100 {
		t.Fatalf("all factors at 1.0 should score 100, got %v", score.Score)
	}
	zero := NewComplexityScore(0, 0, 0, 0, w)
	if zero.Score != 0 {
		t.Fatalf("all factors at 0 should score 0, got %v", zero.Score)
	}
}

func TestRouterSelectAutoPicksSmartAboveThreshold(t *testing.T) {
	r := NewRouter(Config{
		SmartModel:     ModelTarget{Provider: "anthropic", Model: "smart-model"},
		EcoModel:       ModelTarget{Provider: "anthropic", Model: "eco-model"},
		ScoreThreshold: 10, // low threshold so the code-keyword factor tips it over
	})
	req := &radiumtypes.ModelRequest{
		Messages: []radiumtypes.Message{radiumtypes.TextMessage(radiumtypes.RoleUser, "please refactor this module's architecture")},
	}
	target, decision := r.Select(context.Background(), req, TierAuto)
	if decision.Tier != TierSmart {
		t.Fatalf("expected TierSmart, got %v (score=%v)", decision.Tier, decision.Score.Score)
	}
	if target.Model != "smart-model" {
		t.Fatalf("expected smart-model, got %v", target.Model)
	}
}

func TestRouterSelectManualOverrideBypassesScoring(t *testing.T) {
	r := NewRouter(Config{
		SmartModel: ModelTarget{Provider: "anthropic", Model: "smart-model"},
		EcoModel:   ModelTarget{Provider: "anthropic", Model: "eco-model"},
	})
	req := &radiumtypes.ModelRequest{
		Messages: []radiumtypes.Message{radiumtypes.TextMessage(radiumtypes.RoleUser, "hi")},
	}
	target, decision := r.Select(context.Background(), req, TierSmart)
	if !decision.Overridden {
		t.Fatal("expected manual tier selection to be marked overridden")
	}
	if target.Model != "smart-model" {
		t.Fatalf("expected smart-model, got %v", target.Model)
	}
}

func TestFallbackChainAdvancesThenFails(t *testing.T) {
	chain := NewFallbackChain([]ModelTarget{
		{Provider: "anthropic", Model: "fallback-1"},
		{Provider: "anthropic", Model: "fallback-2"},
	})

	next, err := chain.Next("primary-model", "rate limit error")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next == nil || next.Model != "fallback-1" {
		t.Fatalf("expected fallback-1, got %+v", next)
	}

	next, err = chain.Next("fallback-1", "timeout error")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next == nil || next.Model != "fallback-2" {
		t.Fatalf("expected fallback-2, got %+v", next)
	}

	_, err = chain.Next("fallback-2", "error 3")
	if err == nil {
		t.Fatal("expected AllModelsFailed once the chain is exhausted")
	}
	var taxErr *errtax.Error
	if !errors.As(err, &taxErr) || taxErr.Kind != errtax.KindAllModelsFailed {
		t.Fatalf("expected *errtax.Error{Kind: AllModelsFailed}, got %v", err)
	}
	if len(taxErr.Failures) < 3 {
		t.Fatalf("expected failure records for every attempt, got %d", len(taxErr.Failures))
	}
}

func TestFallbackChainResetAllowsReuse(t *testing.T) {
	chain := NewFallbackChain([]ModelTarget{{Provider: "anthropic", Model: "fallback-1"}})

	if _, err := chain.Next("primary-model", "error"); err != nil {
		t.Fatalf("Next: %v", err)
	}
	chain.Reset()

	next, err := chain.Next("primary-model-2", "error 2")
	if err != nil {
		t.Fatalf("Next after reset: %v", err)
	}
	if next == nil || next.Model != "fallback-1" {
		t.Fatalf("expected fallback-1 again after reset, got %+v", next)
	}
}

func TestRouterHealthCooldown(t *testing.T) {
	r := NewRouter(Config{FailureCooldown: 0})
	if !r.IsHealthy("anthropic:smart-model") {
		t.Fatal("zero cooldown should treat every model as healthy")
	}
}
