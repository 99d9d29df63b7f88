package routing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/radiumhq/radium/internal/provideradapter"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// Decision records why a model was chosen, surfaced to telemetry.
type Decision struct {
	Tier       Tier
	Score      ComplexityScore
	TaskType   TaskType
	Model      string
	Provider   string
	Overridden bool
}

// Config configures a Router.
type Config struct {
	SmartModel      ModelTarget
	EcoModel        ModelTarget
	// ScoreThreshold is the ComplexityScore above which TierAuto selects
	// SmartModel instead of EcoModel.
	ScoreThreshold  float64
	Weights         ComplexityWeights
	Fallback        *FallbackChain
	FailureCooldown time.Duration
}

// Router selects a (provider, model) pair per request, classifies
// complexity for Auto-tier decisions, and tracks per-model cooldowns so a
// recently-failed model is skipped until the cooldown elapses.
type Router struct {
	cfg Config

	healthMu  sync.Mutex
	unhealthy map[string]time.Time
}

// NewRouter validates cfg and returns a ready Router.
func NewRouter(cfg Config) *Router {
	if cfg.ScoreThreshold == 0 {
		cfg.ScoreThreshold = 60.0
	}
	if (cfg.Weights == ComplexityWeights{}) {
		cfg.Weights = DefaultComplexityWeights()
	}
	return &Router{cfg: cfg, unhealthy: make(map[string]time.Time)}
}

// Select scores req (when tier is TierAuto) and returns the chosen model
// target plus the decision explaining why.
func (r *Router) Select(ctx context.Context, req *radiumtypes.ModelRequest, tier Tier) (ModelTarget, Decision) {
	input := lastUserText(req)
	taskType := ClassifyTaskType(input)

	if tier == "" {
		tier = TierAuto
	}
	if tier != TierAuto {
		target := r.cfg.EcoModel
		if tier == TierSmart {
			target = r.cfg.SmartModel
		}
		return target, Decision{Tier: tier, TaskType: taskType, Model: target.Model, Provider: target.Provider, Overridden: true}
	}

	score := NewComplexityScore(
		TokenCountFactor(estimateTokens(req)),
		taskType.ComplexityFactor(),
		ReasoningFactor(req.ReasoningEffort == radiumtypes.ReasoningHigh, req.ReasoningEffort == radiumtypes.ReasoningMedium),
		ContextFactor(len(req.Messages)),
		r.cfg.Weights,
	)

	target := r.cfg.EcoModel
	chosenTier := TierEco
	if score.Score >= r.cfg.ScoreThreshold {
		target = r.cfg.SmartModel
		chosenTier = TierSmart
	}
	return target, Decision{Tier: chosenTier, Score: score, TaskType: taskType, Model: target.Model, Provider: target.Provider}
}

// NextFallback advances the configured fallback chain after failedModel
// fails for reason, per §4.C/§4.O. A nil chain returns (nil, nil).
func (r *Router) NextFallback(failedModel, reason string) (*ModelTarget, error) {
	r.markUnhealthy(failedModel)
	if r.cfg.Fallback == nil {
		return nil, nil
	}
	return r.cfg.Fallback.Next(failedModel, reason)
}

// ResetFallbackState clears the fallback chain's position, e.g. between
// independent task executions.
func (r *Router) ResetFallbackState() {
	if r.cfg.Fallback != nil {
		r.cfg.Fallback.Reset()
	}
}

// IsHealthy reports whether name is outside its failure cooldown window.
func (r *Router) IsHealthy(name string) bool {
	if r.cfg.FailureCooldown <= 0 {
		return true
	}
	name = normalizeID(name)
	if name == "" {
		return true
	}
	r.healthMu.Lock()
	defer r.healthMu.Unlock()
	until, ok := r.unhealthy[name]
	if !ok {
		return true
	}
	if time.Now().After(until) {
		delete(r.unhealthy, name)
		return true
	}
	return false
}

func (r *Router) markUnhealthy(name string) {
	if r.cfg.FailureCooldown <= 0 {
		return
	}
	name = normalizeID(name)
	if name == "" {
		return
	}
	r.healthMu.Lock()
	r.unhealthy[name] = time.Now().Add(r.cfg.FailureCooldown)
	r.healthMu.Unlock()
}

func normalizeID(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func lastUserText(req *radiumtypes.ModelRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == radiumtypes.RoleUser {
			return req.Messages[i].Text()
		}
	}
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Text()
}

func estimateTokens(req *radiumtypes.ModelRequest) int {
	n := 0
	for _, m := range req.Messages {
		n += len(strings.Fields(m.Text())) * 4 / 3
	}
	return n
}

// ClassifyModelType maps a ModelTarget's provider string to a
// provideradapter.ModelType, used when the router hands a decision to the
// model cache factory.
func ClassifyModelType(provider string) provideradapter.ModelType {
	return provideradapter.ModelType(normalizeID(provider))
}
