package routing

import (
	"sync"

	"github.com/radiumhq/radium/internal/errtax"
)

// ModelTarget names one entry in a FallbackChain.
type ModelTarget struct {
	Provider string
	Model    string
}

// FallbackChain is an ordered list of models to try after a primary model
// fails, with an optional per-model retry budget.
type FallbackChain struct {
	Models             []ModelTarget
	MaxRetriesPerModel int

	mu       sync.Mutex
	position int
	failures []errtax.ModelFailure
}

// NewFallbackChain builds a chain with a single retry per model.
func NewFallbackChain(models []ModelTarget) *FallbackChain {
	return NewFallbackChainWithRetries(models, 1)
}

// NewFallbackChainWithRetries builds a chain allowing maxRetries attempts
// per model before advancing.
func NewFallbackChainWithRetries(models []ModelTarget, maxRetries int) *FallbackChain {
	return &FallbackChain{Models: models, MaxRetriesPerModel: maxRetries}
}

func (c *FallbackChain) Len() int      { return len(c.Models) }
func (c *FallbackChain) IsEmpty() bool { return len(c.Models) == 0 }

// Next advances the chain on a failed attempt and returns the next model to
// try. It returns (nil, nil) when the chain is empty (no fallback
// configured — caller surfaces the original error), and an
// AllModelsFailed *errtax.Error once every entry has been attempted.
func (c *FallbackChain) Next(failedModel, reason string) (*ModelTarget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Models) == 0 {
		return nil, nil
	}
	c.failures = append(c.failures, errtax.ModelFailure{Provider: failedModel, Err: failureErr(reason)})
	if c.position >= len(c.Models) {
		return nil, errtax.AllModelsFailed(append([]errtax.ModelFailure(nil), c.failures...))
	}
	next := c.Models[c.position]
	c.position++
	return &next, nil
}

// Reset clears fallback position and recorded failures, e.g. between
// independent requirement runs.
func (c *FallbackChain) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = 0
	c.failures = nil
}

type failureError string

func (e failureError) Error() string { return string(e) }

func failureErr(reason string) error {
	if reason == "" {
		return nil
	}
	return failureError(reason)
}
