// Package provideradapter implements §4.A of the execution core: a uniform
// request/response surface over multiple AI backends, with streaming,
// structured outputs, and usage accounting.
package provideradapter

import (
	"context"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// ModelType tags a provider family for cache keys and routing.
type ModelType string

const (
	ModelTypeAnthropic ModelType = "anthropic"
	ModelTypeOpenAI    ModelType = "openai"
	ModelTypeGemini    ModelType = "gemini"
	ModelTypeBedrock   ModelType = "bedrock"
	ModelTypeLocal     ModelType = "local"
	ModelTypeMock      ModelType = "mock"
)

// Provider is the uniform surface every AI backend variant implements.
//
// Implementations must be safe for concurrent use: the Model Cache (§4.B)
// hands out a single Provider instance to many concurrent Agent Executors.
type Provider interface {
	// Generate sends req and returns a complete ModelResponse.
	Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error)

	// GenerateStream returns a lazy, finite, non-restartable sequence of
	// tokens. Cancelling ctx must terminate the upstream connection within
	// one network round-trip.
	GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error)

	// ModelType identifies the backend family, used by the Model Cache key.
	ModelType() ModelType

	// ModelID returns the concrete model identifier this instance targets.
	ModelID() string
}
