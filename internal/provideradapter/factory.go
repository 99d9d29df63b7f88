package provideradapter

import (
	"context"

	"github.com/radiumhq/radium/internal/errtax"
)

// Credentials carries the secrets and endpoints needed to construct any
// Provider variant. The Model Cache holds one Credentials value per
// CacheKey and never logs it.
type Credentials struct {
	APIKey         string
	BaseURL        string
	AWSRegion      string
	CheckpointPath string
}

// New constructs a Provider for modelType/model using creds, matching the
// variant list in spec §4.A. Unknown model types fail with
// UnsupportedModelProvider so the router can try the next fallback entry.
func New(ctx context.Context, modelType ModelType, model string, creds Credentials) (Provider, error) {
	switch modelType {
	case ModelTypeAnthropic:
		return NewAnthropicProvider(AnthropicConfig{APIKey: creds.APIKey, Model: model, BaseURL: creds.BaseURL})
	case ModelTypeOpenAI:
		return NewOpenAIProvider(OpenAIConfig{APIKey: creds.APIKey, Model: model, BaseURL: creds.BaseURL})
	case ModelTypeGemini:
		return NewGeminiProvider(ctx, GeminiConfig{APIKey: creds.APIKey, Model: model})
	case ModelTypeBedrock:
		return NewBedrockProvider(ctx, BedrockConfig{Region: creds.AWSRegion, Model: model})
	case ModelTypeLocal:
		return NewLocalProvider(LocalConfig{CheckpointPath: creds.CheckpointPath, Model: model})
	case ModelTypeMock:
		return NewMockProvider(model), nil
	default:
		return nil, errtax.UnsupportedModelProvider(string(modelType))
	}
}
