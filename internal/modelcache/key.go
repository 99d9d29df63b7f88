package modelcache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/radiumhq/radium/internal/provideradapter"
)

// Key identifies a cached provider instance by provider family, model name,
// and a hash of the API key — models authenticated with different keys are
// never shared across cache entries.
type Key struct {
	Provider  provideradapter.ModelType
	ModelName string
	APIKeyHash string
}

// NewKey hashes apiKey with SHA-256 so the raw secret never appears in a
// cache key, log line, or telemetry row.
func NewKey(provider provideradapter.ModelType, modelName, apiKey string) Key {
	hash := "no-key"
	if apiKey != "" {
		sum := sha256.Sum256([]byte(apiKey))
		hash = hex.EncodeToString(sum[:])
	}
	return Key{Provider: provider, ModelName: modelName, APIKeyHash: hash}
}
