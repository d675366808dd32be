package embed

import (
	"context"
	"fmt"
)

// ProviderType selects which embedding backend a silo uses.
type ProviderType string

const (
	// ProviderStatic uses a bundled hash-based model — no network, no
	// external process, works offline.
	ProviderStatic ProviderType = "static"

	// ProviderHTTP uses an externally-served embedding model.
	ProviderHTTP ProviderType = "http"
)

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{string(ProviderStatic), string(ProviderHTTP)}
}

// IsValidProvider reports whether s names a known provider.
func IsValidProvider(s string) bool {
	for _, p := range ValidProviders() {
		if s == p {
			return true
		}
	}
	return false
}

// ParseProvider converts a string to a ProviderType, defaulting to static
// (the only provider guaranteed to work without external setup).
func ParseProvider(s string) ProviderType {
	switch s {
	case string(ProviderHTTP):
		return ProviderHTTP
	default:
		return ProviderStatic
	}
}

// EmbedderFactory builds embedders for a silo's configured model, caching query
// embeddings and serializing bundled-model access through one isolate
// manager shared across every silo in the process.
type EmbedderFactory struct {
	registry *Registry
	isolates *IsolateManager
}

// NewEmbedderFactory creates a factory backed by the default model registry.
func NewEmbedderFactory() *EmbedderFactory {
	return &EmbedderFactory{registry: DefaultRegistry(), isolates: NewIsolateManager()}
}

// New builds an Embedder for modelID, wrapped with a query-embedding cache.
// Static models are registry entries; anything else is treated as an
// externally HTTP-served model name, with cfg supplying the server host.
func (f *EmbedderFactory) New(ctx context.Context, modelID string, cfg HTTPEmbedConfig) (Embedder, error) {
	if model, ok := f.registry.Get(modelID); ok && model.Bundled {
		isolated := f.isolates.Acquire(model.ID, model.Dimensions, model.MaxTokens, func(context.Context) (Embedder, error) {
			return NewStaticEmbedder(model), nil
		})
		return NewCachedEmbedderWithDefaults(isolated), nil
	}

	cfg.Model = modelID
	if model, ok := f.registry.Get(modelID); ok {
		cfg.Dimensions = model.Dimensions
	}

	embedder, err := NewHTTPEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding server unavailable: %w\n\nstart the server or switch to a bundled static model", err)
	}
	return NewCachedEmbedderWithDefaults(embedder), nil
}

// Registry exposes the factory's model registry for callers building a
// silo-creation UI or validating a configured model ID.
func (f *EmbedderFactory) Registry() *Registry { return f.registry }
