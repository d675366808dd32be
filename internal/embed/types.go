// Package embed produces fixed-dimension, L2-normalized vectors from text
// using either a bundled hash-based model or an external HTTP embedding
// server, with a serialized isolate guarding concurrent access per model.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size (prevents memory exhaustion).
	MaxBatchSize = 256

	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// DefaultTimeout is the default timeout for HTTP embedding requests.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout is the timeout for the initial server health check.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 3
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts; result length
	// always equals input length.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension, readable before first call.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// MaxTokens returns the model's technical max context, in tokens.
	MaxTokens() int

	// Close releases resources. Idempotent.
	Close() error
}

// normalizeVector L2-normalizes a vector to unit length. The storage layer
// assumes dot product between stored vectors equals cosine similarity, so
// every embedder must return normalized output.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
