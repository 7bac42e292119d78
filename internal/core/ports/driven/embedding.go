// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// A single instance is constructed at startup and injected into every
// service that embeds text, so chunks and queries share one model.
//
// Implementations may include:
//   - OpenAI (text-embedding-ada-002, text-embedding-3-small)
//   - Gemini (text-embedding-004)
//   - Ollama (nomic-embed-text)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one vector per text, in input order.
	// The caller bounds len(texts) by the provider batch limit.
	EmbedBatch(ctx context.Context, texts []string) (*EmbeddingBatch, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingBatch is the provider response for a batch of texts.
type EmbeddingBatch struct {
	// Vectors holds one vector per input text, in input order.
	Vectors [][]float32

	// TotalTokens is the aggregate token usage reported by the provider.
	TotalTokens int
}

// QueryCache caches query embeddings keyed by model and text.
type QueryCache interface {
	// Get returns a cached vector. The bool is false on a miss.
	Get(ctx context.Context, model, text string) ([]float32, bool, error)

	// Set stores a vector.
	Set(ctx context.Context, model, text string, vector []float32) error
}
