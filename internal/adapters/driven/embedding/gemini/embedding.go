// Package gemini provides an embedding service adapter using the Google
// Generative AI API.
package gemini

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultModel is the default Gemini embedding model.
const DefaultModel = "text-embedding-004"

// MaxBatch is the largest batch BatchEmbedContents accepts.
const MaxBatch = 100

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: text-embedding-004).
	Model string
}

// EmbeddingService generates embeddings with Gemini.
// The client is created lazily on first use.
type EmbeddingService struct {
	apiKey     string
	model      string
	dimensions int

	mu     sync.Mutex
	client *genai.Client
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	dimensions, ok := domain.EmbeddingDimensions()[cfg.Model]
	if !ok {
		dimensions = 768
	}
	return &EmbeddingService{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.EmbeddingModel(s.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini: embed: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds texts with BatchEmbedContents, splitting at MaxBatch.
// Gemini does not report token usage for embeddings, so TotalTokens is 0.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) (*driven.EmbeddingBatch, error) {
	out := &driven.EmbeddingBatch{Vectors: make([][]float32, 0, len(texts))}
	if len(texts) == 0 {
		return out, nil
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}
	model := client.EmbeddingModel(s.model)

	for start := 0; start < len(texts); start += MaxBatch {
		end := min(start+MaxBatch, len(texts))

		batch := model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini: batch embed: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini: got %d embeddings for %d texts", len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			if e == nil {
				out.Vectors = append(out.Vectors, nil)
				continue
			}
			out.Vectors = append(out.Vectors, e.Values)
		}
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches the model description, which validates the API key.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}
	if _, err := client.EmbeddingModel(s.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *EmbeddingService) getClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: create client: %w", domain.ErrEmbeddingProviderUnavailable, err)
	}
	s.client = client
	return client, nil
}
