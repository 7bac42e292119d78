// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/embedding/openai"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/embedding/resilient"
	geminiextract "github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/extraction/gemini"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	Extractor        *geminiextract.Extractor
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if the pipeline stops at chunked.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.Extractor != nil {
		r.Extractor.Close()
	}
}

// AssistedExtractor returns the extractor as a port value, or nil.
// A nil *Extractor must not be stored in the interface.
func (r *InitResult) AssistedExtractor() driven.AssistedExtractor {
	if r.Extractor == nil {
		return nil
	}
	return r.Extractor
}

// Init creates the configured AI services. Services that cannot be created
// are skipped with a warning so the pipeline still extracts and chunks.
// Connectivity is only checked when validate is true.
func Init(settings *domain.AppSettings, prompts driven.PromptStore, validate bool) *InitResult {
	result := &InitResult{}

	create := CreateEmbeddingService
	if validate {
		create = CreateAndValidateEmbeddingService
	}
	svc, err := create(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	case svc == nil:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("embedding provider %q is not configured; documents will stop at chunked", settings.Embedding.Provider))
		result.FellBack = true
	default:
		result.EmbeddingService = svc
	}

	extractor, err := CreateAssistedExtractor(&settings.Extraction)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("AI-assisted extraction disabled: %v", err))
	} else if extractor != nil {
		if prompts != nil {
			extractor.SetPromptStore(prompts)
		}
		result.Extractor = extractor
	}

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'aipilot settings set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check embedding settings with 'aipilot settings show'",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateExtractionConfig checks that the extraction model is reachable.
// An unset API key means assisted extraction is off, which is valid.
func ValidateExtractionConfig(settings *domain.ExtractionSettings) error {
	extractor, err := CreateAssistedExtractor(settings)
	if err != nil || extractor == nil {
		return err
	}
	defer extractor.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return extractor.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for settings,
// wrapped with rate limiting and a circuit breaker.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)

	case domain.AIProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)

	case domain.AIProviderGemini:
		svc, err = createGeminiEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return resilient.New(svc, resilient.Config{
		RatePerSecond: settings.RatePerSecond,
		Burst:         settings.Burst,
	}), nil
}

// CreateAssistedExtractor creates the Gemini extractor.
// Returns nil if no API key is configured.
func CreateAssistedExtractor(settings *domain.ExtractionSettings) (*geminiextract.Extractor, error) {
	if settings == nil || settings.GeminiAPIKey == "" {
		return nil, nil
	}
	return geminiextract.New(geminiextract.Config{
		APIKey: settings.GeminiAPIKey,
		Model:  settings.Model,
	})
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return geminiembed.NewEmbeddingService(geminiembed.Config{
		APIKey: settings.APIKey,
		Model:  settings.Model,
	})
}
