package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkStrategy    = "chunking.strategy"
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyOverlapSentences = "chunking.overlap_sentences"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedRate        = "embedding.rate_per_second"
	keyEmbedBurst       = "embedding.burst"
	keyMaxChunks        = "retrieval.max_chunks"
	keyThreshold        = "retrieval.threshold"
	keyStorageBackend   = "storage.backend"
	keyDataDir          = "storage.data_dir"
	keyPostgresDSN      = "storage.postgres_dsn"
	keyRedisURL         = "redis.url"
	keyQueryCacheTTL    = "redis.query_cache_ttl"
	keyWorkerConc       = "worker.concurrency"
	keyWorkerQueue      = "worker.queue"
	keyHTTPAddr         = "http.addr"
	keyGeminiAPIKey     = "extraction.gemini_api_key"
	keyExtractModel     = "extraction.model"
)

// valueKind is how Set parses a raw string for a key.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
)

var settingKinds = map[string]valueKind{
	keyChunkStrategy:    kindString,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyOverlapSentences: kindInt,
	keyEmbedProvider:    kindString,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedBatchSize:   kindInt,
	keyEmbedRate:        kindFloat,
	keyEmbedBurst:       kindInt,
	keyMaxChunks:        kindInt,
	keyThreshold:        kindFloat,
	keyStorageBackend:   kindString,
	keyDataDir:          kindString,
	keyPostgresDSN:      kindString,
	keyRedisURL:         kindString,
	keyQueryCacheTTL:    kindDuration,
	keyWorkerConc:       kindInt,
	keyWorkerQueue:      kindString,
	keyHTTPAddr:         kindString,
	keyGeminiAPIKey:     kindString,
	keyExtractModel:     kindString,
}

// SettingKeys returns every key Set accepts.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	chunkOpts := map[string]any{
		"chunk_size": s.getInt(keyChunkSize, domain.DefaultChunkSize),
		"overlap":    s.getIntAllowZero(keyChunkOverlap, domain.DefaultChunkOverlap),
	}
	if _, ok := s.configStore.Get(keyOverlapSentences); ok {
		chunkOpts["overlap_sentences"] = s.configStore.GetInt(keyOverlapSentences)
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:      s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:       s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:        s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:     s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RatePerSecond: s.configStore.GetFloat(keyEmbedRate),
			Burst:         s.getInt(keyEmbedBurst, defaults.Embedding.Burst),
		},
		Chunking: domain.ChunkingSettings{
			Strategy: s.getString(keyChunkStrategy, defaults.Chunking.Strategy),
			Options:  chunkOpts,
		},
		Retrieval: domain.RetrievalSettings{
			MaxChunks: s.getInt(keyMaxChunks, defaults.Retrieval.MaxChunks),
			Threshold: s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			DataDir:     s.configStore.GetString(keyDataDir),
			PostgresDSN: s.configStore.GetString(keyPostgresDSN),
		},
		Redis: domain.RedisSettings{
			URL:           s.configStore.GetString(keyRedisURL),
			QueryCacheTTL: s.getDuration(keyQueryCacheTTL, defaults.Redis.QueryCacheTTL),
		},
		Worker: domain.WorkerSettings{
			Concurrency: s.getInt(keyWorkerConc, defaults.Worker.Concurrency),
			Queue:       s.getString(keyWorkerQueue, defaults.Worker.Queue),
		},
		Extraction: domain.ExtractionSettings{
			GeminiAPIKey: s.configStore.GetString(keyGeminiAPIKey),
			Model:        s.getString(keyExtractModel, defaults.Extraction.Model),
		},
		HTTPAddr: s.getString(keyHTTPAddr, defaults.HTTPAddr),
	}

	// The model default follows the provider.
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	settings.Embedding.Model = model

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save chunking settings
	if err := s.configStore.Set(keyChunkStrategy, settings.Chunking.Strategy); err != nil {
		return fmt.Errorf("save chunking strategy: %w", err)
	}
	for key, opt := range map[string]string{
		keyChunkSize:        "chunk_size",
		keyChunkOverlap:     "overlap",
		keyOverlapSentences: "overlap_sentences",
	} {
		if v, ok := settings.Chunking.Options[opt]; ok {
			if err := s.configStore.Set(key, v); err != nil {
				return fmt.Errorf("save chunking %s: %w", opt, err)
			}
		}
	}

	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyEmbedBatchSize, settings.Embedding.BatchSize); err != nil {
		return fmt.Errorf("save embedding batch_size: %w", err)
	}
	if err := s.configStore.Set(keyEmbedRate, settings.Embedding.RatePerSecond); err != nil {
		return fmt.Errorf("save embedding rate_per_second: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBurst, settings.Embedding.Burst); err != nil {
		return fmt.Errorf("save embedding burst: %w", err)
	}

	// Save retrieval settings
	if err := s.configStore.Set(keyMaxChunks, settings.Retrieval.MaxChunks); err != nil {
		return fmt.Errorf("save retrieval max_chunks: %w", err)
	}
	if err := s.configStore.Set(keyThreshold, settings.Retrieval.Threshold); err != nil {
		return fmt.Errorf("save retrieval threshold: %w", err)
	}

	// Save storage settings
	if err := s.configStore.Set(keyStorageBackend, settings.Storage.Backend.String()); err != nil {
		return fmt.Errorf("save storage backend: %w", err)
	}
	if err := s.configStore.Set(keyDataDir, settings.Storage.DataDir); err != nil {
		return fmt.Errorf("save storage data_dir: %w", err)
	}
	if settings.Storage.PostgresDSN != "" {
		if err := s.configStore.Set(keyPostgresDSN, settings.Storage.PostgresDSN); err != nil {
			return fmt.Errorf("save storage postgres_dsn: %w", err)
		}
	}

	// Save redis and worker settings
	if err := s.configStore.Set(keyRedisURL, settings.Redis.URL); err != nil {
		return fmt.Errorf("save redis url: %w", err)
	}
	if err := s.configStore.Set(keyQueryCacheTTL, settings.Redis.QueryCacheTTL.String()); err != nil {
		return fmt.Errorf("save redis query_cache_ttl: %w", err)
	}
	if err := s.configStore.Set(keyWorkerConc, settings.Worker.Concurrency); err != nil {
		return fmt.Errorf("save worker concurrency: %w", err)
	}
	if err := s.configStore.Set(keyWorkerQueue, settings.Worker.Queue); err != nil {
		return fmt.Errorf("save worker queue: %w", err)
	}

	// Save surfaces
	if err := s.configStore.Set(keyHTTPAddr, settings.HTTPAddr); err != nil {
		return fmt.Errorf("save http addr: %w", err)
	}
	if settings.Extraction.GeminiAPIKey != "" {
		if err := s.configStore.Set(keyGeminiAPIKey, settings.Extraction.GeminiAPIKey); err != nil {
			return fmt.Errorf("save extraction gemini_api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyExtractModel, settings.Extraction.Model); err != nil {
		return fmt.Errorf("save extraction model: %w", err)
	}

	return nil
}

// Set updates a single key from its string form.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration", domain.ErrInvalidInput, key)
		}
		parsed = value
	default:
		parsed = value
	}

	switch key {
	case keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("invalid embedding provider: %s", value)
		}
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("invalid storage backend: %s", value)
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Local providers need a base URL
	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings can run the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding.batch_size must be positive", domain.ErrInvalidInput)
	}

	size, _ := settings.Chunking.Options["chunk_size"].(int)
	overlap, _ := settings.Chunking.Options["overlap"].(int)
	if size <= 0 || overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: size=%d overlap=%d", domain.ErrChunkingConfig, size, overlap)
	}

	if settings.Retrieval.MaxChunks <= 0 {
		return fmt.Errorf("%w: retrieval.max_chunks must be positive", domain.ErrInvalidInput)
	}
	if settings.Retrieval.Threshold < 0 || settings.Retrieval.Threshold > 1 {
		return fmt.Errorf("%w: retrieval.threshold must be between 0 and 1", domain.ErrInvalidInput)
	}

	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage backend postgres requires %s", keyPostgresDSN)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.aiValidator.ValidateEmbedding(&settings.Embedding); err != nil {
		return err
	}
	return s.aiValidator.ValidateExtraction(&settings.Extraction)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero keeps an explicit zero, e.g. overlap = 0.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
