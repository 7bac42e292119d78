package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{
			name:     "ollama is valid",
			provider: AIProviderOllama,
			expected: true,
		},
		{
			name:     "openai is valid",
			provider: AIProviderOpenAI,
			expected: true,
		},
		{
			name:     "gemini is valid",
			provider: AIProviderGemini,
			expected: true,
		},
		{
			name:     "empty string is invalid",
			provider: AIProvider(""),
			expected: false,
		},
		{
			name:     "anthropic has no embeddings",
			provider: AIProvider("anthropic"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderOllama, false},
		{AIProviderOpenAI, true},
		{AIProviderGemini, true},
		{AIProvider("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.RequiresAPIKey())
		})
	}
}

func TestAIProvider_String(t *testing.T) {
	assert.Equal(t, "ollama", AIProviderOllama.String())
	assert.Equal(t, "openai", AIProviderOpenAI.String())
	assert.Equal(t, "gemini", AIProviderGemini.String())
}

func TestAIProvider_Description(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected string
	}{
		{AIProviderOllama, "Ollama (local)"},
		{AIProviderOpenAI, "OpenAI (cloud)"},
		{AIProviderGemini, "Google Gemini (cloud)"},
		{AIProvider("other"), unknownDescription},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.Description())
		})
	}
}

func TestStorageBackend_IsValid(t *testing.T) {
	assert.True(t, StorageSQLite.IsValid())
	assert.True(t, StoragePostgres.IsValid())
	assert.True(t, StorageMemory.IsValid())
	assert.False(t, StorageBackend("mysql").IsValid())
	assert.False(t, StorageBackend("").IsValid())
	assert.Equal(t, "postgres", StoragePostgres.String())
}

// TestEmbeddingSettings_IsConfigured tests provider and key combinations
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{
			name: "valid ollama configuration",
			settings: EmbeddingSettings{
				Provider: AIProviderOllama,
				Model:    "nomic-embed-text",
				BaseURL:  "http://localhost:11434",
			},
			expected: true,
		},
		{
			name: "valid openai configuration with API key",
			settings: EmbeddingSettings{
				Provider: AIProviderOpenAI,
				Model:    "text-embedding-3-small",
				APIKey:   "sk-test123",
			},
			expected: true,
		},
		{
			name: "gemini with API key",
			settings: EmbeddingSettings{
				Provider: AIProviderGemini,
				APIKey:   "gm-key",
			},
			expected: true,
		},
		{
			name: "invalid provider",
			settings: EmbeddingSettings{
				Provider: AIProvider("invalid"),
				Model:    "some-model",
			},
			expected: false,
		},
		{
			name: "openai without API key",
			settings: EmbeddingSettings{
				Provider: AIProviderOpenAI,
				Model:    "text-embedding-ada-002",
			},
			expected: false,
		},
		{
			name: "gemini without API key",
			settings: EmbeddingSettings{
				Provider: AIProviderGemini,
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.Embedding.Provider)
	assert.Equal(t, "text-embedding-ada-002", s.Embedding.Model)
	assert.Equal(t, DefaultBatchSize, s.Embedding.BatchSize)
	assert.False(t, s.Embedding.IsConfigured(), "no API key by default")

	assert.Equal(t, "fixed", s.Chunking.Strategy)
	assert.Equal(t, DefaultChunkSize, s.Chunking.Options["chunk_size"])
	assert.Equal(t, DefaultChunkOverlap, s.Chunking.Options["overlap"])

	assert.Equal(t, DefaultMaxChunks, s.Retrieval.MaxChunks)
	assert.InDelta(t, DefaultThreshold, s.Retrieval.Threshold, 1e-9)

	assert.Equal(t, StorageSQLite, s.Storage.Backend)
	assert.Empty(t, s.Redis.URL)
	assert.Equal(t, DefaultQueryCacheTTL, s.Redis.QueryCacheTTL)
	assert.Equal(t, DefaultWorkerQueue, s.Worker.Queue)
	assert.Equal(t, DefaultExtractorModel, s.Extraction.Model)
	assert.Equal(t, DefaultHTTPAddr, s.HTTPAddr)
}

// TestDefaultAppSettings_Independent tests that callers get fresh option maps
func TestDefaultAppSettings_Independent(t *testing.T) {
	a := DefaultAppSettings()
	a.Chunking.Options["chunk_size"] = 10

	b := DefaultAppSettings()
	assert.Equal(t, DefaultChunkSize, b.Chunking.Options["chunk_size"])
}

func TestAllEmbeddingProviders(t *testing.T) {
	providers := AllEmbeddingProviders()

	require.Len(t, providers, 3)
	assert.Equal(t, []AIProvider{AIProviderOpenAI, AIProviderGemini, AIProviderOllama}, providers)
	for _, p := range providers {
		assert.True(t, p.IsValid())
	}
}

func TestDefaultEmbeddingModels(t *testing.T) {
	models := DefaultEmbeddingModels()

	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, models[p], "provider %s has no default model", p)
	}
	assert.Equal(t, "text-embedding-004", models[AIProviderGemini])
}

func TestEmbeddingDimensions(t *testing.T) {
	dims := EmbeddingDimensions()

	assert.Equal(t, 1536, dims["text-embedding-ada-002"])
	assert.Equal(t, 1536, dims["text-embedding-3-small"])
	assert.Equal(t, 3072, dims["text-embedding-3-large"])
	assert.Equal(t, 768, dims["text-embedding-004"])
	assert.Equal(t, 768, dims["nomic-embed-text"])

	for _, model := range DefaultEmbeddingModels() {
		assert.Positive(t, dims[model], "default model %s has no known dimensions", model)
	}
}
