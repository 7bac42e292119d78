package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding or extraction service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects the document, chunk and embedding store.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite is an embedded SQLite database file.
	StorageSQLite StorageBackend = "sqlite"

	// StoragePostgres is a PostgreSQL server.
	StoragePostgres StorageBackend = "postgres"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the provider API key.
	APIKey string

	// BatchSize is the number of chunk texts sent per provider call.
	BatchSize int

	// RatePerSecond limits provider calls. Zero disables limiting.
	RatePerSecond float64

	// Burst is the rate limiter burst size.
	Burst int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker configuration.
// Options is passed to the chunker registry so new strategies can be
// added without changing this struct.
type ChunkingSettings struct {
	// Strategy is the registered chunker name ("fixed" or "sentence").
	Strategy string

	// Options holds strategy-specific configuration.
	Options map[string]any
}

// RetrievalSettings holds context assembly defaults.
type RetrievalSettings struct {
	// MaxChunks caps the number of chunks in a context result.
	MaxChunks int

	// Threshold is the minimum similarity kept.
	Threshold float64
}

// StorageSettings selects and configures the store.
type StorageSettings struct {
	// Backend is the store implementation.
	Backend StorageBackend

	// DataDir is the SQLite data directory.
	DataDir string

	// PostgresDSN is the PostgreSQL connection string.
	PostgresDSN string
}

// RedisSettings configures the query cache and task queue connection.
type RedisSettings struct {
	// URL is a redis:// URL. Empty disables Redis features.
	URL string

	// QueryCacheTTL is how long query embeddings are cached.
	QueryCacheTTL time.Duration
}

// WorkerSettings configures the background task worker.
type WorkerSettings struct {
	// Concurrency is the number of tasks processed in parallel.
	Concurrency int

	// Queue is the queue name tasks are enqueued on.
	Queue string
}

// ExtractionSettings configures AI-assisted extraction.
type ExtractionSettings struct {
	// GeminiAPIKey enables AI-assisted extraction when set.
	GeminiAPIKey string

	// Model is the Gemini model used for extraction.
	Model string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	Chunking   ChunkingSettings
	Retrieval  RetrievalSettings
	Storage    StorageSettings
	Redis      RedisSettings
	Worker     WorkerSettings
	Extraction ExtractionSettings

	// HTTPAddr is the listen address for the HTTP API.
	HTTPAddr string
}

// Pipeline defaults.
const (
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultBatchSize      = 100
	DefaultMaxChunks      = 3
	DefaultThreshold      = 0.7
	DefaultChatMaxChunks  = 5
	DefaultQueryCacheTTL  = 24 * time.Hour
	DefaultWorkerQueue    = "ingestion"
	DefaultExtractorModel = "gemini-2.0-flash"
	DefaultHTTPAddr       = ":8080"
)

// Built-in prompts for AI-assisted extraction.
const (
	DefaultExtractionSystemPrompt = `You are a precise document text extractor. Extract ALL text content from this document exactly as it appears, keeping line breaks, numbering, and question/answer structure. Do not summarise, interpret, or modify the content. Include headers, footers, captions, tables, and every readable text element.`

	DefaultExtractionUserPrompt = "Extract all text content from this document. Maintain original formatting and structure."
)

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider is OpenAI but left without an API key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     DefaultEmbeddingModels()[AIProviderOpenAI],
			BatchSize: DefaultBatchSize,
			Burst:     1,
		},
		Chunking: ChunkingSettings{
			Strategy: "fixed",
			Options: map[string]any{
				"chunk_size": DefaultChunkSize,
				"overlap":    DefaultChunkOverlap,
			},
		},
		Retrieval: RetrievalSettings{
			MaxChunks: DefaultMaxChunks,
			Threshold: DefaultThreshold,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Redis: RedisSettings{
			QueryCacheTTL: DefaultQueryCacheTTL,
		},
		Worker: WorkerSettings{
			Concurrency: 2,
			Queue:       DefaultWorkerQueue,
		},
		Extraction: ExtractionSettings{
			Model: DefaultExtractorModel,
		},
		HTTPAddr: DefaultHTTPAddr,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
		AIProviderGemini: "text-embedding-004",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		"embedding-001":      768,
	}
}
