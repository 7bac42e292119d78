package driving

import "github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with defaults applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single dotted key, e.g. "retrieval.threshold".
	// The value is parsed according to the key's type.
	Set(key, value string) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that current settings can run the pipeline.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error
}
