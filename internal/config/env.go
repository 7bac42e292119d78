// Package config layers environment variables over the file config store.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// EnvPrefix prefixes the generic variable for every config key:
// "retrieval.threshold" reads AIPILOT_RETRIEVAL_THRESHOLD.
const EnvPrefix = "AIPILOT_"

// aliases are conventional variable names checked after the prefixed one.
var aliases = map[string][]string{
	"storage.postgres_dsn":      {"DATABASE_URL"},
	"redis.url":                 {"REDIS_URL"},
	"extraction.gemini_api_key": {"GEMINI_API_KEY"},
}

// providerKeys maps an embedding provider to its API key variable.
var providerKeys = map[string]string{
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// LoadDotEnv loads path into the process environment when the file exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// Overlay reads a key from the environment first and falls back to the
// wrapped store. Writes always go to the wrapped store.
type Overlay struct {
	base   driven.ConfigStore
	lookup func(string) (string, bool)
}

// NewOverlay wraps base with the process environment.
func NewOverlay(base driven.ConfigStore) *Overlay {
	return &Overlay{base: base, lookup: os.LookupEnv}
}

// EnvName returns the prefixed variable name for key.
func EnvName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return EnvPrefix + strings.ToUpper(r.Replace(key))
}

// env returns the environment value for key, if any.
func (o *Overlay) env(key string) (string, bool) {
	if v, ok := o.lookup(EnvName(key)); ok && v != "" {
		return v, true
	}
	for _, name := range aliases[key] {
		if v, ok := o.lookup(name); ok && v != "" {
			return v, true
		}
	}
	if key == "embedding.api_key" {
		provider := o.GetString("embedding.provider")
		if provider == "" {
			provider = string(domain.DefaultAppSettings().Embedding.Provider)
		}
		if name, ok := providerKeys[provider]; ok {
			if v, ok := o.lookup(name); ok && v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// Get retrieves a configuration value by key.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.env(key); ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	if v, ok := o.env(key); ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt retrieves an integer configuration value.
// An unparsable variable reads as 0.
func (o *Overlay) GetInt(key string) int {
	if v, ok := o.env(key); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	}
	return o.base.GetInt(key)
}

// GetFloat retrieves a floating point configuration value.
func (o *Overlay) GetFloat(key string) float64 {
	if v, ok := o.env(key); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return o.base.GetFloat(key)
}

// GetBool retrieves a boolean configuration value.
func (o *Overlay) GetBool(key string) bool {
	if v, ok := o.env(key); ok {
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return o.base.GetBool(key)
}

func (o *Overlay) Set(key string, value any) error { return o.base.Set(key, value) }
func (o *Overlay) Save() error                     { return o.base.Save() }
func (o *Overlay) Load() error                     { return o.base.Load() }
func (o *Overlay) Path() string                    { return o.base.Path() }

// Overridden reports whether the environment supplies key.
func (o *Overlay) Overridden(key string) bool {
	_, ok := o.env(key)
	return ok
}
