package cli

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShowCmd(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.APIKey = "sk-1234567890abcdef"
	settings.Redis.URL = "redis://localhost:6379/0"
	cleanup := useServices(&Services{Settings: &MockSettingsService{Settings: settings}})
	defer cleanup()

	out, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "chunk_size: 1000")
	assert.Contains(t, out, "Threshold: 0.70")
	assert.Contains(t, out, "Redis: redis://localhost:6379/0")
	assert.Contains(t, out, "Assisted: off")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_DefaultsToShow(t *testing.T) {
	cleanup := useServices(&Services{Settings: &MockSettingsService{
		Settings:    domain.DefaultAppSettings(),
		ValidateErr: errors.New("embedding API key is required"),
	}})
	defer cleanup()

	out, err := execute("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "Warning: embedding API key is required")
}

func TestSettingsSetCmd(t *testing.T) {
	var gotKey, gotValue string
	cleanup := useServices(&Services{Settings: &MockSettingsService{
		SetFunc: func(key, value string) error {
			gotKey, gotValue = key, value
			return nil
		},
	}})
	defer cleanup()

	out, err := execute("settings", "set", "retrieval.threshold", "0.65")

	require.NoError(t, err)
	assert.Equal(t, "retrieval.threshold", gotKey)
	assert.Equal(t, "0.65", gotValue)
	assert.Contains(t, out, "retrieval.threshold updated.")
}

func TestSettingsSetCmd_Error(t *testing.T) {
	cleanup := useServices(&Services{Settings: &MockSettingsService{
		SetFunc: func(string, string) error { return domain.ErrInvalidInput },
	}})
	defer cleanup()

	_, err := execute("settings", "set", "retrieval.threshold", "2")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeysCmd_Sorted(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "keys")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, sort.StringsAreSorted(lines))
	assert.Contains(t, lines, "embedding.provider")
}

func TestSettingsEmbeddingCmd_Wizard(t *testing.T) {
	mock := &MockSettingsService{Settings: domain.DefaultAppSettings()}
	cleanup := useServices(&Services{Settings: mock})
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("2\n\ngm-secret-key\n"))
	out, err := execute("settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, mock.Provider)
	assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderGemini], mock.Model)
	assert.Equal(t, "gm-secret-key", mock.APIKey)
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsEmbeddingCmd_ValidationFails(t *testing.T) {
	mock := &MockSettingsService{PingErr: errors.New("401 unauthorised")}
	cleanup := useServices(&Services{Settings: mock})
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("1\n\nsk-bad\n"))
	_, err := execute("settings", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401 unauthorised")
}

func TestSettingsEmbeddingCmd_MissingKey(t *testing.T) {
	mock := &MockSettingsService{}
	cleanup := useServices(&Services{Settings: mock})
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("1\n\n\n"))
	_, err := execute("settings", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
	assert.Empty(t, mock.Provider)
}
