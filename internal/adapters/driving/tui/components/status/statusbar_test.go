package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/keymap"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.ChunkCount())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Nil(t, bar.Init())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		chunks  int
		want    string
	}{
		{"ready", StateReady, "", 0, "Ready"},
		{"ready with message", StateReady, "Document deleted", 0, "Document deleted"},
		{"retrieving", StateRetrieving, "", 0, "Retrieving..."},
		{"error", StateError, "boom", 0, "Error: boom"},
		{"error without message", StateError, "", 0, "Error"},
		{"context", StateContext, "", 3, "3 chunks"},
		{"empty context", StateContext, "", 0, "No course material context available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetChunkCount(tt.chunks)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_HintsFollowState(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)
	assert.Contains(t, bar.View(), "q: quit")

	bar.SetState(StateContext)
	bar.SetChunkCount(2)
	assert.Contains(t, bar.View(), "n: new question")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("x")
	bar.SetChunkCount(4)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.ChunkCount())
}
