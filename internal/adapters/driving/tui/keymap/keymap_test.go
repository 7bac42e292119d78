package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Keys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"Quit", km.Quit, []string{"q", "ctrl+c"}},
		{"Help", km.Help, []string{"?"}},
		{"Back", km.Back, []string{"esc"}},
		{"Ask", km.Ask, []string{"enter"}},
		{"Up", km.Up, []string{"up", "k"}},
		{"Down", km.Down, []string{"down", "j"}},
		{"Select", km.Select, []string{"enter"}},
		{"Cancel", km.Cancel, []string{"esc"}},
		{"NewQuestion", km.NewQuestion, []string{"n"}},
		{"Reload", km.Reload, []string{"r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.Contains(t, tt.binding.Keys(), k)
			}
			assert.NotEmpty(t, tt.binding.Help().Key, "binding should have help key")
		})
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	assert.Len(t, bindings, 2)
	assert.Equal(t, km.Quit, bindings[0])
	assert.Equal(t, km.Help, bindings[1])
}

func TestChunksHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ChunksHelp()

	require.Len(t, bindings, 4)
	assert.Equal(t, km.NewQuestion, bindings[0])
	assert.Equal(t, km.Back, bindings[3])
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.FullHelp()

	assert.Len(t, bindings, 3)    // 3 groups
	assert.Len(t, bindings[0], 3) // Up, Down, Select
	assert.Len(t, bindings[1], 3) // Ask, Back, Cancel
	assert.Len(t, bindings[2], 3) // Reload, Help, Quit
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("r", km.Reload))
	assert.True(t, Matches("k", km.Up))

	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("down", km.Up))
}
