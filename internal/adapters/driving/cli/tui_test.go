package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardCmd_Exists(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "board" {
			found = true
			assert.Contains(t, cmd.Aliases, "tui")
			break
		}
	}
	assert.True(t, found, "board command should be registered")
}

func TestBoardCmd_ShortDescription(t *testing.T) {
	assert.Equal(t, "Launch the interactive status board", boardCmd.Short)
}

func TestBoardCmd_HelpOutput(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"board", "--help"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "interactive terminal status board")
	assert.Contains(t, output, "Controls:")
	assert.Contains(t, output, "--module")
}

func TestBoardPorts(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ports := boardPorts()

	require.NoError(t, ports.Validate())
	assert.Equal(t, documentService, ports.Document)
	assert.Equal(t, statusService, ports.Status)
	assert.Equal(t, ingestService, ports.Ingest)
	assert.Equal(t, retrievalService, ports.Retrieval)
}

func TestBoardCmd_NoDocumentService(t *testing.T) {
	cleanup := useServices(&Services{})
	defer cleanup()

	_, err := execute("board")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create TUI")
}
