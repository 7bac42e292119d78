package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// stdoutIsTerminal is swapped in tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// wantJSON reports whether output should be JSON: --json was given, or
// stdout is piped.
func wantJSON() bool {
	return jsonOutput || !stdoutIsTerminal()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	busyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
)

// styledStatus colours a status for terminal output.
func styledStatus(s domain.ProcessingStatus) string {
	switch s {
	case domain.StatusIndexed:
		return okStyle.Render(s.String())
	case domain.StatusFailed:
		return errStyle.Render(s.String())
	case domain.StatusChunked, domain.StatusEmbedded:
		return warnStyle.Render(s.String())
	default:
		return busyStyle.Render(s.String())
	}
}
