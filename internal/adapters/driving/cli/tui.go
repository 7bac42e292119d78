package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui"
)

var boardModule string

// boardCmd represents the board command.
var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive status board",
	Long: `Launch the interactive terminal status board for course material.

The board lists uploaded documents with their processing status, shows
chunks and status reports, and lets you ask a question against a module.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select / Ask
  Esc      - Back / Cancel
  n        - New question
  r        - Reload documents
  q        - Quit`,
	RunE: runBoard,
}

func init() {
	boardCmd.Flags().StringVarP(&boardModule, "module", "m", "", "scope the board to a module")
	rootCmd.AddCommand(boardCmd)
}

// boardPorts builds the TUI ports from the configured services.
func boardPorts() *tui.Ports {
	return &tui.Ports{
		Document:  documentService,
		Status:    statusService,
		Ingest:    ingestService,
		Retrieval: retrievalService,
	}
}

func runBoard(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(boardPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(cmd.Context())
	if boardModule != "" {
		app.WithModule(boardModule)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
