package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/services"
)

var (
	contextQuestion  string
	contextAnswer    string
	contextModule    string
	contextMaxChunks int
	contextThreshold float64
	contextChat      bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Retrieve course material for a question",
	Long: `Finds the passages of a module's indexed documents that best support a
question and answer, and prints the formatted context block.

Question-bank documents are never used as context.`,
	Example: `  aipilot context -m bio-101 -q "What is osmosis?" -a "Movement of water"
  aipilot context -m bio-101 -q "Explain diffusion" --chat`,
	Args: cobra.NoArgs,
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextQuestion, "question", "q", "", "question text (required)")
	contextCmd.Flags().StringVarP(&contextAnswer, "answer", "a", "", "answer text")
	contextCmd.Flags().StringVarP(&contextModule, "module", "m", "", "module to search (required)")
	contextCmd.Flags().IntVarP(&contextMaxChunks, "max-chunks", "n", 0, "maximum chunks (default from settings)")
	contextCmd.Flags().Float64Var(&contextThreshold, "threshold", 0, "minimum similarity 0-1, 0 keeps every match (default from settings)")
	contextCmd.Flags().BoolVar(&contextChat, "chat", false, "use the chatbot profile (more chunks)")
	_ = contextCmd.MarkFlagRequired("question")
	_ = contextCmd.MarkFlagRequired("module")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	maxChunks := contextMaxChunks
	if contextChat && maxChunks == 0 {
		maxChunks = domain.DefaultChatMaxChunks
	}

	req := domain.ContextRequest{
		Question:  contextQuestion,
		Answer:    contextAnswer,
		ModuleID:  contextModule,
		MaxChunks: maxChunks,
	}
	if cmd.Flags().Changed("threshold") {
		req.Threshold = domain.Threshold(contextThreshold)
	}

	result, err := retrievalService.RetrieveContext(cmd.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return errors.New(providerHint())
		}
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd, struct {
			*domain.ContextResult
			Summary string `json:"summary"`
		}{result, services.Summary(result)})
	}

	cmd.Println(dimStyle.Render(services.Summary(result)))
	if !result.HasContext {
		return nil
	}
	cmd.Println()
	cmd.Println(result.FormattedContext)
	return nil
}
