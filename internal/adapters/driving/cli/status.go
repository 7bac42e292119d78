package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

var retryTo string

var statusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show a document's processing status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var statusRetryCmd = &cobra.Command{
	Use:   "retry [doc-id]",
	Short: "Reset a failed document so it can be processed again",
	Long: `Moves a failed or indexed document back to 'uploaded' (or to the stage
given with --to) so that 'aipilot process' runs it again.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatusRetry,
}

func init() {
	statusRetryCmd.Flags().StringVar(&retryTo, "to", "", "status to reset to (default: uploaded)")
	statusCmd.AddCommand(statusRetryCmd)
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	report, err := statusService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd, report)
	}

	cmd.Printf("Document: %s\n\n", report.DocumentID)
	cmd.Printf("  Status:   %s\n", styledStatus(report.Status))
	cmd.Printf("  Ready:    %t\n", report.IsReady)
	cmd.Printf("  Error:    %t\n", report.HasError)
	cmd.Printf("  Uploaded: %s\n", report.UploadedAt.Format("2006-01-02 15:04:05"))

	if len(report.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		keys := make([]string, 0, len(report.Metadata))
		for k := range report.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, report.Metadata[k])
		}
	}
	return nil
}

func runStatusRetry(cmd *cobra.Command, args []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	to := domain.ProcessingStatus(retryTo)
	if to != "" && !to.IsValid() {
		return fmt.Errorf("unknown status %q", retryTo)
	}

	doc, err := statusService.Retry(cmd.Context(), args[0], to)
	if err != nil {
		return fmt.Errorf("failed to reset document: %w", err)
	}

	cmd.Printf("Document %s reset to %s. Run 'aipilot process %s' to continue.\n",
		doc.ID, styledStatus(doc.Status), doc.ID)
	return nil
}
