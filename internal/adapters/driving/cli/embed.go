package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var embedAsync bool

var embedCmd = &cobra.Command{
	Use:   "embed [doc-id]",
	Short: "Embed a document's chunks",
	Long: `Generates embeddings for every chunk of a document that does not have one.
Batches that fail are skipped; run 'aipilot embed retry' to fill the gaps.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

var embedRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Fill missing embeddings across all documents",
	Long: `Scans chunked and embedded documents for chunks without an embedding and
embeds only those. Documents that become complete are marked indexed.`,
	Args: cobra.NoArgs,
	RunE: runEmbedRetry,
}

func init() {
	embedRetryCmd.Flags().BoolVar(&embedAsync, "async", false, "enqueue the retry for the worker")
	embedCmd.AddCommand(embedRetryCmd)
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	if embeddingGenerator == nil {
		return errors.New(providerHint())
	}

	docID := args[0]
	created, embedErr := embeddingGenerator.EmbedDocument(cmd.Context(), docID)

	var report any
	if statusService != nil {
		if r, err := statusService.Get(cmd.Context(), docID); err == nil {
			report = r
			if !wantJSON() {
				cmd.Printf("Created %d embeddings; document %s is %s.\n", created, docID, styledStatus(r.Status))
			}
		}
	}
	if wantJSON() {
		if err := printJSON(cmd, map[string]any{"created": created, "status": report}); err != nil {
			return err
		}
	} else if report == nil {
		cmd.Printf("Created %d embeddings.\n", created)
	}

	if embedErr != nil {
		return fmt.Errorf("embedding incomplete: %w", embedErr)
	}
	return nil
}

func runEmbedRetry(cmd *cobra.Command, _ []string) error {
	if embedAsync {
		if taskDispatcher == nil {
			return errors.New("--async requires redis.url to be configured")
		}
		if err := taskDispatcher.EnqueueEmbeddingRetry(cmd.Context()); err != nil {
			return fmt.Errorf("failed to enqueue retry: %w", err)
		}
		cmd.Println("Embedding retry queued.")
		return nil
	}

	if embeddingGenerator == nil {
		return errors.New(providerHint())
	}

	report, err := embeddingGenerator.RetryMissing(cmd.Context())
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd, report)
	}

	if report.Checked == 0 {
		cmd.Println("No documents are missing embeddings.")
		return nil
	}
	cmd.Printf("Checked %d documents, created %d embeddings.\n", report.Checked, report.Created)
	for _, id := range report.Completed {
		cmd.Printf("  %s %s\n", okStyle.Render("indexed"), id)
	}
	for _, id := range report.Incomplete {
		cmd.Printf("  %s %s\n", warnStyle.Render("incomplete"), id)
	}
	return nil
}
