package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/chunking"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

var (
	chunkSize     int
	chunkOverlap  int
	chunkStrategy string
	chunkType     string
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Extract a file and print its chunks",
	Long: `Extracts a file and splits the text into overlapping chunks without
storing anything. Useful for tuning chunking.size and chunking.overlap.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().IntVar(&chunkSize, "size", domain.DefaultChunkSize, "characters per chunk")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", domain.DefaultChunkOverlap,
		"overlapping characters (sentences for the sentence strategy)")
	chunkCmd.Flags().StringVar(&chunkStrategy, "strategy", "fixed", "chunking strategy (fixed, sentence)")
	chunkCmd.Flags().StringVar(&chunkType, "type", "", "file type, default from extension")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	ext, err := extractPath(cmd, args[0], chunkType, false)
	if err != nil {
		return err
	}

	chunker, err := chunking.DefaultRegistry().Build(chunkStrategy, map[string]any{
		"chunk_size":        chunkSize,
		"overlap":           chunkOverlap,
		"overlap_sentences": chunkOverlap,
	})
	if err != nil {
		return err
	}

	chunks, err := chunker.Chunk("", ext.Text)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd, chunks)
	}

	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("%s\n", dimStyle.Render(fmt.Sprintf("── chunk %d [%d:%d] %d chars", c.Index, c.Start, c.End, c.Size)))
		cmd.Println(strings.TrimSpace(c.Text))
		cmd.Println()
	}
	cmd.Printf("Total: %d chunks from %d characters\n", len(chunks), len([]rune(ext.Text)))
	return nil
}
