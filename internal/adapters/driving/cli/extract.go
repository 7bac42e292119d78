package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

var (
	extractType     string
	extractAssisted bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Print the text extracted from a file",
	Long: `Extracts text from a file without storing anything.

The format is taken from the file extension unless --type is given.
With --assisted the Gemini extractor is tried first and the standard
extractor is used if it fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractType, "type", "", "file type (pdf, docx, pptx, xlsx, html, txt, md)")
	extractCmd.Flags().BoolVar(&extractAssisted, "assisted", false, "try AI-assisted extraction first")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	ext, err := extractPath(cmd, args[0], extractType, extractAssisted)
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(cmd, map[string]any{
			"text":     ext.Text,
			"metadata": ext.Metadata,
			"method":   ext.Method,
		})
	}

	cmd.Println(ext.Text)
	return nil
}

// extractPath reads and extracts a file for the extract and chunk commands.
func extractPath(cmd *cobra.Command, path, fileType string, assisted bool) (*domain.Extraction, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ft := domain.FileType(fileType)
	if ft == "" {
		ft = domain.FileTypeFromName(filepath.Base(path))
	}

	ext, err := extractionService.Extract(cmd.Context(), content, ft, domain.ExtractOptions{Assisted: assisted})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return ext, nil
}
