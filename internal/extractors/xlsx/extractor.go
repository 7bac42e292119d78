// Package xlsx extracts cell text from Excel workbooks.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles.
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeXLSX}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns one "--- Sheet NAME ---" section per worksheet with
// cells tab-separated and one row per line. Empty rows are skipped.
func (e *Extractor) Extract(ctx context.Context, content []byte) (*domain.Extraction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("xlsx: open: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var full strings.Builder
	for _, name := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("xlsx: sheet %q: %w", name, err)
		}

		fmt.Fprintf(&full, "\n--- Sheet %s ---\n", name)
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			full.WriteString(line)
			full.WriteString("\n")
		}
	}

	return &domain.Extraction{
		Text: strings.TrimSpace(full.String()),
		Metadata: map[string]any{
			"sheets":      len(sheets),
			"sheet_names": sheets,
		},
		Method: domain.ExtractionStandard,
	}, nil
}
