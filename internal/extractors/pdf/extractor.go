// Package pdf extracts text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles.
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePDF}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the text of every page under a "--- Page N ---" marker.
// Pages without a content stream contribute an empty page text.
func (e *Extractor) Extract(ctx context.Context, content []byte) (result *domain.Extraction, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("pdf: open: %w", err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("pdf: document has no pages")
	}

	var (
		full      strings.Builder
		pageTexts = make([]string, 0, pages)
	)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var text string
		page := reader.Page(i)
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				logger.Warn("pdf: page %d: %v", i, err)
				text = ""
			}
		}

		pageTexts = append(pageTexts, text)
		fmt.Fprintf(&full, "\n--- Page %d ---\n%s", i, text)
	}

	return &domain.Extraction{
		Text: strings.TrimSpace(full.String()),
		Metadata: map[string]any{
			"pages":      len(pageTexts),
			"page_texts": pageTexts,
		},
		Method: domain.ExtractionStandard,
	}, nil
}
