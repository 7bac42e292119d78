// Package plaintext extracts text from plain text and Markdown files.
package plaintext

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrInvalidEncoding is returned for content that is not UTF-8.
var ErrInvalidEncoding = errors.New("plaintext: content is not valid UTF-8")

const byteOrderMark = "\ufeff"

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles.
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeTXT, domain.FileTypeMD}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract returns the content as text with surrounding whitespace removed.
func (e *Extractor) Extract(_ context.Context, content []byte) (*domain.Extraction, error) {
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	text := strings.TrimPrefix(string(content), byteOrderMark)

	return &domain.Extraction{
		Text: strings.TrimSpace(text),
		Metadata: map[string]any{
			"lines": countLines(text),
		},
		Method: domain.ExtractionStandard,
	}, nil
}

// countLines counts lines the way a line iterator would: a trailing
// newline does not start a new line.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
