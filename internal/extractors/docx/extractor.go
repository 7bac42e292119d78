// Package docx extracts text from Word documents.
package docx

import (
	"context"
	"fmt"
	"strings"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents. Legacy .doc uploads are routed here
// too and fail extraction unless they are really OOXML.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles.
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeDOCX, domain.FileTypeDOC}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the non-blank paragraphs joined by blank lines.
func (e *Extractor) Extract(_ context.Context, content []byte) (*domain.Extraction, error) {
	pkg, err := ooxml.Open(content)
	if err != nil {
		return nil, fmt.Errorf("docx: %w", err)
	}

	data, err := pkg.Read(documentPart)
	if err != nil {
		return nil, fmt.Errorf("docx: %w", err)
	}

	all, err := ooxml.Paragraphs(data)
	if err != nil {
		return nil, fmt.Errorf("docx: %w", err)
	}

	paragraphs := make([]string, 0, len(all))
	for _, p := range all {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	metadata := map[string]any{
		"paragraphs": len(paragraphs),
	}
	if title := strings.TrimSpace(pkg.Title()); title != "" {
		metadata["title"] = title
	}

	return &domain.Extraction{
		Text:     strings.TrimSpace(strings.Join(paragraphs, "\n\n")),
		Metadata: metadata,
		Method:   domain.ExtractionStandard,
	}, nil
}
