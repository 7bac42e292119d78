// Package html extracts visible text from HTML pages.
package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Elements whose content is never visible.
const hiddenSelector = "head, script, style, noscript, template, svg"

// lineMark is appended to block elements before text is flattened. It is a
// private-use rune, so source newlines can be collapsed without losing
// block boundaries.
const lineMark = "\ue000"

// Elements that end a line of visible text.
const blockSelector = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, pre, blockquote, section, article, header, footer, table, ul, ol, dt, dd"

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles.
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeHTML}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the visible text, one line per block element.
func (e *Extractor) Extract(_ context.Context, content []byte) (*domain.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("html: parse: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(hiddenSelector).Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(lineMark)
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	metadata := map[string]any{}
	if title != "" {
		metadata["title"] = title
	}

	return &domain.Extraction{
		Text:     collapseLines(root.Text()),
		Metadata: metadata,
		Method:   domain.ExtractionStandard,
	}, nil
}

// collapseLines squeezes whitespace (source newlines included) inside each
// block line and drops blank lines.
func collapseLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, lineMark) {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
