// Package pptx extracts text from PowerPoint presentations.
package pptx

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX presentations. Legacy .ppt uploads are routed
// here too and fail extraction unless they are really OOXML.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles.
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePPTX, domain.FileTypePPT}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns each slide's text under a "--- Slide N ---" marker.
func (e *Extractor) Extract(ctx context.Context, content []byte) (*domain.Extraction, error) {
	pkg, err := ooxml.Open(content)
	if err != nil {
		return nil, fmt.Errorf("pptx: %w", err)
	}

	slides := slideParts(pkg)
	if len(slides) == 0 {
		return nil, fmt.Errorf("pptx: no slides found")
	}

	var (
		full       strings.Builder
		slideTexts = make([]string, 0, len(slides))
	)
	for i, name := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := pkg.Read(name)
		if err != nil {
			return nil, fmt.Errorf("pptx: %w", err)
		}
		paragraphs, err := ooxml.Paragraphs(data)
		if err != nil {
			return nil, fmt.Errorf("pptx: slide %d: %w", i+1, err)
		}

		var slide strings.Builder
		for _, p := range paragraphs {
			if strings.TrimSpace(p) == "" {
				continue
			}
			slide.WriteString(p)
			slide.WriteString("\n")
		}

		slideTexts = append(slideTexts, strings.TrimSpace(slide.String()))
		fmt.Fprintf(&full, "\n--- Slide %d ---\n%s", i+1, slide.String())
	}

	metadata := map[string]any{
		"slides":      len(slideTexts),
		"slide_texts": slideTexts,
	}
	if title := strings.TrimSpace(pkg.Title()); title != "" {
		metadata["title"] = title
	}

	return &domain.Extraction{
		Text:     strings.TrimSpace(full.String()),
		Metadata: metadata,
		Method:   domain.ExtractionStandard,
	}, nil
}

// slideParts returns slide part names in presentation order (slide1, slide2, ..., slide10).
func slideParts(pkg *ooxml.Package) []string {
	type numbered struct {
		name string
		n    int
	}

	var found []numbered
	for _, name := range pkg.Names() {
		m := slidePart.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, numbered{name: name, n: n})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names
}
