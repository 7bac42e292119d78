package extractors

import (
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/docx"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/html"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/pdf"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/plaintext"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/pptx"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors/xlsx"
)

// RegisterDefaults registers all built-in extractors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(plaintext.New())
	r.Register(html.New())
	r.Register(xlsx.New())
}

// DefaultRegistry returns a registry with the built-in extractors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
