package driven

import (
	"context"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// Extractor converts the bytes of one or more file formats into text.
// Extractors only read their input.
type Extractor interface {
	// SupportedTypes returns the file types this extractor handles.
	SupportedTypes() []domain.FileType

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract parses content and returns its text and structural metadata.
	Extract(ctx context.Context, content []byte) (*domain.Extraction, error)
}

// ExtractorRegistry selects the extractor for a declared file type.
type ExtractorRegistry interface {
	// Extract runs the highest priority extractor for fileType.
	// Returns an error wrapping domain.ErrUnsupportedFormat when none exists.
	Extract(ctx context.Context, fileType domain.FileType, content []byte) (*domain.Extraction, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedTypes returns all file types that can be extracted.
	SupportedTypes() []domain.FileType
}

// AssistedExtractor delegates extraction of complex layouts to an AI service.
type AssistedExtractor interface {
	// ExtractText returns the document text for content of fileType.
	ExtractText(ctx context.Context, content []byte, fileType domain.FileType) (string, error)
}
