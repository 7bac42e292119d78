package driving

import (
	"context"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// ExtractionService implements extract(file_bytes, file_type).
type ExtractionService interface {
	// Extract returns the text and structural metadata of content.
	Extract(ctx context.Context, content []byte, fileType domain.FileType, opts domain.ExtractOptions) (*domain.Extraction, error)

	// SupportedTypes returns all file types that can be extracted.
	SupportedTypes() []domain.FileType
}

// EmbeddingGenerator implements embed_document and the explicit retry pass.
type EmbeddingGenerator interface {
	// EmbedDocument embeds every chunk of a document that lacks a vector
	// and returns the number of embeddings created.
	EmbedDocument(ctx context.Context, documentID string) (int, error)

	// RetryMissing scans chunked and embedded documents for missing
	// embeddings and fills only the gaps.
	RetryMissing(ctx context.Context) (*domain.RetryReport, error)
}

// RetrievalService implements retrieve_context.
type RetrievalService interface {
	// RetrieveContext returns ranked grounding material for a question and
	// answer. Missing context is reported with HasContext false, not an error.
	RetrieveContext(ctx context.Context, req domain.ContextRequest) (*domain.ContextResult, error)
}
