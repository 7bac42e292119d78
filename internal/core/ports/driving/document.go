package driving

import (
	"context"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// IngestService takes uploads through the processing pipeline.
type IngestService interface {
	// Ingest creates a document in StatusUploaded from an upload.
	// Returns domain.ErrDuplicateDocument if the same file already exists
	// for the teacher and module.
	Ingest(ctx context.Context, upload domain.Upload) (*domain.Document, error)

	// Process runs extraction, chunking and embedding for a document.
	// Stage failures are recorded on the document and also returned.
	Process(ctx context.Context, documentID string) (*domain.Document, error)

	// Reprocess resets an indexed or failed document to StatusUploaded
	// and runs the pipeline again.
	Reprocess(ctx context.Context, documentID string) (*domain.Document, error)
}

// DocumentService gives read and delete access to documents.
type DocumentService interface {
	// List returns documents matching filter.
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns a document's chunks in order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document with its chunks and embeddings.
	Delete(ctx context.Context, documentID string) error
}

// StatusService answers get_status and performs explicit retries.
type StatusService interface {
	// Get returns the status report for a document.
	Get(ctx context.Context, documentID string) (*domain.StatusReport, error)

	// Retry resets a failed or indexed document to the given status.
	// An empty status means StatusUploaded.
	Retry(ctx context.Context, documentID string, to domain.ProcessingStatus) (*domain.Document, error)
}
