package driven

import (
	"context"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// DocumentStore persists documents and their processing state.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	// Returns domain.ErrDuplicateDocument when another document has the
	// same teacher, module and file hash.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// FindByHash returns the document with the given uniqueness key.
	FindByHash(ctx context.Context, teacherID, moduleID, fileHash string) (*domain.Document, error)

	// ListDocuments returns documents matching filter, oldest first.
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// UpdateStatus replaces a document's status and metadata.
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, metadata domain.ProcessingMetadata) error

	// DeleteDocument removes a document with its chunks and embeddings.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkStore persists chunks.
type ChunkStore interface {
	// ReplaceChunks deletes a document's chunks (and their embeddings)
	// and stores the given set.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunks returns a document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// CountChunks returns the number of chunks for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)
}

// EmbeddingStore persists embeddings.
type EmbeddingStore interface {
	// SaveEmbeddings stores a batch of embeddings atomically.
	// An existing embedding for the same chunk is replaced.
	SaveEmbeddings(ctx context.Context, embeddings []domain.Embedding) error

	// CountEmbeddings returns the number of embeddings for a document.
	CountEmbeddings(ctx context.Context, documentID string) (int, error)

	// ChunksWithoutEmbeddings returns a document's chunks that have no
	// embedding, ordered by index.
	ChunksWithoutEmbeddings(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// EmbeddingGaps returns documents in one of statuses whose chunk
	// count exceeds their embedding count.
	EmbeddingGaps(ctx context.Context, statuses []domain.ProcessingStatus) ([]domain.EmbeddingGap, error)
}

// Store aggregates the persistence ports that one backend provides.
type Store interface {
	DocumentStore
	ChunkStore
	EmbeddingStore
	VectorIndex

	// Close releases the backend.
	Close() error
}
