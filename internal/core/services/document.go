package services

import (
	"context"
	"fmt"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages stored documents.
type DocumentService struct {
	store driven.Store
	files driven.FileStore
}

// NewDocumentService creates a new document service.
// files may be nil, in which case original bytes are left in place on delete.
func NewDocumentService(store driven.Store, files driven.FileStore) *DocumentService {
	return &DocumentService{
		store: store,
		files: files,
	}
}

// List returns documents matching filter, oldest first.
func (s *DocumentService) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx, filter)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

// Chunks returns a document's chunks in order.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	// Verify document exists
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.GetChunks(ctx, documentID)
}

// Delete removes a document, its chunks and embeddings, and its stored file.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if s.files != nil && doc.StoragePath != "" {
		if err := s.files.Delete(ctx, doc.StoragePath); err != nil {
			logger.Warn("Document %s deleted but its file %s remains: %v", documentID, doc.StoragePath, err)
		}
	}

	logger.Info("Deleted document %s (%s)", documentID, doc.Title)
	return nil
}
