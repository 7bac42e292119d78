package services

import (
	"context"
	"fmt"
	"time"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService moves documents through the processing state machine.
// Every status change in the pipeline goes through it.
type StatusService struct {
	docStore driven.DocumentStore
	now      func() time.Time
}

// NewStatusService creates a new status service.
func NewStatusService(docStore driven.DocumentStore) *StatusService {
	return &StatusService{
		docStore: docStore,
		now:      time.Now,
	}
}

// Get returns the status report for a document.
func (s *StatusService) Get(ctx context.Context, documentID string) (*domain.StatusReport, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return domain.NewStatusReport(doc), nil
}

// Advance applies a normal pipeline transition and returns the updated document.
func (s *StatusService) Advance(ctx context.Context, documentID string, stage domain.Stage) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if !domain.CanAdvance(doc.Status, stage.Status()) {
		return nil, &domain.TransitionError{From: doc.Status, To: stage.Status()}
	}
	return s.apply(ctx, doc, stage)
}

// Fail records a stage failure. The document's current status is kept
// as the failed stage.
func (s *StatusService) Fail(
	ctx context.Context, documentID string, fileType domain.FileType, cause error,
) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.Status == domain.StatusFailed {
		return doc, nil
	}
	logger.Warn("Document %s failed during %s: %v", documentID, doc.Status, cause)
	return s.apply(ctx, doc, domain.NewFailed(doc.Status, fileType, cause))
}

// Retry resets a document along an explicit retry edge.
// An empty status means StatusUploaded.
func (s *StatusService) Retry(
	ctx context.Context, documentID string, to domain.ProcessingStatus,
) (*domain.Document, error) {
	if to == "" {
		to = domain.StatusUploaded
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	failedStage := domain.ProcessingStatus(doc.Metadata.String("failed_stage"))
	if !domain.CanRetry(doc.Status, to, failedStage) {
		return nil, &domain.TransitionError{From: doc.Status, To: to}
	}

	stage := retryStage(doc, to)
	if stage == nil {
		return nil, &domain.TransitionError{From: doc.Status, To: to}
	}
	logger.Info("Retrying document %s: %s -> %s", documentID, doc.Status, to)
	return s.apply(ctx, doc, stage)
}

// Enter moves a document into stage along either a normal or a retry
// edge. The embedding generator uses it to re-enter embedding from
// chunked or embedded.
func (s *StatusService) Enter(ctx context.Context, documentID string, stage domain.Stage) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	to := stage.Status()
	failedStage := domain.ProcessingStatus(doc.Metadata.String("failed_stage"))
	if !domain.CanAdvance(doc.Status, to) && !domain.CanRetry(doc.Status, to, failedStage) {
		return nil, &domain.TransitionError{From: doc.Status, To: to}
	}
	return s.apply(ctx, doc, stage)
}

func (s *StatusService) apply(ctx context.Context, doc *domain.Document, stage domain.Stage) (*domain.Document, error) {
	metadata := doc.Metadata.Apply(stage, s.now())
	if err := s.docStore.UpdateStatus(ctx, doc.ID, stage.Status(), metadata); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	logger.Debug("Document %s: %s -> %s", doc.ID, doc.Status, stage.Status())

	doc.Status = stage.Status()
	doc.Metadata = metadata
	return doc, nil
}

// retryStage returns the stage recorded when doc re-enters to.
// Chunking keeps the parameters of the failed attempt.
func retryStage(doc *domain.Document, to domain.ProcessingStatus) domain.Stage {
	switch to {
	case domain.StatusUploaded:
		reason := "retry"
		if doc.Status == domain.StatusIndexed {
			reason = "reprocess"
		}
		return domain.UploadedStage{Reason: reason}
	case domain.StatusExtracting:
		return domain.ExtractingStage{}
	case domain.StatusChunking:
		return domain.ChunkingStage{
			Strategy: doc.Metadata.String("chunk_strategy"),
			Size:     doc.Metadata.Int("chunk_size"),
			Overlap:  doc.Metadata.Int("chunk_overlap"),
		}
	case domain.StatusEmbedding:
		return domain.EmbeddingStage{}
	default:
		return nil
	}
}
