package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure EmbeddingGenerator implements the interface.
var _ driving.EmbeddingGenerator = (*EmbeddingGenerator)(nil)

// retryStatuses are the states RetryMissing scans for gaps.
var retryStatuses = []domain.ProcessingStatus{domain.StatusChunked, domain.StatusEmbedded}

// EmbeddingGenerator embeds a document's chunks in sequential batches.
// Each successful batch is persisted before the next one starts, so a
// failure never loses completed work.
type EmbeddingGenerator struct {
	store     driven.Store
	embedder  driven.EmbeddingService
	status    *StatusService
	batchSize int
}

// NewEmbeddingGenerator creates a new embedding generator.
// A batchSize <= 0 uses domain.DefaultBatchSize.
func NewEmbeddingGenerator(
	store driven.Store,
	embedder driven.EmbeddingService,
	status *StatusService,
	batchSize int,
) *EmbeddingGenerator {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &EmbeddingGenerator{
		store:     store,
		embedder:  embedder,
		status:    status,
		batchSize: batchSize,
	}
}

// EmbedDocument embeds every chunk of a document that lacks a vector.
// It returns the number of embeddings created. An indexed document with
// nothing pending is left as is and reports 0.
//
//nolint:gocyclo // Sequential batch loop with per-outcome status handling
func (g *EmbeddingGenerator) EmbedDocument(ctx context.Context, documentID string) (int, error) {
	if g.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	// 1. Load the chunks still missing a vector
	pending, err := g.store.ChunksWithoutEmbeddings(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("load pending chunks: %w", err)
	}

	// 2. Enter embedding (normal edge from chunked, retry edge from embedded)
	doc, err := g.store.GetDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("get document: %w", err)
	}
	if len(pending) == 0 && doc.Status == domain.StatusIndexed {
		logger.Debug("Document %s is already indexed", documentID)
		return 0, nil
	}
	if doc.Status != domain.StatusEmbedding {
		if _, err := g.status.Enter(ctx, documentID, domain.EmbeddingStage{Pending: len(pending)}); err != nil {
			return 0, err
		}
	}

	logger.Info("Embedding %d chunks of %s in batches of %d", len(pending), documentID, g.batchSize)

	// 3. Process batches sequentially, persisting each success
	var (
		created  int
		failed   int
		firstErr error
	)
	for batch, start := 1, 0; start < len(pending); batch, start = batch+1, start+g.batchSize {
		end := min(start+g.batchSize, len(pending))
		if err := ctx.Err(); err != nil {
			failed++
			if firstErr == nil {
				firstErr = &domain.EmbeddingBatchError{Batch: batch, Start: start, End: len(pending), Cause: err}
			}
			break
		}

		n, err := g.embedBatch(ctx, doc, pending[start:end])
		if err != nil {
			batchErr := &domain.EmbeddingBatchError{Batch: batch, Start: start, End: end, Cause: err}
			logger.Warn("Document %s: %v", documentID, batchErr)
			failed++
			if firstErr == nil {
				firstErr = batchErr
			}
			continue
		}
		created += n
		logger.Debug("Document %s: batch %d stored %d embeddings", documentID, batch, n)
	}

	// 4. Decide the resulting status from what is stored now
	total, err := g.store.CountEmbeddings(ctx, documentID)
	if err != nil {
		return created, fmt.Errorf("count embeddings: %w", err)
	}
	chunks, err := g.store.CountChunks(ctx, documentID)
	if err != nil {
		return created, fmt.Errorf("count chunks: %w", err)
	}
	missing := chunks - total

	switch {
	case total == 0 && chunks > 0:
		// Nothing stored: fall back to chunked so the document can be retried.
		reason := "no embeddings generated"
		if firstErr != nil {
			reason = firstErr.Error()
		}
		if _, err := g.status.Advance(ctx, documentID, domain.ChunkedStage{
			ChunkCount:     chunks,
			EmbeddingError: reason,
		}); err != nil {
			return 0, err
		}
		if firstErr == nil {
			firstErr = domain.ErrEmbeddingBatchFailed
		}
		return 0, fmt.Errorf("embed document %s: %w", documentID, firstErr)

	case missing > 0:
		if _, err := g.status.Advance(ctx, documentID, domain.EmbeddedStage{
			Count:         total,
			Model:         g.embedder.ModelName(),
			FailedBatches: failed,
			Missing:       missing,
		}); err != nil {
			return created, err
		}
		logger.Warn("Document %s is missing %d embeddings; run an embedding retry to complete it", documentID, missing)
		return created, nil

	default:
		if _, err := g.status.Advance(ctx, documentID, domain.EmbeddedStage{
			Count:         total,
			Model:         g.embedder.ModelName(),
			FailedBatches: failed,
		}); err != nil {
			return created, err
		}
		if _, err := g.status.Advance(ctx, documentID, domain.IndexedStage{}); err != nil {
			return created, err
		}
		logger.Info("Document %s indexed with %d embeddings", documentID, total)
		return created, nil
	}
}

// embedBatch embeds and stores one batch. Nothing is stored unless every
// vector matches the model's declared dimensions (when it declares any).
func (g *EmbeddingGenerator) embedBatch(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	result, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(result.Vectors) != len(chunks) {
		return 0, fmt.Errorf("provider returned %d vectors for %d texts", len(result.Vectors), len(chunks))
	}

	tokensPerChunk := result.TotalTokens / len(chunks)
	now := time.Now()
	model := g.embedder.ModelName()
	dims := g.embedder.Dimensions()

	embeddings := make([]domain.Embedding, len(chunks))
	for i := range chunks {
		vec := result.Vectors[i]
		if len(vec) == 0 {
			return 0, fmt.Errorf("empty vector for chunk %d", chunks[i].Index)
		}
		if dims > 0 && len(vec) != dims {
			return 0, fmt.Errorf("%w: chunk %d has %d dimensions, %s declares %d",
				domain.ErrDimensionMismatch, chunks[i].Index, len(vec), model, dims)
		}
		embeddings[i] = domain.Embedding{
			ID:         uuid.New().String(),
			ChunkID:    chunks[i].ID,
			DocumentID: doc.ID,
			Vector:     vec,
			Dimensions: len(vec),
			Model:      model,
			TokenCount: tokensPerChunk,
			CreatedAt:  now,
		}
	}

	if err := g.store.SaveEmbeddings(ctx, embeddings); err != nil {
		return 0, fmt.Errorf("save embeddings: %w", err)
	}
	return len(embeddings), nil
}

// RetryMissing embeds only the missing chunks of chunked and embedded
// documents. Per-document failures are logged and reported, not returned.
func (g *EmbeddingGenerator) RetryMissing(ctx context.Context) (*domain.RetryReport, error) {
	logger.Section("Embedding Retry")

	gaps, err := g.store.EmbeddingGaps(ctx, retryStatuses)
	if err != nil {
		return nil, fmt.Errorf("find embedding gaps: %w", err)
	}

	report := &domain.RetryReport{
		Checked:    len(gaps),
		Completed:  []string{},
		Incomplete: []string{},
	}
	for _, gap := range gaps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger.Debug("Document %s: %d of %d chunks missing", gap.DocumentID, gap.Missing(), gap.ChunkCount)
		created, err := g.EmbedDocument(ctx, gap.DocumentID)
		report.Created += created
		if err != nil && !errors.Is(err, domain.ErrEmbeddingBatchFailed) {
			logger.Warn("Retry for %s failed: %v", gap.DocumentID, err)
		}

		doc, getErr := g.store.GetDocument(ctx, gap.DocumentID)
		if getErr == nil && doc.IsReady() {
			report.Completed = append(report.Completed, gap.DocumentID)
		} else {
			report.Incomplete = append(report.Incomplete, gap.DocumentID)
		}
	}

	logger.Info("Embedding retry: %d checked, %d created, %d completed", report.Checked, report.Created, len(report.Completed))
	return report, nil
}
