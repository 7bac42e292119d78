package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/storage/memory"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func seedDocument(t *testing.T, store *memory.Store, id string, status domain.ProcessingStatus) {
	t.Helper()
	require.NoError(t, store.SaveDocument(context.Background(), &domain.Document{
		ID:         id,
		Title:      id,
		FileType:   domain.FileTypeTXT,
		ModuleID:   "mod-1",
		TeacherID:  "teacher-1",
		FileHash:   "hash-" + id,
		Status:     status,
		Metadata:   domain.ProcessingMetadata{},
		UploadedAt: fixedNow,
	}))
}

func newTestStatusService(store *memory.Store) *StatusService {
	svc := NewStatusService(store)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestStatusService_AdvanceStampsMetadata(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedDocument(t, store, "doc-1", domain.StatusUploaded)
	svc := newTestStatusService(store)

	doc, err := svc.Advance(ctx, "doc-1", domain.ExtractingStage{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExtracting, doc.Status)

	doc, err = svc.Advance(ctx, "doc-1", domain.ExtractedStage{CharCount: 42, Method: domain.ExtractionStandard})
	require.NoError(t, err)
	assert.Equal(t, 42, doc.Metadata.Int("char_count"))
	assert.Equal(t, "standard", doc.Metadata.String("extraction_method"))

	at, ok := doc.Metadata.Timestamp(domain.StatusExtracted)
	require.True(t, ok)
	assert.True(t, at.Equal(fixedNow))

	stored, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExtracted, stored.Status)
}

func TestStatusService_AdvanceRejectsSkips(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedDocument(t, store, "doc-1", domain.StatusUploaded)
	svc := newTestStatusService(store)

	_, err := svc.Advance(ctx, "doc-1", domain.IndexedStage{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusUploaded, te.From)
	assert.Equal(t, domain.StatusIndexed, te.To)

	stored, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUploaded, stored.Status, "status unchanged")
}

func TestStatusService_FailRecordsStage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedDocument(t, store, "doc-1", domain.StatusExtracting)
	svc := newTestStatusService(store)

	cause := &domain.ExtractionError{FileType: domain.FileTypePDF, Cause: errors.New("corrupt")}
	doc, err := svc.Fail(ctx, "doc-1", domain.FileTypePDF, cause)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Equal(t, "extracting", doc.Metadata.String("failed_stage"))
	assert.Contains(t, doc.Metadata.String("error"), "corrupt")

	stage, ok := domain.CurrentStage(doc).(domain.FailedStage)
	require.True(t, ok)
	assert.Equal(t, "ExtractionFailed", stage.ErrorType)
	assert.Equal(t, domain.FileTypePDF, stage.FileType)

	// A second failure keeps the original stage.
	doc, err = svc.Fail(ctx, "doc-1", domain.FileTypePDF, errors.New("again"))
	require.NoError(t, err)
	assert.Equal(t, "extracting", doc.Metadata.String("failed_stage"))
}

func TestStatusService_Get(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedDocument(t, store, "ready", domain.StatusIndexed)
	seedDocument(t, store, "broken", domain.StatusFailed)
	svc := newTestStatusService(store)

	report, err := svc.Get(ctx, "ready")
	require.NoError(t, err)
	assert.True(t, report.IsReady)
	assert.False(t, report.HasError)

	report, err = svc.Get(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, report.IsReady)
	assert.True(t, report.HasError)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusService_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("failed to uploaded clears error", func(t *testing.T) {
		store := memory.NewStore()
		seedDocument(t, store, "doc-1", domain.StatusExtracting)
		svc := newTestStatusService(store)
		_, err := svc.Fail(ctx, "doc-1", domain.FileTypeTXT, errors.New("boom"))
		require.NoError(t, err)

		doc, err := svc.Retry(ctx, "doc-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUploaded, doc.Status)
		assert.Equal(t, "retry", doc.Metadata.String("retry_reason"))
		assert.NotContains(t, doc.Metadata, "error")
		assert.NotContains(t, doc.Metadata, "failed_stage")
	})

	t.Run("failed to failed stage", func(t *testing.T) {
		store := memory.NewStore()
		seedDocument(t, store, "doc-1", domain.StatusEmbedding)
		svc := newTestStatusService(store)
		_, err := svc.Fail(ctx, "doc-1", domain.FileTypeTXT, errors.New("boom"))
		require.NoError(t, err)

		_, err = svc.Retry(ctx, "doc-1", domain.StatusChunking)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		doc, err := svc.Retry(ctx, "doc-1", domain.StatusEmbedding)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEmbedding, doc.Status)
	})

	t.Run("indexed reprocess", func(t *testing.T) {
		store := memory.NewStore()
		seedDocument(t, store, "doc-1", domain.StatusIndexed)
		svc := newTestStatusService(store)

		doc, err := svc.Retry(ctx, "doc-1", domain.StatusUploaded)
		require.NoError(t, err)
		assert.Equal(t, "reprocess", doc.Metadata.String("retry_reason"))
	})

	t.Run("in-flight document", func(t *testing.T) {
		store := memory.NewStore()
		seedDocument(t, store, "doc-1", domain.StatusChunking)
		svc := newTestStatusService(store)

		_, err := svc.Retry(ctx, "doc-1", domain.StatusUploaded)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestStatusService_Enter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedDocument(t, store, "chunked", domain.StatusChunked)
	seedDocument(t, store, "embedded", domain.StatusEmbedded)
	seedDocument(t, store, "uploaded", domain.StatusUploaded)
	svc := newTestStatusService(store)

	doc, err := svc.Enter(ctx, "chunked", domain.EmbeddingStage{Pending: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Metadata.Int("embedding_pending"))

	_, err = svc.Enter(ctx, "embedded", domain.EmbeddingStage{Pending: 1})
	assert.NoError(t, err, "embedded re-enters embedding on retry")

	_, err = svc.Enter(ctx, "uploaded", domain.EmbeddingStage{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
