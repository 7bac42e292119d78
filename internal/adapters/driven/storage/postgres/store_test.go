package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// openTestStore connects to TEST_POSTGRES_DSN or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres store tests")
	}
	store, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestDocument(t *testing.T, store *Store, moduleID string) *domain.Document {
	t.Helper()
	id := uuid.New().String()
	doc := &domain.Document{
		ID:         id,
		Title:      "Doc",
		FileName:   "doc.txt",
		FileType:   domain.FileTypeTXT,
		FileHash:   "hash-" + id,
		TeacherID:  "teacher-1",
		ModuleID:   moduleID,
		Status:     domain.StatusUploaded,
		Metadata:   domain.ProcessingMetadata{"file_size": 7},
		UploadedAt: time.Now(),
	}
	require.NoError(t, store.SaveDocument(context.Background(), doc))
	t.Cleanup(func() { _ = store.DeleteDocument(context.Background(), id) })
	return doc
}

func TestToJSON(t *testing.T) {
	assert.JSONEq(t, `{}`, string(toJSON(nil)))
	assert.JSONEq(t, `{}`, string(toJSON(map[string]any(nil))))
	assert.JSONEq(t, `{"a":1}`, string(toJSON(map[string]any{"a": 1})))
}

func TestChunkRowToDomain(t *testing.T) {
	row := chunkRow{
		ID:          "c1",
		DocumentID:  "d1",
		ChunkIndex:  2,
		Text:        "text",
		Size:        4,
		StartOffset: 10,
		EndOffset:   14,
		Metadata:    toJSON(map[string]any{"chunk_index": 2}),
	}
	c, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Index)
	assert.Equal(t, 10, c.Start)
	assert.Equal(t, 14, c.End)
	assert.InDelta(t, 2.0, c.Metadata["chunk_index"], 0)
}

func TestStore_DocumentLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	module := "pg-" + uuid.New().String()

	doc := newTestDocument(t, store, module)

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Metadata.Int("file_size"))

	dup := *doc
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, store.SaveDocument(ctx, &dup), domain.ErrDuplicateDocument)

	found, err := store.FindByHash(ctx, doc.TeacherID, module, doc.FileHash)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)

	require.NoError(t, store.UpdateStatus(ctx, doc.ID, domain.StatusIndexed, domain.ProcessingMetadata{"x": "y"}))
	listed, err := store.ListDocuments(ctx, domain.DocumentFilter{
		ModuleID: module,
		Statuses: []domain.ProcessingStatus{domain.StatusIndexed},
	})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "y", listed[0].Metadata.String("x"))
}

func TestStore_ChunksEmbeddingsAndSearch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	module := "pg-" + uuid.New().String()

	doc := newTestDocument(t, store, module)
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, []domain.Chunk{
		{Index: 0, Text: "a", Size: 1, Start: 0, End: 1},
		{Index: 1, Text: "b", Size: 1, Start: 1, End: 2},
	}))
	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	require.NoError(t, store.SaveEmbeddings(ctx, []domain.Embedding{
		{ChunkID: chunks[0].ID, DocumentID: doc.ID, Vector: []float32{1, 0}},
	}))
	require.NoError(t, store.UpdateStatus(ctx, doc.ID, domain.StatusEmbedded, domain.ProcessingMetadata{}))

	pending, err := store.ChunksWithoutEmbeddings(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Index)

	gaps, err := store.EmbeddingGaps(ctx, []domain.ProcessingStatus{domain.StatusEmbedded})
	require.NoError(t, err)
	assert.Contains(t, gaps, domain.EmbeddingGap{DocumentID: doc.ID, ChunkCount: 2, EmbeddingCount: 1})

	results, err := store.Search(ctx, []float32{1, 0}, domain.SearchScope{ModuleID: module}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)

	require.NoError(t, store.DeleteDocument(ctx, doc.ID))
	n, err := store.CountEmbeddings(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
