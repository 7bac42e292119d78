package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/storage/memory"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// mockEmbedder returns deterministic vectors and fails selected calls.
type mockEmbedder struct {
	mu      sync.Mutex
	calls   [][]string
	failOn  map[int]bool // 1-based call numbers that fail
	vectors map[string][]float32
	short   bool // return one vector too few
	dims    int  // declared dimensions; 0 means 2
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) (*driven.EmbeddingBatch, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	call := len(m.calls)
	m.mu.Unlock()

	if m.failOn[call] {
		return nil, fmt.Errorf("provider 503 on call %d", call)
	}

	out := &driven.EmbeddingBatch{TotalTokens: 10 * len(texts)}
	for _, text := range texts {
		out.Vectors = append(out.Vectors, m.vectorFor(text))
	}
	if m.short {
		out.Vectors = out.Vectors[:len(out.Vectors)-1]
	}
	return out, nil
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return []float32{float32(len(text)), 1}
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 2
}

func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// seedChunkedDocument stores a chunked document with n chunks.
func seedChunkedDocument(t *testing.T, store *memory.Store, id string, n int) []domain.Chunk {
	t.Helper()
	seedDocument(t, store, id, domain.StatusChunked)

	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		text := fmt.Sprintf("%s chunk %d", id, i)
		chunks[i] = domain.Chunk{Index: i, Text: text, Size: len(text)}
	}
	require.NoError(t, store.ReplaceChunks(context.Background(), id, chunks))

	stored, err := store.GetChunks(context.Background(), id)
	require.NoError(t, err)
	return stored
}

func newTestGenerator(store *memory.Store, embedder driven.EmbeddingService, batchSize int) *EmbeddingGenerator {
	return NewEmbeddingGenerator(store, embedder, newTestStatusService(store), batchSize)
}

func TestEmbeddingGenerator_AllBatchesSucceed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedChunkedDocument(t, store, "doc-1", 5)
	embedder := &mockEmbedder{}
	gen := newTestGenerator(store, embedder, 2)

	created, err := gen.EmbedDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 5, created)
	assert.Len(t, embedder.calls, 3, "batches of 2, 2 and 1")

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
	assert.Equal(t, 5, doc.Metadata.Int("embedding_count"))
	assert.Equal(t, "mock-embed", doc.Metadata.String("embedding_model"))
	assert.Equal(t, false, doc.Metadata["embedding_incomplete"])

	_, ok := doc.Metadata.Timestamp(domain.StatusEmbedded)
	assert.True(t, ok)
}

func TestEmbeddingGenerator_StoredVectorsAreSearchable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chunks := seedChunkedDocument(t, store, "doc-1", 3)
	gen := newTestGenerator(store, &mockEmbedder{}, 3)

	_, err := gen.EmbedDocument(ctx, "doc-1")
	require.NoError(t, err)

	results, err := store.Search(ctx, []float32{float32(len(chunks[0].Text)), 1}, domain.SearchScope{DocumentIDs: []string{"doc-1"}}, 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestEmbeddingGenerator_PartialFailureThenRetry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chunks := seedChunkedDocument(t, store, "doc-1", 6)
	embedder := &mockEmbedder{failOn: map[int]bool{2: true}}
	gen := newTestGenerator(store, embedder, 2)

	// Batch 2 of 3 fails; batches 1 and 3 are kept.
	created, err := gen.EmbedDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmbedded, doc.Status, "partial documents are not indexed")
	assert.Equal(t, 1, doc.Metadata.Int("failed_batches"))
	assert.Equal(t, 2, doc.Metadata.Int("missing_embeddings"))
	assert.Equal(t, true, doc.Metadata["embedding_incomplete"])

	missing, err := store.ChunksWithoutEmbeddings(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, chunks[2].ID, missing[0].ID)
	assert.Equal(t, chunks[3].ID, missing[1].ID)

	// The retry embeds exactly the missing range.
	embedder.failOn = nil
	report, err := gen.RetryMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, []string{"doc-1"}, report.Completed)
	assert.Empty(t, report.Incomplete)

	last := embedder.calls[len(embedder.calls)-1]
	assert.Equal(t, []string{chunks[2].Text, chunks[3].Text}, last)

	doc, err = store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
	assert.Equal(t, 6, doc.Metadata.Int("embedding_count"))
	assert.Equal(t, 0, doc.Metadata.Int("failed_batches"))
}

func TestEmbeddingGenerator_AllBatchesFail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedChunkedDocument(t, store, "doc-1", 3)
	embedder := &mockEmbedder{failOn: map[int]bool{1: true, 2: true}}
	gen := newTestGenerator(store, embedder, 2)

	created, err := gen.EmbedDocument(ctx, "doc-1")
	assert.Equal(t, 0, created)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingBatchFailed)

	var batchErr *domain.EmbeddingBatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Batch)
	assert.Equal(t, 0, batchErr.Start)
	assert.Equal(t, 2, batchErr.End)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusChunked, doc.Status)
	assert.Contains(t, doc.Metadata.String("embedding_error"), "provider 503")
}

func TestEmbeddingGenerator_VectorCountMismatchIsBatchFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedChunkedDocument(t, store, "doc-1", 2)
	gen := newTestGenerator(store, &mockEmbedder{short: true}, 10)

	_, err := gen.EmbedDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrEmbeddingBatchFailed)

	count, err := store.CountEmbeddings(ctx, "doc-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEmbeddingGenerator_DimensionMismatchStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedChunkedDocument(t, store, "doc-1", 3)
	embedder := &mockEmbedder{dims: 3}
	gen := newTestGenerator(store, embedder, 2)

	created, err := gen.EmbedDocument(ctx, "doc-1")
	assert.Zero(t, created)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.ErrorIs(t, err, domain.ErrEmbeddingBatchFailed)

	count, err := store.CountEmbeddings(ctx, "doc-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusChunked, doc.Status, "left retryable")
	assert.Contains(t, doc.Metadata.String("embedding_error"), "dimension mismatch")

	// A provider returning the declared size completes the retry.
	embedder.dims = 2
	report, err := gen.RetryMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, []string{"doc-1"}, report.Completed)
}

func TestEmbeddingGenerator_IndexedDocumentIsNoop(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedChunkedDocument(t, store, "doc-1", 2)
	embedder := &mockEmbedder{}
	gen := newTestGenerator(store, embedder, 10)

	_, err := gen.EmbedDocument(ctx, "doc-1")
	require.NoError(t, err)
	before, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusIndexed, before.Status)

	created, err := gen.EmbedDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, embedder.calls, 1, "no provider call for an indexed document")

	after, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, after.Status)
	assert.Equal(t, before.Metadata, after.Metadata)
}

func TestEmbeddingGenerator_ZeroChunksIndexes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedChunkedDocument(t, store, "empty", 0)
	embedder := &mockEmbedder{}
	gen := newTestGenerator(store, embedder, 2)

	created, err := gen.EmbedDocument(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, embedder.calls)

	doc, err := store.GetDocument(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
}

func TestEmbeddingGenerator_WrongStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedDocument(t, store, "doc-1", domain.StatusUploaded)
	gen := newTestGenerator(store, &mockEmbedder{}, 2)

	_, err := gen.EmbedDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEmbeddingGenerator_NoProvider(t *testing.T) {
	store := memory.NewStore()
	gen := NewEmbeddingGenerator(store, nil, newTestStatusService(store), 0)

	_, err := gen.EmbedDocument(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, domain.DefaultBatchSize, gen.batchSize)
}

func TestEmbeddingGenerator_CancelledContext(t *testing.T) {
	store := memory.NewStore()
	seedChunkedDocument(t, store, "doc-1", 3)
	embedder := &mockEmbedder{}
	gen := newTestGenerator(store, embedder, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.EmbedDocument(ctx, "doc-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, embedder.calls)
}

func TestEmbeddingGenerator_RetryMissingSkipsCompleteDocuments(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedChunkedDocument(t, store, "done", 2)
	seedChunkedDocument(t, store, "stuck", 2)
	embedder := &mockEmbedder{}
	gen := newTestGenerator(store, embedder, 10)

	_, err := gen.EmbedDocument(ctx, "done")
	require.NoError(t, err)

	embedder.failOn = map[int]bool{2: true}
	report, err := gen.RetryMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Created)
	assert.Equal(t, []string{"stuck"}, report.Incomplete)
}
