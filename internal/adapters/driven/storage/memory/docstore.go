package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/vectors"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is an in-memory implementation of driven.Store.
// Values are copied on the way in and out, so callers never share maps
// or slices with the store.
type Store struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	chunks     map[string][]domain.Chunk      // by document ID, ordered by index
	embeddings map[string]domain.Embedding    // by chunk ID
	byDocument map[string]map[string]struct{} // document ID -> chunk IDs with an embedding
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string][]domain.Chunk),
		embeddings: make(map[string]domain.Embedding),
		byDocument: make(map[string]map[string]struct{}),
	}
}

// ==================== DocumentStore ====================

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.documents {
		other := s.documents[id]
		if other.ID != doc.ID && sameKey(&other, doc) {
			return domain.ErrDuplicateDocument
		}
	}
	s.documents[doc.ID] = copyDocument(doc)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyDocument(&doc)
	return &out, nil
}

// FindByHash returns the document with the given uniqueness key.
func (s *Store) FindByHash(_ context.Context, teacherID, moduleID, fileHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := domain.Document{TeacherID: teacherID, ModuleID: moduleID, FileHash: fileHash}
	for id := range s.documents {
		doc := s.documents[id]
		if sameKey(&doc, &key) {
			out := copyDocument(&doc)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns documents matching filter, oldest first.
func (s *Store) ListDocuments(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if filter.Matches(&doc) {
			result = append(result, copyDocument(&doc))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.Before(result[j].UploadedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// UpdateStatus replaces a document's status and metadata.
func (s *Store) UpdateStatus(_ context.Context, id string, status domain.ProcessingStatus, metadata domain.ProcessingMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.Metadata = metadata.Clone()
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document with its chunks and embeddings.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	s.dropChunksLocked(id)
	delete(s.documents, id)
	return nil
}

// ==================== ChunkStore ====================

// ReplaceChunks deletes a document's chunks and embeddings and stores chunks.
// Chunks without an ID are assigned one.
func (s *Store) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}

	s.dropChunksLocked(documentID)

	stored := make([]domain.Chunk, len(chunks))
	for i := range chunks {
		c := copyChunk(&chunks[i])
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.DocumentID = documentID
		stored[i] = c
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Index < stored[j].Index })
	s.chunks[documentID] = stored
	return nil
}

// GetChunks returns a document's chunks ordered by index.
func (s *Store) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.chunks[documentID]
	out := make([]domain.Chunk, len(src))
	for i := range src {
		out[i] = copyChunk(&src[i])
	}
	return out, nil
}

// CountChunks returns the number of chunks for a document.
func (s *Store) CountChunks(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[documentID]), nil
}

// dropChunksLocked removes a document's chunks and embeddings. Caller holds mu.
func (s *Store) dropChunksLocked(documentID string) {
	for chunkID := range s.byDocument[documentID] {
		delete(s.embeddings, chunkID)
	}
	delete(s.byDocument, documentID)
	delete(s.chunks, documentID)
}

// ==================== EmbeddingStore ====================

// SaveEmbeddings stores a batch of embeddings atomically.
func (s *Store) SaveEmbeddings(_ context.Context, embeddings []domain.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before writing any of it.
	for i := range embeddings {
		e := &embeddings[i]
		if e.ChunkID == "" || len(e.Vector) == 0 {
			return domain.ErrInvalidInput
		}
		if !s.hasChunkLocked(e.DocumentID, e.ChunkID) {
			return domain.ErrNotFound
		}
	}

	for i := range embeddings {
		e := embeddings[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		e.Vector = append([]float32(nil), e.Vector...)
		e.Dimensions = len(e.Vector)
		s.embeddings[e.ChunkID] = e

		set, ok := s.byDocument[e.DocumentID]
		if !ok {
			set = make(map[string]struct{})
			s.byDocument[e.DocumentID] = set
		}
		set[e.ChunkID] = struct{}{}
	}
	return nil
}

// CountEmbeddings returns the number of embeddings for a document.
func (s *Store) CountEmbeddings(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDocument[documentID]), nil
}

// ChunksWithoutEmbeddings returns a document's chunks that have no embedding.
func (s *Store) ChunksWithoutEmbeddings(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	embedded := s.byDocument[documentID]
	var out []domain.Chunk
	for i := range s.chunks[documentID] {
		c := &s.chunks[documentID][i]
		if _, ok := embedded[c.ID]; !ok {
			out = append(out, copyChunk(c))
		}
	}
	return out, nil
}

// EmbeddingGaps returns documents in statuses whose chunks outnumber their embeddings.
func (s *Store) EmbeddingGaps(_ context.Context, statuses []domain.ProcessingStatus) ([]domain.EmbeddingGap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := domain.DocumentFilter{Statuses: statuses}
	var gaps []domain.EmbeddingGap
	for id := range s.documents {
		doc := s.documents[id]
		if !filter.Matches(&doc) {
			continue
		}
		gap := domain.EmbeddingGap{
			DocumentID:     id,
			ChunkCount:     len(s.chunks[id]),
			EmbeddingCount: len(s.byDocument[id]),
		}
		if gap.Missing() > 0 {
			gaps = append(gaps, gap)
		}
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].DocumentID < gaps[j].DocumentID })
	return gaps, nil
}

func (s *Store) hasChunkLocked(documentID, chunkID string) bool {
	for i := range s.chunks[documentID] {
		if s.chunks[documentID][i].ID == chunkID {
			return true
		}
	}
	return false
}

// ==================== VectorIndex ====================

// Search ranks the stored embeddings inside scope by cosine similarity.
func (s *Store) Search(ctx context.Context, query []float32, scope domain.SearchScope, limit int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []vectors.Candidate
	for docID, chunks := range s.chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.inScopeLocked(docID, scope) {
			continue
		}
		for i := range chunks {
			e, ok := s.embeddings[chunks[i].ID]
			if !ok {
				continue
			}
			candidates = append(candidates, vectors.Candidate{
				Chunk:  copyChunk(&chunks[i]),
				Vector: e.Vector,
			})
		}
	}
	return vectors.Rank(query, candidates, limit), nil
}

func (s *Store) inScopeLocked(documentID string, scope domain.SearchScope) bool {
	if !scope.ContainsDocument(documentID) {
		return false
	}
	if scope.ModuleID == "" {
		return true
	}
	doc, ok := s.documents[documentID]
	return ok && doc.ModuleID == scope.ModuleID
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// ==================== Helpers ====================

func sameKey(a, b *domain.Document) bool {
	return a.TeacherID == b.TeacherID && a.ModuleID == b.ModuleID && a.FileHash == b.FileHash && a.FileHash != ""
}

func copyDocument(doc *domain.Document) domain.Document {
	out := *doc
	if doc.Metadata != nil {
		out.Metadata = doc.Metadata.Clone()
	}
	return out
}

func copyChunk(c *domain.Chunk) domain.Chunk {
	out := *c
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
