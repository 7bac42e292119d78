package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
	"github.com/All-Pilot-Modules/ai-pilot/internal/vectors"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// searchConcurrency bounds the per-document searches run at once.
const searchConcurrency = 8

// RetrievalService assembles grounding context for a question and answer.
type RetrievalService struct {
	store    driven.Store
	embedder driven.EmbeddingService
	cache    driven.QueryCache
	defaults domain.RetrievalSettings
}

// NewRetrievalService creates a new retrieval service.
// Zero defaults fall back to domain.DefaultMaxChunks and domain.DefaultThreshold.
func NewRetrievalService(
	store driven.Store,
	embedder driven.EmbeddingService,
	defaults domain.RetrievalSettings,
) *RetrievalService {
	if defaults.MaxChunks <= 0 {
		defaults.MaxChunks = domain.DefaultMaxChunks
	}
	if defaults.Threshold <= 0 {
		defaults.Threshold = domain.DefaultThreshold
	}
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		defaults: defaults,
	}
}

// SetQueryCache sets the optional cache for query embeddings.
func (s *RetrievalService) SetQueryCache(cache driven.QueryCache) {
	s.cache = cache
}

// RetrieveContext returns ranked grounding material for a question and answer.
func (s *RetrievalService) RetrieveContext(ctx context.Context, req domain.ContextRequest) (*domain.ContextResult, error) {
	logger.Section("Context Retrieval")

	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if req.ModuleID == "" {
		return nil, fmt.Errorf("%w: module is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	maxChunks := req.MaxChunks
	if maxChunks <= 0 {
		maxChunks = s.defaults.MaxChunks
	}
	threshold := s.defaults.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("%w: threshold %.2f outside [0, 1]", domain.ErrInvalidInput, threshold)
		}
	}
	logger.Debug("Module: %s, max chunks: %d, threshold: %.2f", req.ModuleID, maxChunks, threshold)

	// 1. Find retrievable documents in scope
	docs, err := s.store.ListDocuments(ctx, domain.DocumentFilter{
		ModuleID:        req.ModuleID,
		Statuses:        []domain.ProcessingStatus{domain.StatusIndexed},
		ExcludeTestBank: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		logger.Debug("No indexed documents in module %s", req.ModuleID)
		return domain.EmptyContext(), nil
	}

	// 2. Embed the combined query
	query := BuildQuery(req.Question, req.Answer)
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// 3. Search each document, best maxChunks per document
	results, err := s.searchDocuments(ctx, vec, req.ModuleID, docs, maxChunks)
	if err != nil {
		return nil, err
	}
	logger.Debug("Raw results: %d chunks from %d documents", len(results), len(docs))

	// 4. Threshold, rank and truncate
	results = vectors.FilterThreshold(results, threshold)
	vectors.Sort(results)
	if len(results) > maxChunks {
		results = results[:maxChunks]
	}
	if len(results) == 0 {
		logger.Debug("No chunks above threshold %.2f", threshold)
		return domain.EmptyContext(), nil
	}

	// 5. Attach provenance and format
	titles := make(map[string]string, len(docs))
	for i := range docs {
		titles[docs[i].ID] = docs[i].Title
	}

	result := &domain.ContextResult{
		HasContext: true,
		Chunks:     make([]domain.RetrievedChunk, 0, len(results)),
		Sources:    []string{},
	}
	seen := make(map[string]bool)
	for _, r := range results {
		title := titles[r.Chunk.DocumentID]
		result.Chunks = append(result.Chunks, domain.RetrievedChunk{
			ChunkID:       r.Chunk.ID,
			DocumentID:    r.Chunk.DocumentID,
			DocumentTitle: title,
			ChunkIndex:    r.Chunk.Index,
			Text:          r.Chunk.Text,
			Similarity:    r.Similarity,
			Metadata:      r.Chunk.Metadata,
		})
		if !seen[title] {
			seen[title] = true
			result.Sources = append(result.Sources, title)
		}
	}
	result.FormattedContext = FormatContext(result.Chunks)

	logger.Info("%s", Summary(result))
	return result, nil
}

// searchDocuments runs one scoped search per document concurrently.
// A failing document is logged and skipped.
func (s *RetrievalService) searchDocuments(
	ctx context.Context, vec []float32, moduleID string, docs []domain.Document, limit int,
) ([]domain.ScoredChunk, error) {
	var (
		mu      sync.Mutex
		results []domain.ScoredChunk
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)

	for i := range docs {
		docID := docs[i].ID
		g.Go(func() error {
			found, err := s.store.Search(gctx, vec, domain.SearchScope{
				DocumentIDs: []string{docID},
				ModuleID:    moduleID,
			}, limit)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("Search failed for document %s: %v", docID, err)
				return nil
			}
			mu.Lock()
			results = append(results, found...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// embedQuery embeds text, consulting the query cache when one is set.
// Cache failures never fail retrieval.
func (s *RetrievalService) embedQuery(ctx context.Context, text string) ([]float32, error) {
	model := s.embedder.ModelName()
	if s.cache != nil {
		vec, ok, err := s.cache.Get(ctx, model, text)
		if err != nil {
			logger.Debug("Query cache read failed: %v", err)
		} else if ok {
			logger.Debug("Query cache hit")
			return vec, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, model, text, vec); err != nil {
			logger.Debug("Query cache write failed: %v", err)
		}
	}
	return vec, nil
}

// BuildQuery combines a question and an answer into one search query.
func BuildQuery(question, answer string) string {
	return fmt.Sprintf("Question: %s\nAnswer: %s", question, answer)
}

// FormatContext renders retrieved chunks as a prompt block with numbered
// source citations. No chunks render as "".
func FormatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := []string{
		"\n=== RELEVANT COURSE MATERIAL ===\n",
		"Use the following course material to provide context-aware feedback:\n",
	}
	for i, c := range chunks {
		parts = append(parts,
			fmt.Sprintf("\n[Source %d] From: %s (Relevance: %d%%)", i+1, c.DocumentTitle, percent(c.Similarity)),
			c.Text+"\n",
		)
	}
	parts = append(parts,
		"\n=== END OF COURSE MATERIAL ===\n",
		"\nWhen providing feedback:",
		"- Reference specific concepts from the course material above",
		"- If the student's answer aligns with or contradicts the material, mention it",
		"- Cite sources when appropriate (e.g., 'As mentioned in [Source 1]...')\n",
	)
	return strings.Join(parts, "\n")
}

// Summary describes a context result in one line.
func Summary(result *domain.ContextResult) string {
	if result == nil || !result.HasContext || len(result.Chunks) == 0 {
		return "No course material context available"
	}

	var total float64
	for _, c := range result.Chunks {
		total += c.Similarity
	}
	avg := total / float64(len(result.Chunks))

	return fmt.Sprintf("Retrieved %d relevant chunks from: %s (avg relevance: %d%%)",
		len(result.Chunks), strings.Join(result.Sources, ", "), percent(avg))
}

// percent truncates a similarity to a whole percentage.
func percent(sim float64) int {
	return int(sim * 100)
}
