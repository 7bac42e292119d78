package driven

import (
	"context"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// VectorIndex provides scoped semantic similarity search.
//
// The reference implementation is a linear cosine scan over stored
// embeddings. An approximate nearest neighbour index may implement the
// same contract as long as ordering is identical: descending similarity,
// ties broken by lower chunk index.
type VectorIndex interface {
	// Search returns up to limit chunks inside scope, most similar first.
	// Candidates outside scope are never considered. A limit <= 0
	// returns every candidate.
	Search(ctx context.Context, query []float32, scope domain.SearchScope, limit int) ([]domain.ScoredChunk, error)
}
