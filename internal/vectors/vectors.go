// Package vectors implements cosine similarity and the deterministic
// linear-scan ranking shared by every store's VectorIndex.
package vectors

import (
	"math"
	"sort"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// Cosine returns dot(a,b) / (|a||b|). It returns 0 when either vector has
// zero magnitude, and ErrDimensionMismatch when the lengths differ.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Candidate is a stored chunk and its vector.
type Candidate struct {
	Chunk  domain.Chunk
	Vector []float32
}

// Rank scores candidates against query and returns the best limit results.
// Candidates whose dimensions differ from the query are skipped.
// A limit <= 0 returns every scored candidate.
func Rank(query []float32, candidates []Candidate, limit int) []domain.ScoredChunk {
	scored := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		sim, err := Cosine(query, c.Vector)
		if err != nil {
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: c.Chunk, Similarity: sim})
	}

	Sort(scored)

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Sort orders results by descending similarity. Ties go to the lower chunk
// index, then the lower document ID, so equal scores rank the same way on
// every run.
func Sort(results []domain.ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Chunk.Index != b.Chunk.Index {
			return a.Chunk.Index < b.Chunk.Index
		}
		return a.Chunk.DocumentID < b.Chunk.DocumentID
	})
}

// FilterThreshold drops results below threshold. Input order is kept.
func FilterThreshold(results []domain.ScoredChunk, threshold float64) []domain.ScoredChunk {
	kept := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}
