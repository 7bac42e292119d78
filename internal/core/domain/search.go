package domain

// SearchScope restricts similarity search candidates.
// Candidates outside the scope are filtered before ranking.
type SearchScope struct {
	// DocumentIDs restricts to these documents when non-empty.
	DocumentIDs []string

	// ModuleID restricts to documents of one module when set.
	ModuleID string
}

// IsEmpty reports whether the scope places no restriction.
func (s SearchScope) IsEmpty() bool {
	return len(s.DocumentIDs) == 0 && s.ModuleID == ""
}

// ContainsDocument reports whether a document ID is inside DocumentIDs.
// An empty DocumentIDs list contains everything.
func (s SearchScope) ContainsDocument(id string) bool {
	if len(s.DocumentIDs) == 0 {
		return true
	}
	for _, d := range s.DocumentIDs {
		if d == id {
			return true
		}
	}
	return false
}

// ScoredChunk is a chunk paired with its similarity to a query.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Similarity is the cosine similarity in [-1, 1].
	Similarity float64
}

// ContextRequest is the input of retrieve_context.
type ContextRequest struct {
	// Question is the question text.
	Question string

	// Answer is the draft or student answer. May be empty.
	Answer string

	// ModuleID is the retrieval scope.
	ModuleID string

	// MaxChunks caps the number of chunks returned.
	MaxChunks int

	// Threshold is the minimum similarity, between 0 and 1.
	// Nil uses the configured default. Zero keeps every match.
	Threshold *float64
}

// Threshold returns a pointer to v for ContextRequest.Threshold.
func Threshold(v float64) *float64 {
	return &v
}

// RetrievedChunk is one piece of grounding material with provenance.
type RetrievedChunk struct {
	ChunkID       string         `json:"chunk_id"`
	DocumentID    string         `json:"document_id"`
	DocumentTitle string         `json:"document_title"`
	ChunkIndex    int            `json:"chunk_index"`
	Text          string         `json:"text"`
	Similarity    float64        `json:"similarity"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ContextResult is the output of retrieve_context.
// HasContext false with empty slices is a normal outcome.
type ContextResult struct {
	HasContext       bool             `json:"has_context"`
	Chunks           []RetrievedChunk `json:"chunks"`
	Sources          []string         `json:"sources"`
	FormattedContext string           `json:"formatted_context"`
}

// EmptyContext returns a result with no grounding material.
func EmptyContext() *ContextResult {
	return &ContextResult{
		Chunks:  []RetrievedChunk{},
		Sources: []string{},
	}
}
