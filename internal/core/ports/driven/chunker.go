package driven

import (
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// Chunker splits extracted text into ordered chunks.
// Every strategy returns chunks with contiguous indices starting at 0,
// exact substrings of the input, and no whitespace-only chunks.
type Chunker interface {
	// Name returns the strategy name for logging and configuration.
	Name() string

	// Chunk splits text for the given document. Chunks carry no IDs;
	// persistence assigns them.
	Chunk(documentID, text string) ([]domain.Chunk, error)
}
