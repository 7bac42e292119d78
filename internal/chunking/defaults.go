package chunking

import (
	"github.com/All-Pilot-Modules/ai-pilot/internal/chunking/fixed"
	"github.com/All-Pilot-Modules/ai-pilot/internal/chunking/sentence"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// RegisterDefaults registers all built-in strategies with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(fixed.Name, buildFixed)
	r.Register(sentence.Name, buildSentence)
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// Chunk splits text with the fixed strategy. It is the plain
// chunk(text, chunk_size, overlap) operation.
func Chunk(text string, chunkSize, overlap int) ([]domain.Chunk, error) {
	c, err := fixed.New(fixed.WithChunkSize(chunkSize), fixed.WithOverlap(overlap))
	if err != nil {
		return nil, err
	}
	return c.Chunk("", text)
}

// buildFixed creates a fixed-window chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildFixed(cfg map[string]any) (driven.Chunker, error) {
	var opts []fixed.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, fixed.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, fixed.WithOverlap(overlap))
	}

	return fixed.New(opts...)
}

// buildSentence creates a sentence chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Maximum characters per chunk (default: 1000)
//   - overlap_sentences (int): Sentences repeated in the next chunk (default: 2)
func buildSentence(cfg map[string]any) (driven.Chunker, error) {
	size := domain.DefaultChunkSize
	if v, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		size = v
	}
	overlap := sentence.DefaultOverlapSentences
	if v, ok := getIntFromConfig(cfg, "overlap_sentences"); ok {
		overlap = v
	}
	return sentence.New(size, overlap)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
