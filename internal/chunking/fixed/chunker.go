// Package fixed provides a sliding-window text chunker.
package fixed

import (
	"fmt"
	"strings"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// Name is the registry name of this strategy.
const Name = "fixed"

// Chunker splits text into windows of chunkSize characters that advance
// by chunkSize-overlap. Offsets count runes, not bytes.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. It returns an error wrapping
// domain.ErrChunkingConfig unless 0 <= overlap < chunkSize.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrChunkingConfig, c.chunkSize)
	}
	if c.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", domain.ErrChunkingConfig, c.overlap)
	}
	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrChunkingConfig, c.overlap, c.chunkSize)
	}

	return c, nil
}

// Name returns the strategy name.
func (c *Chunker) Name() string {
	return Name
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into chunks. Windows that are blank after trimming are
// dropped and the remaining chunks are numbered from 0. The final chunk
// may be shorter than the chunk size.
func (c *Chunker) Chunk(documentID, text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	runes := []rune(text)
	total := len(runes)
	step := c.chunkSize - c.overlap

	chunks := make([]domain.Chunk, 0, total/step+1)
	prevEnd := -1

	for start := 0; start < total; start += step {
		end := start + c.chunkSize
		if end > total {
			end = total
		}

		content := string(runes[start:end])
		if strings.TrimSpace(content) != "" {
			overlapWithPrev := 0
			if prevEnd > start {
				overlapWithPrev = prevEnd - start
			}
			size := end - start
			chunks = append(chunks, domain.Chunk{
				DocumentID: documentID,
				Index:      len(chunks),
				Text:       content,
				Size:       size,
				Start:      start,
				End:        end,
				Metadata: map[string]any{
					"char_count":        size,
					"overlap_with_prev": overlapWithPrev,
					"start":             start,
					"end":               end,
				},
			})
			prevEnd = end
		}

		if end == total {
			break
		}
	}

	return chunks, nil
}
