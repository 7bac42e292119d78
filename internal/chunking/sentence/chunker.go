// Package sentence provides a chunker that packs whole sentences.
package sentence

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// Name is the registry name of this strategy.
const Name = "sentence"

// DefaultOverlapSentences is the number of sentences repeated at the start
// of the next chunk.
const DefaultOverlapSentences = 2

// Chunker splits text on sentence terminators and packs sentences into
// chunks of at most maxSize characters. The last overlapSentences
// sentences of a chunk are repeated at the start of the next one.
// A single sentence longer than maxSize becomes its own chunk.
type Chunker struct {
	maxSize          int
	overlapSentences int
	splitter         *regexp.Regexp
}

// New creates a sentence chunker.
func New(maxSize, overlapSentences int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max chunk size %d must be positive", domain.ErrChunkingConfig, maxSize)
	}
	if overlapSentences < 0 {
		return nil, fmt.Errorf("%w: overlap sentences %d must not be negative", domain.ErrChunkingConfig, overlapSentences)
	}
	return &Chunker{
		maxSize:          maxSize,
		overlapSentences: overlapSentences,
		splitter:         regexp.MustCompile(`[^.!?]+[.!?]+`),
	}, nil
}

// Name returns the strategy name.
func (c *Chunker) Name() string {
	return Name
}

// Size returns the maximum chunk size.
func (c *Chunker) Size() int {
	return c.maxSize
}

// Overlap returns the number of overlapping sentences.
func (c *Chunker) Overlap() int {
	return c.overlapSentences
}

// span is a sentence's rune offsets in the source text.
type span struct {
	start, end int
}

// Chunk splits text into sentence-aligned chunks. Each chunk's text is the
// exact source substring from its first sentence to its last.
func (c *Chunker) Chunk(documentID, text string) ([]domain.Chunk, error) {
	sentences := c.sentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	var chunks []domain.Chunk
	var current []span
	prevEnd := -1

	flush := func() {
		start, end := current[0].start, current[len(current)-1].end
		overlapWithPrev := 0
		if prevEnd > start {
			overlapWithPrev = prevEnd - start
		}
		size := end - start
		chunks = append(chunks, domain.Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       string(runes[start:end]),
			Size:       size,
			Start:      start,
			End:        end,
			Metadata: map[string]any{
				"char_count":        size,
				"overlap_with_prev": overlapWithPrev,
				"start":             start,
				"end":               end,
				"sentence_count":    len(current),
				"chunking_method":   "sentence-based",
			},
		})
		prevEnd = end
	}

	for _, s := range sentences {
		if len(current) > 0 && s.end-current[0].start > c.maxSize {
			flush()
			keep := c.overlapSentences
			if keep > len(current) {
				keep = len(current)
			}
			current = append([]span(nil), current[len(current)-keep:]...)
			// Drop overlap sentences that would push the new sentence over the limit.
			for len(current) > 0 && s.end-current[0].start > c.maxSize {
				current = current[1:]
			}
		}
		current = append(current, s)
	}
	if len(current) > 0 {
		flush()
	}

	return chunks, nil
}

// sentences returns trimmed, non-blank sentence spans in rune offsets.
// Trailing text without a terminator counts as a final sentence.
func (c *Chunker) sentences(text string) []span {
	var spans []span
	// Segments arrive in ascending byte order, so rune offsets are counted
	// forward from the previous sentence instead of from the start of text.
	bytePos, runePos := 0, 0
	add := func(byteStart, byteEnd int) {
		seg := text[byteStart:byteEnd]
		trimmedLeft := strings.TrimLeftFunc(seg, unicode.IsSpace)
		if strings.TrimSpace(trimmedLeft) == "" {
			return
		}
		byteStart += len(seg) - len(trimmedLeft)
		byteEnd = byteStart + len(strings.TrimRightFunc(trimmedLeft, unicode.IsSpace))
		runePos += utf8.RuneCountInString(text[bytePos:byteStart])
		start := runePos
		end := start + utf8.RuneCountInString(text[byteStart:byteEnd])
		runePos, bytePos = end, byteEnd
		spans = append(spans, span{start: start, end: end})
	}

	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(text, -1) {
		add(loc[0], loc[1])
		last = loc[1]
	}
	if last < len(text) {
		add(last, len(text))
	}
	return spans
}
