package fixed

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultChunkSize, c.Size())
		assert.Equal(t, domain.DefaultChunkOverlap, c.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		c, err := New(WithChunkSize(500), WithOverlap(50))
		require.NoError(t, err)
		assert.Equal(t, 500, c.Size())
		assert.Equal(t, 50, c.Overlap())
	})

	t.Run("invalid configurations", func(t *testing.T) {
		tests := []struct {
			name string
			opts []Option
		}{
			{"overlap equals size", []Option{WithChunkSize(100), WithOverlap(100)}},
			{"overlap exceeds size", []Option{WithChunkSize(100), WithOverlap(150)}},
			{"zero size", []Option{WithChunkSize(0), WithOverlap(0)}},
			{"negative overlap", []Option{WithOverlap(-1)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(tt.opts...)
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrChunkingConfig))
			})
		}
	})
}

func TestChunker_Name(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "fixed", c.Name())
}

func TestChunk_EmptyAndWhitespace(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		chunks, err := c.Chunk("doc", text)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunk_SmallContent(t *testing.T) {
	c, err := New(WithChunkSize(100), WithOverlap(20))
	require.NoError(t, err)

	text := "This is a small piece of content."
	chunks, err := c.Chunk("doc-1", text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].Metadata["overlap_with_prev"])
}

func TestChunk_LengthScenario(t *testing.T) {
	c, err := New(WithChunkSize(1000), WithOverlap(200))
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; b.Len() < 2500; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()[:2500]

	chunks, err := c.Chunk("doc", text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	want := [][2]int{{0, 1000}, {800, 1800}, {1600, 2500}}
	for i, w := range want {
		assert.Equal(t, i, chunks[i].Index)
		assert.Equal(t, w[0], chunks[i].Start)
		assert.Equal(t, w[1], chunks[i].End)
		assert.Equal(t, text[w[0]:w[1]], chunks[i].Text)
	}

	// Overlapping regions are textually identical.
	assert.Equal(t, chunks[0].Text[800:], chunks[1].Text[:200])
	assert.Equal(t, chunks[1].Text[800:], chunks[2].Text[:200])
	assert.Equal(t, 200, chunks[1].Metadata["overlap_with_prev"])
	assert.Equal(t, 900, chunks[2].Size)
}

func TestChunk_ExactMultiple(t *testing.T) {
	c, err := New(WithChunkSize(50), WithOverlap(0))
	require.NoError(t, err)

	chunks, err := c.Chunk("doc", strings.Repeat("a", 100))
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestChunk_DropsBlankWindowsAndKeepsIndicesContiguous(t *testing.T) {
	c, err := New(WithChunkSize(10), WithOverlap(0))
	require.NoError(t, err)

	text := "0123456789" + strings.Repeat(" ", 20) + "abcdefghij"
	chunks, err := c.Chunk("doc", text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, "abcdefghij", chunks[1].Text)
	assert.Equal(t, 30, chunks[1].Start)
}

func TestChunk_CountsRunesNotBytes(t *testing.T) {
	c, err := New(WithChunkSize(4), WithOverlap(1))
	require.NoError(t, err)

	chunks, err := c.Chunk("doc", "héllo wörld")
	require.NoError(t, err)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 4)
		assert.Equal(t, ch.End-ch.Start, ch.Size)
	}
	assert.Equal(t, "héll", chunks[0].Text)
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(WithChunkSize(64), WithOverlap(16))
	require.NoError(t, err)

	text := strings.Repeat("The mitochondria is the powerhouse of the cell. ", 40)
	first, err := c.Chunk("doc", text)
	require.NoError(t, err)
	second, err := c.Chunk("doc", text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i, ch := range first {
		assert.Equal(t, i, ch.Index)
	}
}
