package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluia/eluia-api/internal/model"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "mot"
	}
	return strings.Join(parts, " ")
}

func TestChunkShortPage(t *testing.T) {
	c := NewChunker()

	chunks := c.Chunk("t1", "d1", model.CategoryProgram, []Page{
		{Number: 1, Text: "une politique de logement ambitieuse"},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, "une politique de logement ambitieuse", chunks[0].Text)
	assert.Equal(t, "t1", chunks[0].TenantID)
	assert.Equal(t, "d1", chunks[0].DocumentID)
	assert.Equal(t, model.CategoryProgram, chunks[0].Category)
}

func TestChunkOverlap(t *testing.T) {
	c := NewChunker(WithChunkWords(10), WithOverlapWords(4))

	chunks := c.Chunk("t1", "d1", model.CategoryProgram, []Page{
		{Number: 1, Text: words(16)},
	})

	// step = 6: windows [0,10) and [6,16)
	require.Len(t, chunks, 2)
	assert.Len(t, strings.Fields(chunks[0].Text), 10)
	assert.Len(t, strings.Fields(chunks[1].Text), 10)
}

func TestChunkNeverSpansPages(t *testing.T) {
	c := NewChunker(WithChunkWords(10), WithOverlapWords(2))

	chunks := c.Chunk("t1", "d1", model.CategoryProgram, []Page{
		{Number: 1, Text: words(5)},
		{Number: 2, Text: words(5)},
	})

	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[1].Page)
}

func TestChunkOrdinalsRunAcrossDocument(t *testing.T) {
	c := NewChunker(WithChunkWords(10), WithOverlapWords(0))

	chunks := c.Chunk("t1", "d1", model.CategoryProgram, []Page{
		{Number: 1, Text: words(25)},
		{Number: 2, Text: words(12)},
	})

	require.Len(t, chunks, 5)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
	}
}

func TestChunkEmptyPages(t *testing.T) {
	c := NewChunker()

	chunks := c.Chunk("t1", "d1", model.CategoryProgram, []Page{
		{Number: 1, Text: "   "},
	})

	assert.Empty(t, chunks)
}

func TestChunkerClampsOverlap(t *testing.T) {
	c := NewChunker(WithChunkWords(10), WithOverlapWords(10))

	// An overlap >= chunk size would never advance; it gets clamped.
	chunks := c.Chunk("t1", "d1", model.CategoryProgram, []Page{
		{Number: 1, Text: words(30)},
	})

	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.Less(t, last.Ordinal, 10)
}
