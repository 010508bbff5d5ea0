package document

import (
	"strings"

	"github.com/google/uuid"

	"github.com/eluia/eluia-api/internal/model"
)

// DefaultChunkWords is the default chunk length in words.
const DefaultChunkWords = 1000

// DefaultOverlapWords is the default overlap between adjacent chunks.
const DefaultOverlapWords = 200

// Chunker splits extracted pages into overlapping word windows.
type Chunker struct {
	chunkWords   int
	overlapWords int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkWords sets the chunk length in words.
func WithChunkWords(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.chunkWords = n
		}
	}
}

// WithOverlapWords sets the overlap between adjacent chunks in words.
func WithOverlapWords(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapWords = n
		}
	}
}

// NewChunker creates a chunker with the given options.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{
		chunkWords:   DefaultChunkWords,
		overlapWords: DefaultOverlapWords,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.overlapWords >= c.chunkWords {
		c.overlapWords = c.chunkWords / 4
	}

	return c
}

// Chunk splits each page into overlapping windows and assigns ordinals
// running across the whole document. Chunks never span page boundaries, so
// every chunk carries a usable page reference for citation.
func (c *Chunker) Chunk(tenantID, documentID string, category model.Category, pages []Page) []model.Chunk {
	var chunks []model.Chunk
	ordinal := 0

	step := c.chunkWords - c.overlapWords

	for _, page := range pages {
		words := strings.Fields(page.Text)

		for start := 0; start < len(words); start += step {
			end := start + c.chunkWords
			if end > len(words) {
				end = len(words)
			}

			text := strings.Join(words[start:end], " ")
			if text == "" {
				continue
			}

			chunks = append(chunks, model.Chunk{
				ID:         uuid.Must(uuid.NewV7()).String(),
				DocumentID: documentID,
				TenantID:   tenantID,
				Category:   category,
				Ordinal:    ordinal,
				Page:       page.Number,
				Text:       text,
			})
			ordinal++

			if end == len(words) {
				break
			}
		}
	}

	return chunks
}
