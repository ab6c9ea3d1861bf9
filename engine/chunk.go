package engine

import "strings"

const (
	defaultChunkWords   = 300
	defaultChunkOverlap = 50
)

// Chunk is a contiguous span of document text.
type Chunk struct {
	Content string
	Index   int
}

// Chunker splits text into fixed-size word windows with overlap.
type Chunker struct {
	maxWords int
	overlap  int
}

// NewChunker creates a fixed-size chunker. Non-positive maxWords and
// out-of-range overlaps fall back to sane defaults.
func NewChunker(maxWords, overlap int) *Chunker {
	if maxWords <= 0 {
		maxWords = defaultChunkWords
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxWords {
		overlap = maxWords / 4
	}
	return &Chunker{maxWords: maxWords, overlap: overlap}
}

// Split breaks text into overlapping chunks. Whitespace-only input
// yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.maxWords - c.overlap
	if step <= 0 {
		step = 1
	}

	var chunks []Chunk
	for i := 0; i < len(words); i += step {
		end := i + c.maxWords
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, Chunk{
			Content: strings.Join(words[i:end], " "),
			Index:   len(chunks),
		})

		if end == len(words) {
			break
		}
	}
	return chunks
}
