package engine

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	c := NewChunker(10, 2)
	if got := c.Split("   \n\t  "); got != nil {
		t.Fatalf("Expected no chunks for whitespace input, got %d", len(got))
	}
}

func TestSplitSingleChunk(t *testing.T) {
	c := NewChunker(100, 10)
	chunks := c.Split("one two three")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "one two three" {
		t.Fatalf("Unexpected chunk content: %q", chunks[0].Content)
	}
	if chunks[0].Index != 0 {
		t.Fatalf("Expected index 0, got %d", chunks[0].Index)
	}
}

func TestSplitOverlapWindows(t *testing.T) {
	words := make([]string, 10)
	for i := range words {
		words[i] = string(rune('a' + i))
	}
	c := NewChunker(4, 2)
	chunks := c.Split(strings.Join(words, " "))

	// Step is 2, so windows start at 0, 2, 4, 6 and the last window
	// reaches the final word.
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "a b c d" {
		t.Fatalf("Unexpected first chunk: %q", chunks[0].Content)
	}
	if chunks[1].Content != "c d e f" {
		t.Fatalf("Expected 2-word overlap, got %q", chunks[1].Content)
	}
	last := chunks[len(chunks)-1].Content
	if !strings.HasSuffix(last, "j") {
		t.Fatalf("Expected last chunk to reach final word, got %q", last)
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("Expected index %d, got %d", i, chunk.Index)
		}
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	if c.maxWords != defaultChunkWords {
		t.Fatalf("Expected default maxWords, got %d", c.maxWords)
	}
	if c.overlap != 0 {
		t.Fatalf("Expected zero overlap, got %d", c.overlap)
	}

	// Overlap at or above the window shrinks to a quarter of it.
	c = NewChunker(8, 8)
	if c.overlap != 2 {
		t.Fatalf("Expected clamped overlap 2, got %d", c.overlap)
	}
}
