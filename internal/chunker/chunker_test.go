package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyText(t *testing.T) {
	c := New(DefaultChunkSize, DefaultOverlap)
	if chunks := c.Split(""); chunks != nil {
		t.Errorf("Split(\"\") = %d chunks, want none", len(chunks))
	}
}

func TestSplitShortText(t *testing.T) {
	c := New(DefaultChunkSize, DefaultOverlap)
	chunks := c.Split("hello world")
	if len(chunks) != 1 {
		t.Fatalf("Split() = %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "hello world" {
		t.Errorf("chunk content = %q, want %q", chunks[0].Content, "hello world")
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index)
	}
}

func TestSplitChunkSizes(t *testing.T) {
	tests := []struct {
		name       string
		textLength int
		wantChunks int
	}{
		{"exactly one chunk", 1000, 1},
		{"just over one chunk", 1001, 2},
		{"several chunks", 2500, 3},
		{"many chunks", 10000, 11},
	}

	c := New(DefaultChunkSize, DefaultOverlap)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("x", tt.textLength)
			chunks := c.Split(text)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("Split() = %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			for i, chunk := range chunks[:len(chunks)-1] {
				if len(chunk.Content) != DefaultChunkSize {
					t.Errorf("chunk %d length = %d, want %d", i, len(chunk.Content), DefaultChunkSize)
				}
			}
		})
	}
}

func TestSplitReconstruction(t *testing.T) {
	// Removing the overlap from every chunk after the first must reproduce
	// the original text exactly.
	texts := []string{
		strings.Repeat("abcdefghij", 100),  // 1000
		strings.Repeat("abcdefghij", 137),  // 1370
		strings.Repeat("abcdefghij", 1234), // 12340
	}

	c := New(DefaultChunkSize, DefaultOverlap)
	for _, text := range texts {
		chunks := c.Split(text)
		var b strings.Builder
		for i, chunk := range chunks {
			if i == 0 {
				b.WriteString(chunk.Content)
				continue
			}
			b.WriteString(chunk.Content[DefaultOverlap:])
		}
		if b.String() != text {
			t.Errorf("reconstruction mismatch for text of length %d", len(text))
		}
	}
}

func TestSplitIndicesAreSequential(t *testing.T) {
	c := New(DefaultChunkSize, DefaultOverlap)
	chunks := c.Split(strings.Repeat("y", 5000))
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
	}
}

func TestSplitKeepsRunesIntact(t *testing.T) {
	// 12 runes per repetition but 14 bytes, so rune and byte boundaries
	// drift apart and multi-byte characters land on stride edges.
	text := strings.Repeat("héllo wörld ", 200)

	c := New(DefaultChunkSize, DefaultOverlap)
	chunks := c.Split(text)
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk.Content) {
			t.Errorf("chunk %d contains invalid UTF-8", i)
		}
	}

	var b strings.Builder
	for i, chunk := range chunks {
		if i == 0 {
			b.WriteString(chunk.Content)
			continue
		}
		b.WriteString(string([]rune(chunk.Content)[DefaultOverlap:]))
	}
	if b.String() != text {
		t.Error("reconstruction mismatch for multi-byte text")
	}
}

func TestNewClampsOverlap(t *testing.T) {
	// An overlap equal to or larger than the chunk size would never advance.
	c := New(100, 100)
	chunks := c.Split(strings.Repeat("z", 500))
	if len(chunks) == 0 {
		t.Fatal("Split() returned no chunks")
	}
	if chunks[0].Content != strings.Repeat("z", 100) {
		t.Errorf("first chunk length = %d, want 100", len(chunks[0].Content))
	}
}
