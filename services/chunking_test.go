package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(1000, 200)
	if chunks := c.Split(""); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestChunkerShortTextSingleChunk(t *testing.T) {
	c := NewChunker(1000, 200)
	text := "hello world foo bar"

	chunks := c.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Fatalf("chunk should equal input, got %q", chunks[0])
	}
}

func TestChunkerRoundTrip(t *testing.T) {
	c := NewChunker(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	text := b.String()

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	rebuilt := strings.Join(c.StripOverlap(chunks), "")
	if rebuilt != text {
		t.Fatalf("round trip mismatch: got %d chars, want %d", len(rebuilt), len(text))
	}
}

func TestChunkerOverlapPrefix(t *testing.T) {
	c := NewChunker(100, 20)

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Paragraph content line with several words in it.\n\n")
	}
	chunks := c.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-20:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Fatalf("chunk %d does not start with predecessor's overlap", i)
		}
	}
}

func TestChunkerSizeBound(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("word and more text here. ", 50)

	for i, ch := range c.Split(text) {
		if len(ch) > 100 {
			t.Fatalf("chunk %d exceeds size limit: %d chars", i, len(ch))
		}
	}
}

func TestChunkerDeterministic(t *testing.T) {
	c := NewChunker(120, 30)
	text := strings.Repeat("Sentences repeat here. Another one follows.\n", 30)

	first := c.Split(text)
	second := c.Split(text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkerMultibyteBoundaries(t *testing.T) {
	c := NewChunker(50, 10)

	// Two-byte runes with no separators force hard cuts; every edge must
	// stay on a rune boundary.
	text := strings.Repeat("é", 200)
	chunks := c.Split(text)
	if len(chunks) < 4 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if !utf8.ValidString(ch) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
		if n := utf8.RuneCountInString(ch); n > 50 {
			t.Fatalf("chunk %d exceeds size limit: %d runes", i, n)
		}
	}
	if rebuilt := strings.Join(c.StripOverlap(chunks), ""); rebuilt != text {
		t.Fatal("multibyte round trip mismatch")
	}
}

func TestChunkerMultibyteWithSeparators(t *testing.T) {
	c := NewChunker(40, 8)
	text := strings.Repeat("wörter für die Suche hier. ", 20)

	chunks := c.Split(text)
	for i, ch := range chunks {
		if !utf8.ValidString(ch) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
	}
	if rebuilt := strings.Join(c.StripOverlap(chunks), ""); rebuilt != text {
		t.Fatal("multibyte round trip mismatch")
	}
}

func TestChunkerNoSeparators(t *testing.T) {
	c := NewChunker(50, 10)
	text := strings.Repeat("x", 200)

	chunks := c.Split(text)
	if len(chunks) < 4 {
		t.Fatalf("expected hard cuts to produce multiple chunks, got %d", len(chunks))
	}
	if rebuilt := strings.Join(c.StripOverlap(chunks), ""); rebuilt != text {
		t.Fatalf("hard-cut round trip mismatch")
	}
}
