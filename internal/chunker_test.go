package internal

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortTextReturnsWhole(t *testing.T) {
	s := NewSplitter(1000, 200, "\n\n")

	text := "A 30-day refund window applies. Shipping is free over $50."
	chunks := s.Split(text)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected whole text back, got %q", chunks[0])
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(50, 10, "\n\n")
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)

	first := s.Split(text)
	second := s.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitPrefersSeparator(t *testing.T) {
	para1 := strings.Repeat("a", 80) + "."
	para2 := strings.Repeat("b", 80)
	text := para1 + "\n\n" + para2

	s := NewSplitter(100, 10, "\n\n")
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != para1 {
		t.Errorf("expected first chunk to end at the separator, got %q", chunks[0])
	}
}

func TestSplitFallsBackToPeriod(t *testing.T) {
	text := strings.Repeat("Aaaa bbbb cccc. ", 20)

	s := NewSplitter(60, 5, "\n\n")
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %d does not end on a sentence boundary: %q", i, c)
		}
	}
}

func TestSplitHardCutTerminates(t *testing.T) {
	// No separator, no period, no space: the +1 start floor must still
	// guarantee forward progress.
	text := strings.Repeat("x", 500)

	s := NewSplitter(100, 50, "\n\n")
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if len(c) > 100 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, len(c))
		}
	}
}

func TestSplitHardCutRespectsRunes(t *testing.T) {
	// Three-byte runes, no separator, period or space: every cut is a hard
	// cut and byte 100 falls mid-rune.
	text := strings.Repeat("日", 200)

	s := NewSplitter(100, 10, "\n\n")
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if len(c) > 100 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, len(c))
		}
	}
}

func TestSplitOverlapLargerThanAdvance(t *testing.T) {
	text := strings.Repeat("y", 300)

	s := NewSplitter(50, 200, "\n\n")
	chunks := s.Split(text)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
}

func TestChunkTextRecords(t *testing.T) {
	s := NewSplitter(50, 10, "\n\n")
	meta := Metadata{"topic": String("testing")}
	text := strings.Repeat("Some sentences to split apart. ", 10)

	chunks := s.ChunkText(text, "doc.txt", meta)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	seen := make(map[string]bool)
	for i, ch := range chunks {
		if ch.ID == "" || seen[ch.ID] {
			t.Errorf("chunk %d has missing or duplicate id", i)
		}
		seen[ch.ID] = true

		if ch.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, ch.ChunkIndex)
		}
		if ch.Source != "doc.txt" {
			t.Errorf("chunk %d has source %q", i, ch.Source)
		}
		if ch.CreatedAt.IsZero() {
			t.Errorf("chunk %d has zero created_at", i)
		}
	}

	// Chunk metadata is a copy; mutating the caller's map must not leak in.
	meta["topic"] = String("changed")
	if got := chunks[0].Metadata["topic"]; !got.Equal(String("testing")) {
		t.Error("chunk metadata aliases the caller's map")
	}
}

func TestChunkTextWhitespaceOnly(t *testing.T) {
	s := NewSplitter(1000, 200, "\n\n")

	if chunks := s.ChunkText("   \n\t  ", "blank", nil); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace input, got %d", len(chunks))
	}
	if chunks := s.ChunkText("", "empty", nil); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}
