package internal

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultSeparator    = "\n\n"
)

// Splitter slices raw text into overlapping chunks. Cut points are searched
// backward from the window end: separator first, then a sentence-ending
// period, then any space, then a hard cut at the window boundary.
type Splitter struct {
	chunkSize int
	overlap   int
	separator string
}

func NewSplitter(chunkSize, overlap int, separator string) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
		separator: separator,
	}
}

// Split returns the chunk sequence for text. Deterministic: no randomness,
// no clock. Text no longer than one chunk is returned whole.
func (s *Splitter) Split(text string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + s.chunkSize
		if end < len(text) {
			window := text[start:end]
			cut := strings.LastIndex(window, s.separator)
			if cut == -1 {
				cut = strings.LastIndexByte(window, '.')
			}
			if cut == -1 {
				cut = strings.LastIndexByte(window, ' ')
			}
			if cut != -1 {
				end = start + cut + 1
			} else {
				// A hard cut can land inside a multi-byte rune; back up
				// to the previous boundary.
				for end > start+1 && !utf8.RuneStart(text[end]) {
					end--
				}
			}
		} else {
			end = len(text)
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// The +1 floor keeps start strictly increasing even when the
		// overlap swallows the whole advance (separator-free input).
		next := end - s.overlap
		if next < start+1 {
			next = start + 1
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}

	return chunks
}

// ChunkText splits text and mints immutable chunk records for each piece.
// The given metadata is attached to every chunk as-is; provenance keys are
// the ingest path's concern.
func (s *Splitter) ChunkText(text, source string, metadata Metadata) []Chunk {
	pieces := s.Split(text)

	chunks := make([]Chunk, 0, len(pieces))
	idx := 0
	for _, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, NewChunk(trimmed, source, idx, metadata.Clone()))
		idx++
	}
	return chunks
}
