package internal

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrEmptyContent       = errors.New("no usable content after chunking")
	ErrUnsupportedVariant = errors.New("unsupported index variant")
	ErrNotFound           = errors.New("document not found")
)

// Chunk is a bounded substring of a larger document, the atomic unit of
// indexing. Chunks are created by the splitter and never mutated afterwards.
type Chunk struct {
	ID         string
	Content    string
	Source     string
	ChunkIndex int
	Metadata   Metadata
	CreatedAt  time.Time
}

func NewChunk(content, source string, index int, metadata Metadata) Chunk {
	return Chunk{
		ID:         uuid.NewString(),
		Content:    content,
		Source:     source,
		ChunkIndex: index,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
}

// IndexedDocument is the index-owned record for one chunk. Embedding is nil
// until the document has been inserted with its vector.
type IndexedDocument struct {
	ID        string
	Content   string
	Metadata  Metadata
	CreatedAt time.Time
	Embedding []float32
}

// SearchHit is one ranked query result. Rank is 1-based; Distance is squared
// Euclidean, smaller is more similar.
type SearchHit struct {
	ID       string
	Content  string
	Distance float32
	Rank     int
}

// Source attributes one fully included context block back to its hit.
type Source struct {
	Content string  `json:"content"`
	Score   float32 `json:"similarity_score"`
	Rank    int     `json:"rank"`
}

// ContextBlock is the assembled retrieval context plus its attribution list.
type ContextBlock struct {
	Text    string
	Sources []Source
}
