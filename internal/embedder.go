package internal

import (
	"context"

	"github.com/cespare/xxhash/v2"
)

const DefaultDimension = 1536

// Embedder maps text to fixed-dimension vectors. Implementations must return
// vectors of exactly Dimension() length and be reproducible per instance;
// everything else (model, quality, transport) is their own business.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

var _ Embedder = (*HashEmbedder)(nil)

// HashEmbedder derives every coordinate from a stable hash of the input, so
// identical text always embeds identically, across processes and platforms.
// It exists for tests and offline use, not for search quality.
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashEmbedder{dimension: dimension}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := xxhash.Sum64String(text)
	vec := make([]float32, e.dimension)
	for i := range vec {
		vec[i] = float32((h+uint64(i))%1000) / 1000.0
	}
	return vec, nil
}

func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}
