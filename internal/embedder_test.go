package internal

import (
	"context"
	"testing"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()

	first, err := NewHashEmbedder(64).Embed(ctx, "the same text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, err := NewHashEmbedder(64).Embed(ctx, "the same text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	if len(first) != 64 || len(second) != 64 {
		t.Fatalf("wrong dimensions: %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("coordinate %d differs across instances", i)
		}
	}
}

func TestHashEmbedderRange(t *testing.T) {
	vec, err := NewHashEmbedder(128).Embed(context.Background(), "range check")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i, x := range vec {
		if x < 0 || x >= 1 {
			t.Errorf("coordinate %d out of [0,1): %f", i, x)
		}
	}
}

func TestHashEmbedderBatch(t *testing.T) {
	e := NewHashEmbedder(16)
	ctx := context.Background()

	texts := []string{"alpha", "beta", "gamma"}
	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("embed batch: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vecs))
	}

	// Batch order matches input order and agrees with single embeds.
	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		if err != nil {
			t.Fatalf("embed %q: %v", text, err)
		}
		for j := range single {
			if vecs[i][j] != single[j] {
				t.Fatalf("batch vector %d disagrees with single embed at %d", i, j)
			}
		}
	}
}

func TestHashEmbedderDefaultDimension(t *testing.T) {
	if d := NewHashEmbedder(0).Dimension(); d != DefaultDimension {
		t.Errorf("expected default dimension %d, got %d", DefaultDimension, d)
	}
	if d := NewHashEmbedder(-3).Dimension(); d != DefaultDimension {
		t.Errorf("expected default dimension %d, got %d", DefaultDimension, d)
	}
}
