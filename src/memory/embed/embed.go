package embed

import (
	"context"
	"fmt"
)

// Embedder is a pluggable text-embedding provider. Implementations must be
// deterministic: embedding the same text twice returns the same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder selects a provider by name.
// The fastembed provider loads its model once; construction is the expensive
// part and happens at startup only.
func NewEmbedder(ctx context.Context, provider, model, cacheDir string, dimension int) (Embedder, error) {
	switch provider {
	case "fastembed":
		return NewFastEmbedder(ctx, cacheDir)
	case "openai":
		return NewOpenAIEmbedder(model)
	case "google", "gemini":
		return NewGoogleEmbedder(ctx, model)
	case "dummy":
		return DummyEmbedder{Dim: dimension}, nil
	default:
		return nil, fmt.Errorf("unknown embed provider: %s", provider)
	}
}

// ---------- Dummy (tests and offline runs) ----------

type DummyEmbedder struct {
	Dim int
}

func (d DummyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return DummyEmbedding(text, d.Dim), nil
}

// DummyEmbedding derives a fixed-length vector from the text bytes alone, so
// repeated calls are bit-identical.
func DummyEmbedding(text string, dim int) []float32 {
	if dim <= 0 {
		dim = 384
	}
	vec := make([]float32, dim)
	for i, ch := range []byte(text) {
		vec[i%dim] += float32(ch) / 255.0
	}
	return vec
}
