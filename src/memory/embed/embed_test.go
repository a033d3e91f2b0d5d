package embed

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return DummyEmbedding(text, 8), nil
}

func TestDummyEmbeddingDeterministic(t *testing.T) {
	a := DummyEmbedding("What is AI?", 384)
	b := DummyEmbedding("What is AI?", 384)
	if len(a) != 384 {
		t.Fatalf("expected dimension 384, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestDummyEmbeddingHasSignal(t *testing.T) {
	vec := DummyEmbedding("hello", 16)
	if vec[0] == 0 {
		t.Fatalf("expected non-zero signal")
	}
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	if _, err := NewEmbedder(context.Background(), "nope", "", "", 8); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewEmbedderDummy(t *testing.T) {
	e, err := NewEmbedder(context.Background(), "dummy", "", "", 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec, err := e.Embed(context.Background(), "probe")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vec) != 16 {
		t.Fatalf("expected dimension 16, got %d", len(vec))
	}
}

func TestCachedEmbedderMemoizes(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 4, time.Minute)

	first, err := cached.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	second, err := cached.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("second Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at %d", i)
		}
	}

	// Mutating the returned vector must not poison the cache.
	second[0] = 99
	third, _ := cached.Embed(context.Background(), "same text")
	if third[0] == 99 {
		t.Fatalf("cache returned aliased vector")
	}
}

func TestCachedEmbedderPropagatesErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("boom")}
	cached := NewCachedEmbedder(inner, 4, time.Minute)
	if _, err := cached.Embed(context.Background(), "text"); err == nil {
		t.Fatalf("expected error from inner embedder")
	}
	if cached.Cache.Len() != 0 {
		t.Fatalf("expected nothing cached on error")
	}
}
