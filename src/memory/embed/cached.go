package embed

import (
	"context"
	"time"

	"github.com/recallstack/go-qa/src/cache"
)

// CachedEmbedder wraps an Embedder and memoizes vectors by text. Safe because
// embedders are deterministic.
type CachedEmbedder struct {
	Inner Embedder
	Cache *cache.LRUCache
}

func NewCachedEmbedder(inner Embedder, size int, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		Inner: inner,
		Cache: cache.NewLRUCache(size, ttl),
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.HashKey(text)
	if vec, ok := c.Cache.Get(key); ok {
		// Copy so callers cannot mutate the cached vector.
		return append([]float32(nil), vec...), nil
	}
	vec, err := c.Inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(key, append([]float32(nil), vec...))
	return vec, nil
}
