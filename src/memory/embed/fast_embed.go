package embed

import (
	"context"

	fastembed "github.com/anush008/fastembed-go"
)

// FastEmbedder runs a local embedding model via fastembed. The model weights
// are downloaded into cacheDir on first use and reused afterwards.
type FastEmbedder struct {
	m *fastembed.FlagEmbedding
}

func NewFastEmbedder(_ context.Context, cacheDir string) (*FastEmbedder, error) {
	m, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:    fastembed.BGESmallENV15,
		CacheDir: cacheDir,
	})
	if err != nil {
		return nil, err
	}
	return &FastEmbedder{m: m}, nil
}

func (e *FastEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.m.QueryEmbed(text)
}

func (e *FastEmbedder) Close() error {
	if e.m != nil {
		e.m.Destroy()
	}
	return nil
}
