package embed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GoogleEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewGoogleEmbedder(ctx context.Context, model string) (*GoogleEmbedder, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google embedder init: %w", err)
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &GoogleEmbedder{client: client, model: client.EmbeddingModel(model)}, nil
}

func (e *GoogleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errors.New("google: empty embedding")
	}
	return resp.Embedding.Values, nil
}
