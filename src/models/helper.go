package models

import (
	"context"
	"fmt"

	genai "github.com/google/generative-ai-go/genai"
)

func NewLLMProvider(ctx context.Context, provider string, model string) (Agent, error) {
	switch provider {
	case "gemini", "google":
		return NewGeminiLLM(ctx, model)
	case "openai":
		return NewOpenAILLM(model), nil
	case "anthropic", "claude":
		return NewAnthropicLLM(model), nil
	case "ollama":
		return NewOllamaLLM(model)
	case "dummy":
		return NewDummyLLM(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// ResponseText flattens a provider response into plain text. Gemini returns a
// genai.Part, the other providers return strings.
func ResponseText(resp any) string {
	switch v := resp.(type) {
	case nil:
		return ""
	case string:
		return v
	case genai.Text:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
