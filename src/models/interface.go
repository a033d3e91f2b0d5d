package models

import "context"

// Agent is a generative answer provider. Implementations are stateless per
// call: the prompt is the whole input, no conversation history is attached.
type Agent interface {
	Generate(context.Context, string) (any, error)
}
