package plan

import "context"

// Generator produces the structured-query JSON from a natural-language
// request.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
