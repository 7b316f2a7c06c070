package domain

import "context"

// Generator is the chat-completion contract shared by the planner and the
// summarization orchestrator. Failures are wrapped with ErrProviderTransient
// or ErrProviderFatal so callers can decide whether a retry makes sense.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
