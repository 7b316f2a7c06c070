package summarize

import "context"

// FulltextProvider fetches the complete text of a document. An empty
// string means "no fulltext available" and is not an error.
type FulltextProvider interface {
	Fetch(ctx context.Context, docID string) (string, error)
}

// Generator produces one literature summary per call.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
