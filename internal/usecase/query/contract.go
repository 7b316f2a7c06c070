package query

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// Retriever is the semantic path: query text to ranked chunks.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// Planner translates a natural-language request into table queries.
type Planner interface {
	Translate(ctx context.Context, query string) ([]domain.TableQuery, error)
}

// Executor runs planned table queries into candidates.
type Executor interface {
	Execute(ctx context.Context, queries []domain.TableQuery) ([]domain.DocumentCandidate, error)
}

// Summarizer fans candidates out into per-document results.
type Summarizer interface {
	Run(ctx context.Context, question string, candidates []domain.DocumentCandidate) []domain.SummaryResult
}

// MetadataReader fills in candidate rows on the semantic path.
type MetadataReader interface {
	MetadataByDocIDs(ctx context.Context, docIDs []string) (map[string]map[string]any, error)
}
