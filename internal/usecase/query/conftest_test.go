package query

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain"
)

type fakeRetriever struct {
	chunks []domain.ScoredChunk
	err    error
	gotK   int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	f.gotK = k
	return f.chunks, f.err
}

type fakePlanner struct {
	queries []domain.TableQuery
	err     error
}

func (f *fakePlanner) Translate(_ context.Context, _ string) ([]domain.TableQuery, error) {
	return f.queries, f.err
}

type fakeExecutor struct {
	candidates []domain.DocumentCandidate
	err        error
}

func (f *fakeExecutor) Execute(_ context.Context, _ []domain.TableQuery) ([]domain.DocumentCandidate, error) {
	return f.candidates, f.err
}

// fakeSummarizer echoes one result per candidate.
type fakeSummarizer struct {
	got  []domain.DocumentCandidate
	none bool
}

func (f *fakeSummarizer) Run(
	_ context.Context, _ string, candidates []domain.DocumentCandidate,
) []domain.SummaryResult {
	f.got = candidates
	if f.none {
		return nil
	}
	out := make([]domain.SummaryResult, len(candidates))
	for i, c := range candidates {
		out[i] = domain.SummaryResult{DocID: c.DocID, Text: "summary of " + c.DocID, Kind: domain.SummaryFull}
	}
	return out
}

type fakeMeta struct {
	rows map[string]map[string]any
	err  error
}

func (f *fakeMeta) MetadataByDocIDs(_ context.Context, ids []string) (map[string]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]map[string]any)
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func scored(chunkID string, dist float32) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk:    domain.Chunk{ID: chunkID, DocID: domain.DocIDOfChunk(chunkID)},
		Distance: dist,
	}
}
