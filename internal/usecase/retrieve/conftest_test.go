package retrieve

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain"
)

type fakeEmbedder struct {
	vector   []float32
	err      error
	gotTexts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.gotTexts = append(f.gotTexts, text)
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector}, nil
}

type fakeSearcher struct {
	hits []domain.SearchHit
	err  error
	gotK int
}

func (f *fakeSearcher) Search(_ []float32, k int) ([]domain.SearchHit, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeChunkReader struct {
	chunks map[string]domain.Chunk
	err    error
}

func (f *fakeChunkReader) GetMany(_ context.Context, ids []string) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Chunk
	for _, id := range ids {
		if c, ok := f.chunks[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
