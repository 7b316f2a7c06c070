package ingest

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// fakeChunker emits one chunk per non-empty line.
type fakeChunker struct{}

func (fakeChunker) Chunk(text, docID string) []domain.Chunk {
	if text == "" {
		return nil
	}
	var chunks []domain.Chunk
	start := 0
	for i := 0; ; i++ {
		end := start
		for end < len(text) && text[end] != '\n' {
			end++
		}
		if end > start {
			chunks = append(chunks, domain.Chunk{
				ID:    domain.ChunkID(docID, len(chunks)),
				DocID: docID,
				Index: len(chunks),
				Text:  text[start:end],
			})
		}
		if end == len(text) {
			break
		}
		start = end + 1
	}
	return chunks
}

// fakeEmbedder returns a constant-width vector per text.
type fakeEmbedder struct {
	dim   int
	short bool // return one vector fewer than requested
	err   error
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	embeddings := make([][]float32, n)
	for i := range embeddings {
		v := make([]float32, f.dim)
		v[0] = float32(i)
		embeddings[i] = v
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: 7 * len(texts)}, nil
}

// fakeWriter records upserted chunks.
type fakeWriter struct {
	chunks []domain.Chunk
	err    error
}

func (f *fakeWriter) UpsertBatch(_ context.Context, chunks []domain.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}
