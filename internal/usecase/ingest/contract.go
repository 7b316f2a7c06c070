package ingest

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// Chunker splits document text into overlapping chunks.
type Chunker interface {
	Chunk(text, docID string) []domain.Chunk
}

// Embedder vectorizes chunk texts in one batch call. The passage path
// embeds raw text, without the query instruction.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// ChunkWriter persists chunk records.
type ChunkWriter interface {
	UpsertBatch(ctx context.Context, chunks []domain.Chunk) error
}

// Index accepts new vectors and persists the paired artifacts.
type Index interface {
	Add(vectors [][]float32, ids []string) error
	Save(vectorPath, idListPath string) error
	Count() int
}
