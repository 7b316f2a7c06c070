package retrieve

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// Searcher runs nearest-neighbor search over indexed chunk vectors.
type Searcher interface {
	Search(query []float32, k int) ([]domain.SearchHit, error)
}

// ChunkReader hydrates chunk ids into full chunk records.
type ChunkReader interface {
	GetMany(ctx context.Context, chunkIDs []string) ([]domain.Chunk, error)
}

// Embedder vectorizes the query text. The retriever expects the
// query-instruction decorator to already be applied.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
