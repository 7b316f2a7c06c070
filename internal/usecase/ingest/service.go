// Package ingest turns raw document text into persisted chunks and
// indexed vectors.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/logger"
)

// Result reports what one ingestion stored.
type Result struct {
	DocID       string `json:"doc_id"`
	Chunks      int    `json:"chunks"`
	TotalTokens int    `json:"total_tokens"`
	IndexSize   int    `json:"index_size"`
}

// Service ingests documents. Ingestions are serialized so the index and
// its on-disk artifacts never interleave between documents.
type Service struct {
	mu         sync.Mutex
	chunker    Chunker
	embedder   Embedder
	chunks     ChunkWriter
	index      Index
	vectorPath string
	idListPath string
}

// New creates the ingestion service.
func New(chunker Chunker, embedder Embedder, chunks ChunkWriter, index Index, vectorPath, idListPath string) *Service {
	return &Service{
		chunker:    chunker,
		embedder:   embedder,
		chunks:     chunks,
		index:      index,
		vectorPath: vectorPath,
		idListPath: idListPath,
	}
}

// Ingest chunks a document, embeds every chunk, persists the records, and
// extends the vector index. Documents that chunk to nothing succeed with a
// zero-chunk result.
func (s *Service) Ingest(ctx context.Context, docID, text string) (Result, error) {
	log := logger.FromContext(ctx)

	pieces := s.chunker.Chunk(text, docID)
	if len(pieces) == 0 {
		log.Info("document produced no chunks", zap.String("doc_id", docID))
		return Result{DocID: docID, IndexSize: s.index.Count()}, nil
	}

	texts := make([]string, len(pieces))
	ids := make([]string, len(pieces))
	for i, c := range pieces {
		texts[i] = c.Text
		ids[i] = c.ID
	}

	res, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return Result{}, fmt.Errorf("embed document %s: %w", docID, err)
	}
	if len(res.Embeddings) != len(pieces) {
		return Result{}, fmt.Errorf("embed document %s: got %d vectors for %d chunks: %w",
			docID, len(res.Embeddings), len(pieces), domain.ErrEmbeddingProviderError)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chunks.UpsertBatch(ctx, pieces); err != nil {
		return Result{}, fmt.Errorf("persist chunks of %s: %w", docID, err)
	}
	if err := s.index.Add(res.Embeddings, ids); err != nil {
		return Result{}, fmt.Errorf("index document %s: %w", docID, err)
	}
	if err := s.index.Save(s.vectorPath, s.idListPath); err != nil {
		return Result{}, fmt.Errorf("save index artifacts: %w", err)
	}

	log.Info("document ingested",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(pieces)),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Int("index_size", s.index.Count()))
	return Result{
		DocID:       docID,
		Chunks:      len(pieces),
		TotalTokens: res.TotalTokens,
		IndexSize:   s.index.Count(),
	}, nil
}
