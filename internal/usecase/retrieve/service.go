// Package retrieve implements the semantic retrieval path: embed the
// query, search the vector index, hydrate and re-rank the hits.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/logger"
	"github.com/matkb-cloud/matkb/internal/metrics"
)

// Service turns a question into ranked hydrated chunks.
type Service struct {
	embed  Embedder
	index  Searcher
	chunks ChunkReader
}

// New creates a retrieval service. embed must carry the query-side
// instruction prefix; indexed chunks are embedded without it.
func New(embed Embedder, index Searcher, chunks ChunkReader) *Service {
	return &Service{embed: embed, index: index, chunks: chunks}
}

// Retrieve returns up to k chunks nearest to the query, ascending by
// distance. Index hits whose chunk record is gone are dropped silently;
// the desync counter is the only trace. An empty index retrieves nothing.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	embRes, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.index.Search(embRes.Embedding, k)
	if err != nil {
		if errors.Is(err, domain.ErrIndexEmpty) {
			return nil, nil
		}
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	distance := make(map[string]float32, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
		if _, dup := distance[h.ChunkID]; !dup {
			distance[h.ChunkID] = h.Distance
		}
	}

	chunks, err := s.chunks.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate chunks: %w", err)
	}

	if dropped := len(distance) - len(chunks); dropped > 0 {
		metrics.RetrievalDesyncTotal.Add(float64(dropped))
		logger.FromContext(ctx).Debug("dropped index hits without store rows",
			zap.Int("dropped", dropped))
	}

	seen := make(map[string]struct{}, len(chunks))
	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		scored = append(scored, domain.ScoredChunk{Chunk: c, Distance: distance[c.ID]})
	}

	// store lookup order is not guaranteed to match search order
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Distance < scored[b].Distance
	})
	return scored, nil
}

// DocumentIDs extracts distinct document ids from scored chunks,
// preserving rank order of first appearance.
func DocumentIDs(chunks []domain.ScoredChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	var ids []string
	for _, sc := range chunks {
		id := sc.Chunk.DocID
		if id == "" {
			id = domain.DocIDOfChunk(sc.Chunk.ID)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
