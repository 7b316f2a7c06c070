// Package chunk persists chunk records as one hash per chunk, keyed by
// chunk id. Upserts replace on conflict; lookups silently omit missing ids.
package chunk

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matkb-cloud/matkb/internal/db"
	"github.com/matkb-cloud/matkb/internal/domain"
)

// store is the consumer interface for the chunk repository (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repository is a ChunkStore over a Redis hash store.
type Repository struct {
	store  store
	prefix string
}

// NewRepository creates a chunk repository. prefix namespaces all keys.
func NewRepository(s store, prefix string) *Repository {
	return &Repository{store: s, prefix: prefix}
}

func (r *Repository) key(chunkID string) string {
	return r.prefix + "chunk:" + chunkID
}

// Upsert stores one chunk, replacing any existing record with the same id.
func (r *Repository) Upsert(ctx context.Context, c domain.Chunk) error {
	if err := r.store.HSet(ctx, r.key(c.ID), buildHashFields(c)); err != nil {
		return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
	}
	return nil
}

// UpsertBatch stores chunks in a single pipelined round-trip.
func (r *Repository) UpsertBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{Key: r.key(c.ID), Fields: buildHashFields(c)}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(chunks), err)
	}
	return nil
}

// Get returns one chunk by id.
func (r *Repository) Get(ctx context.Context, chunkID string) (domain.Chunk, error) {
	m, err := r.store.HGetAll(ctx, r.key(chunkID))
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}
	if len(m) == 0 {
		return domain.Chunk{}, fmt.Errorf("chunk %s: %w", chunkID, domain.ErrChunkNotFound)
	}
	return parseHashFields(chunkID, m), nil
}

// GetMany returns the chunks for the given ids in one pipelined round-trip.
// Missing ids are silently omitted from the result.
func (r *Repository) GetMany(ctx context.Context, chunkIDs []string) ([]domain.Chunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		keys[i] = r.key(id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get %d chunks: %w", len(chunkIDs), err)
	}

	chunks := make([]domain.Chunk, 0, len(chunkIDs))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		chunks = append(chunks, parseHashFields(chunkIDs[i], m))
	}
	return chunks, nil
}

// GetByDocument returns all chunks of a document ordered by chunk index.
func (r *Repository) GetByDocument(ctx context.Context, docID string) ([]domain.Chunk, error) {
	pattern := r.key(docID) + "_chunk_*"
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan chunks of %s: %w", docID, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, r.prefix+"chunk:")
	}
	chunks, err := r.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(chunks, func(a, b int) bool { return chunks[a].Index < chunks[b].Index })
	return chunks, nil
}

// Count returns the number of stored chunks.
func (r *Repository) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"chunk:*")
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return len(keys), nil
}

// ListDocumentIDs returns the distinct document ids across all stored
// chunks, sorted for stable output.
func (r *Repository) ListDocumentIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"chunk:*")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	seen := make(map[string]struct{})
	for _, k := range keys {
		chunkID := strings.TrimPrefix(k, r.prefix+"chunk:")
		seen[domain.DocIDOfChunk(chunkID)] = struct{}{}
	}

	docs := make([]string, 0, len(seen))
	for id := range seen {
		docs = append(docs, id)
	}
	sort.Strings(docs)
	return docs, nil
}
