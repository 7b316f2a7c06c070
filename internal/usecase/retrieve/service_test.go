package retrieve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matkb-cloud/matkb/internal/domain"
)

func chunkFor(docID string, idx int) domain.Chunk {
	return domain.Chunk{
		ID:    domain.ChunkID(docID, idx),
		DocID: docID,
		Index: idx,
		Text:  "text",
	}
}

func TestRetrieveSortedNoDuplicates(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	idx := &fakeSearcher{hits: []domain.SearchHit{
		{ChunkID: "d1_chunk_0", Distance: 0.4},
		{ChunkID: "d2_chunk_0", Distance: 0.1},
		{ChunkID: "d1_chunk_1", Distance: 0.2},
	}}
	store := &fakeChunkReader{chunks: map[string]domain.Chunk{
		"d1_chunk_0": chunkFor("d1", 0),
		"d2_chunk_0": chunkFor("d2", 0),
		"d1_chunk_1": chunkFor("d1", 1),
	}}

	svc := New(emb, idx, store)
	got, err := svc.Retrieve(context.Background(), "corrosion resistance", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}

	seen := make(map[string]bool)
	for i, sc := range got {
		if seen[sc.Chunk.ID] {
			t.Errorf("duplicate chunk id %q", sc.Chunk.ID)
		}
		seen[sc.Chunk.ID] = true
		if i > 0 && got[i].Distance < got[i-1].Distance {
			t.Errorf("distances not non-decreasing at %d", i)
		}
	}
	if got[0].Chunk.ID != "d2_chunk_0" {
		t.Errorf("nearest = %q, want d2_chunk_0", got[0].Chunk.ID)
	}
	if idx.gotK != 3 {
		t.Errorf("search k = %d, want 3", idx.gotK)
	}
}

func TestRetrieveDropsDesyncedHits(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{1}}
	idx := &fakeSearcher{hits: []domain.SearchHit{
		{ChunkID: "d1_chunk_0", Distance: 0.1},
		{ChunkID: "gone_chunk_7", Distance: 0.2},
	}}
	store := &fakeChunkReader{chunks: map[string]domain.Chunk{
		"d1_chunk_0": chunkFor("d1", 0),
	}}

	svc := New(emb, idx, store)
	got, err := svc.Retrieve(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].Chunk.ID != "d1_chunk_0" {
		t.Errorf("got %+v, want only d1_chunk_0", got)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{1}}
	idx := &fakeSearcher{err: domain.ErrIndexEmpty}
	store := &fakeChunkReader{}

	svc := New(emb, idx, store)
	got, err := svc.Retrieve(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d chunks from empty index", len(got))
	}
}

func TestRetrieveEmbedErrorPropagates(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("provider down")}
	svc := New(emb, &fakeSearcher{}, &fakeChunkReader{})

	if _, err := svc.Retrieve(context.Background(), "q", 5); err == nil {
		t.Error("want error")
	}
}

func TestDocumentIDsDeduplicatesInRankOrder(t *testing.T) {
	scored := []domain.ScoredChunk{
		{Chunk: chunkFor("d2", 0), Distance: 0.1},
		{Chunk: chunkFor("d1", 3), Distance: 0.2},
		{Chunk: chunkFor("d2", 1), Distance: 0.3},
		{Chunk: chunkFor("d3", 0), Distance: 0.4},
	}
	got := DocumentIDs(scored)
	want := []string{"d2", "d1", "d3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DocumentIDs = %v, want %v", got, want)
	}
}
