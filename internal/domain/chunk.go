package domain

import "fmt"

// Chunk is a contiguous slice of a source document. Offsets are rune
// positions into the original text.
type Chunk struct {
	ID              string
	DocID           string
	Index           int
	Text            string
	StartOffset     int
	EndOffset       int
	EstimatedTokens int
}

// ChunkID derives the canonical chunk identifier from its document and
// position. The document id must round-trip back out of the chunk id,
// which is what DocIDOfChunk does.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, index)
}

// chunkIDSep separates the document id from the chunk position.
const chunkIDSep = "_chunk_"

// DocIDOfChunk extracts the document id from a chunk id. Returns the
// input unchanged when the id does not follow the canonical form.
func DocIDOfChunk(chunkID string) string {
	for i := len(chunkID) - len(chunkIDSep); i > 0; i-- {
		if chunkID[i:i+len(chunkIDSep)] == chunkIDSep {
			return chunkID[:i]
		}
	}
	return chunkID
}

// ScoredChunk pairs a chunk with its squared-L2 distance to the query.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float32
}

// SearchHit is a raw index match before chunk hydration.
type SearchHit struct {
	ChunkID  string
	Distance float32
}
