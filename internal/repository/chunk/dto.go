package chunk

import (
	"strconv"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// Hash field names for a chunk record.
const (
	fieldDocID     = "doc_id"
	fieldIndex     = "chunk_index"
	fieldText      = "text"
	fieldStart     = "start_offset"
	fieldEnd       = "end_offset"
	fieldEstTokens = "estimated_tokens"
)

// buildHashFields converts a chunk into a flat map[string]string for HSET.
func buildHashFields(c domain.Chunk) map[string]string {
	return map[string]string{
		fieldDocID:     c.DocID,
		fieldIndex:     strconv.Itoa(c.Index),
		fieldText:      c.Text,
		fieldStart:     strconv.Itoa(c.StartOffset),
		fieldEnd:       strconv.Itoa(c.EndOffset),
		fieldEstTokens: strconv.Itoa(c.EstimatedTokens),
	}
}

// parseHashFields converts a flat hash map back into a chunk.
func parseHashFields(id string, m map[string]string) domain.Chunk {
	return domain.Chunk{
		ID:              id,
		DocID:           m[fieldDocID],
		Index:           atoi(m[fieldIndex]),
		Text:            m[fieldText],
		StartOffset:     atoi(m[fieldStart]),
		EndOffset:       atoi(m[fieldEnd]),
		EstimatedTokens: atoi(m[fieldEstTokens]),
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
