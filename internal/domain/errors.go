package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrChunkNotFound signals a missing chunk record.
	ErrChunkNotFound = errors.New("chunk not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrIndexEmpty signals a search against an index with no vectors.
	ErrIndexEmpty = errors.New("vector index is empty")
	// ErrIndexCorrupt signals index artifacts that disagree with each other.
	ErrIndexCorrupt = errors.New("vector index artifacts corrupt")

	// ErrProviderTransient signals a provider failure worth retrying
	// (timeouts, rate limits, 5xx).
	ErrProviderTransient = errors.New("transient provider error")
	// ErrProviderFatal signals a provider failure that retrying cannot fix
	// (bad credentials, malformed request).
	ErrProviderFatal = errors.New("fatal provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrTranslation signals that a natural-language query could not be
	// turned into a structured filter plan.
	ErrTranslation = errors.New("query translation failed")
)
