package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidQuery indicates an empty or otherwise malformed query.
	// Not retried; reported immediately and never reaches a backend.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrIngestion indicates a document could not be ingested.
	// Isolated per document; batch ingestion continues past it.
	ErrIngestion = errors.New("ingestion failed")

	// ErrEmbeddingUnavailable indicates the embedding backend is
	// unreachable or timed out. Transient: retried with backoff before
	// being surfaced.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingDimensionMismatch indicates the embedding provider
	// produces vectors of a different dimension than the index was
	// created with. Configuration drift: fatal, never retried.
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexCorrupted indicates the on-disk vector index is unreadable.
	// Fatal at startup; the process must not serve empty results instead.
	ErrIndexCorrupted = errors.New("vector index corrupted")

	// ErrGenerationFailed indicates the generation backend failed or
	// timed out. Surfaced per query; no fallback answer is fabricated.
	ErrGenerationFailed = errors.New("generation failed")
)
