package driven

import (
	"context"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// IndexEntry is one persisted row of the vector index.
type IndexEntry struct {
	// ChunkID is the deterministic chunk identity.
	ChunkID string

	// SourceID groups entries by originating document.
	SourceID string

	// Position is the chunk's ordinal position within its document.
	Position int

	// Content is the chunk text, stored alongside the vector so query
	// results carry the text without a second lookup.
	Content string

	// Embedding is the chunk vector. Its length must equal the dimension
	// the index was created with.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// VectorIndex stores chunk embeddings and answers k-nearest-neighbour
// queries by cosine similarity. One index instance uses one metric and
// one dimension for all entries.
//
// Durability: Upsert has persisted the entry before it returns. A reader
// racing an upsert of the same chunk sees either the old or the new
// entry, never a partial one.
type VectorIndex interface {
	// Upsert atomically inserts or replaces the entry for entry.ChunkID.
	// Returns domain.ErrEmbeddingDimensionMismatch when the vector length
	// differs from the index dimension.
	Upsert(ctx context.Context, entry IndexEntry) error

	// Query returns up to k entries ranked by descending cosine
	// similarity to the query vector. Ties break by insertion order
	// (earlier-indexed chunk wins). k larger than Size returns all
	// entries ranked; an empty index returns an empty result.
	Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)

	// Delete removes the entry for the chunk ID. Deleting an absent
	// chunk is a no-op.
	Delete(ctx context.Context, chunkID string) error

	// ChunkIDsBySource lists the chunk IDs stored for a source,
	// ordered by position. Used to clear stale chunks on re-ingestion.
	ChunkIDsBySource(ctx context.Context, sourceID string) ([]string, error)

	// SourceFingerprint returns the recorded content hash for a source,
	// or empty when the source has never been ingested.
	SourceFingerprint(ctx context.Context, sourceID string) (string, error)

	// SetSourceFingerprint records the content hash for a source after
	// its chunks are fully upserted.
	SetSourceFingerprint(ctx context.Context, sourceID, hash string) error

	// Size returns the number of stored entries.
	Size(ctx context.Context) (int, error)

	// Ping validates the store is readable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
