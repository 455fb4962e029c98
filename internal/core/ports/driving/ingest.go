package driving

import (
	"context"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// IngestResult reports the outcome of ingesting one document in a batch.
type IngestResult struct {
	// SourceID identifies the document.
	SourceID string

	// ChunksStored is the number of chunks now held for the source.
	ChunksStored int

	// Err is the per-document failure, nil on success.
	Err error
}

// IngestionService loads documents into the vector index.
type IngestionService interface {
	// Ingest chunks, embeds and indexes one document, returning the
	// number of chunks stored for its source. Re-ingesting unchanged
	// content is an idempotent no-op returning the existing count.
	// Whitespace-only content stores nothing and returns zero.
	Ingest(ctx context.Context, doc domain.Document) (int, error)

	// IngestBatch ingests documents independently: one document's
	// failure is recorded in its result and does not abort the rest.
	// Results are returned in input order.
	IngestBatch(ctx context.Context, docs []domain.Document) []IngestResult
}
