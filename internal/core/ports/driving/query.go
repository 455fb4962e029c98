package driving

import (
	"context"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// QueryService answers natural-language questions over the ingested
// document collection.
type QueryService interface {
	// Answer embeds the query, retrieves the most similar chunks,
	// assembles a bounded context and invokes the generation model.
	//
	// Fails with domain.ErrInvalidQuery on blank input (before any
	// backend is contacted), domain.ErrEmbeddingUnavailable when the
	// query cannot be embedded, and domain.ErrGenerationFailed when the
	// model call fails or times out. No partial response is returned
	// on error.
	Answer(ctx context.Context, queryText string) (domain.QueryResponse, error)
}

// HealthService reports backend reachability.
type HealthService interface {
	// Check pings the embedding service, generation service and vector
	// index and rolls the results up into a single status.
	Check(ctx context.Context) domain.Health
}
