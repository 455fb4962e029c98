package mcp

import (
	"context"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response domain.QueryResponse
	err      error
}

func (m *mockQueryService) Answer(_ context.Context, _ string) (domain.QueryResponse, error) {
	return m.response, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	count   int
	err     error
	lastDoc domain.Document
}

func (m *mockIngestionService) Ingest(_ context.Context, doc domain.Document) (int, error) {
	m.lastDoc = doc
	return m.count, m.err
}

func (m *mockIngestionService) IngestBatch(ctx context.Context, docs []domain.Document) []driving.IngestResult {
	results := make([]driving.IngestResult, len(docs))
	for i, doc := range docs {
		count, err := m.Ingest(ctx, doc)
		results[i] = driving.IngestResult{SourceID: doc.SourceID, ChunksStored: count, Err: err}
	}
	return results
}

// mockHealthService is a mock implementation of driving.HealthService.
type mockHealthService struct {
	health domain.Health
}

func (m *mockHealthService) Check(_ context.Context) domain.Health {
	return m.health
}
