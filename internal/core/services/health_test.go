package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/storage/memory"
	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

func TestHealthCheck_AllHealthy(t *testing.T) {
	svc := NewHealthService(
		&mockEmbeddingService{},
		&mockGenerationService{},
		memory.NewVectorIndex(testDimensions),
	)

	health := svc.Check(context.Background())

	assert.Equal(t, domain.StatusHealthy, health.Status)
	require.Len(t, health.Components, 3)
	for name, detail := range health.Components {
		assert.Empty(t, detail, "component %s should carry no failure detail", name)
	}
}

func TestHealthCheck_DegradedOnFailure(t *testing.T) {
	svc := NewHealthService(
		&mockEmbeddingService{pingErr: errors.New("connection refused")},
		&mockGenerationService{},
		memory.NewVectorIndex(testDimensions),
	)

	health := svc.Check(context.Background())

	assert.Equal(t, domain.StatusDegraded, health.Status)
	assert.Contains(t, health.Components["embedding"], "connection refused")
	assert.Empty(t, health.Components["generation"])
	assert.Empty(t, health.Components["index"])
}

func TestHealthCheck_ReportsEveryFailure(t *testing.T) {
	idx := memory.NewVectorIndex(testDimensions)
	require.NoError(t, idx.Close())

	svc := NewHealthService(
		&mockEmbeddingService{pingErr: errors.New("embed down")},
		&mockGenerationService{pingErr: errors.New("gen down")},
		idx,
	)

	health := svc.Check(context.Background())

	assert.Equal(t, domain.StatusDegraded, health.Status)
	assert.NotEmpty(t, health.Components["embedding"])
	assert.NotEmpty(t, health.Components["generation"])
	assert.NotEmpty(t, health.Components["index"])
}
