package services

import (
	"context"
	"time"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// DefaultPingTimeout bounds each component's health probe.
const DefaultPingTimeout = 5 * time.Second

// HealthService pings the pipeline's backends and rolls the results up.
type HealthService struct {
	embedding  driven.EmbeddingService
	generation driven.GenerationService
	index      driven.VectorIndex
	timeout    time.Duration
}

// NewHealthService creates a new health service.
func NewHealthService(
	embedding driven.EmbeddingService,
	generation driven.GenerationService,
	index driven.VectorIndex,
) *HealthService {
	return &HealthService{
		embedding:  embedding,
		generation: generation,
		index:      index,
		timeout:    DefaultPingTimeout,
	}
}

// Check pings every component. The status is healthy only when all of
// them respond; otherwise degraded, with per-component failure detail.
func (s *HealthService) Check(ctx context.Context) domain.Health {
	health := domain.Health{
		Status:     domain.StatusHealthy,
		Components: make(map[string]string, 3),
	}

	probes := []struct {
		name string
		ping func(context.Context) error
	}{
		{"embedding", s.embedding.Ping},
		{"generation", s.generation.Ping},
		{"index", s.index.Ping},
	}

	for _, probe := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := probe.ping(probeCtx)
		cancel()

		if err != nil {
			health.Status = domain.StatusDegraded
			health.Components[probe.name] = err.Error()
		} else {
			health.Components[probe.name] = ""
		}
	}

	return health
}
