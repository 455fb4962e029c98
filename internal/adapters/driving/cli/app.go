package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/ai"
	"github.com/oakum-labs/docq-cli/internal/adapters/driven/config/file"
	"github.com/oakum-labs/docq-cli/internal/adapters/driven/storage/sqlite"
	"github.com/oakum-labs/docq-cli/internal/chunker"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
	"github.com/oakum-labs/docq-cli/internal/core/services"
)

// app wires configuration, backends and services together for one
// command invocation.
type app struct {
	store      *file.ConfigStore
	embedding  driven.EmbeddingService
	generation driven.GenerationService
	index      driven.VectorIndex

	query  *services.QueryService
	ingest *services.IngestionService
	health *services.HealthService
}

// newApp builds the full pipeline from the configuration file.
func newApp() (*app, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	cfg := store.Config()

	embedding, err := ai.CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	generation, err := ai.CreateGenerationService(cfg.Generation)
	if err != nil {
		embedding.Close()
		return nil, fmt.Errorf("creating generation service: %w", err)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		// Keep the index next to the config so --config-dir moves both
		dataDir = filepath.Join(store.Dir(), "data")
	}
	index, err := sqlite.NewVectorIndex(dataDir, embedding.Dimensions())
	if err != nil {
		embedding.Close()
		generation.Close()
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	ck := chunker.New(
		chunker.WithMaxSize(cfg.Ingest.ChunkSize),
		chunker.WithOverlap(cfg.Ingest.ChunkOverlap),
	)

	return &app{
		store:      store,
		embedding:  embedding,
		generation: generation,
		index:      index,
		query: services.NewQueryService(embedding, index, generation,
			services.WithTopK(cfg.Query.TopK),
			services.WithContextBudget(cfg.Query.ContextBudget),
		),
		ingest: services.NewIngestionService(ck, embedding, index,
			services.WithEmbedWorkers(cfg.Ingest.Workers),
			services.WithEmbedBatchSize(cfg.Ingest.BatchSize),
		),
		health: services.NewHealthService(embedding, generation, index),
	}, nil
}

// Close releases every backend held by the app.
func (a *app) Close() {
	if a.embedding != nil {
		a.embedding.Close()
	}
	if a.generation != nil {
		a.generation.Close()
	}
	if a.index != nil {
		a.index.Close()
	}
}

// sinceRounded formats an elapsed duration for user output.
func sinceRounded(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
