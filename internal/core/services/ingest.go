package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oakum-labs/docq-cli/internal/chunker"
	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driving"
	"github.com/oakum-labs/docq-cli/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultEmbedWorkers is the default embedding worker pool size.
const DefaultEmbedWorkers = 4

// DefaultEmbedBatchSize is the default number of chunks per embedding batch.
const DefaultEmbedBatchSize = 16

// IngestionService chunks, embeds and indexes documents.
type IngestionService struct {
	chunker   *chunker.Chunker
	embedding driven.EmbeddingService
	index     driven.VectorIndex
	workers   int
	batchSize int

	// sourceLocks serializes writes per source so a stale-delete never
	// interleaves with a fresh upsert for the same document.
	mu          sync.Mutex
	sourceLocks map[string]*sync.Mutex
}

// IngestOption configures the ingestion service.
type IngestOption func(*IngestionService)

// WithEmbedWorkers sets the embedding worker pool size.
func WithEmbedWorkers(n int) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithEmbedBatchSize sets the number of chunks per embedding batch.
func WithEmbedBatchSize(n int) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	ck *chunker.Chunker,
	embedding driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...IngestOption,
) *IngestionService {
	s := &IngestionService{
		chunker:     ck,
		embedding:   embedding,
		index:       index,
		workers:     DefaultEmbedWorkers,
		batchSize:   DefaultEmbedBatchSize,
		sourceLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest chunks, embeds and indexes one document, returning the number
// of chunks stored for its source. Unchanged content is detected by the
// recorded source fingerprint and skipped without re-embedding.
func (s *IngestionService) Ingest(ctx context.Context, doc domain.Document) (int, error) {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		logger.Debug("Skipping empty document %q", doc.SourceID)
		return 0, nil
	}

	sourceID := doc.SourceID
	if sourceID == "" {
		sourceID = domain.ContentHash(content)
	}
	if doc.Type != "" && !doc.Type.Valid() {
		return 0, fmt.Errorf("%w: unknown source type %q", domain.ErrIngestion, doc.Type)
	}

	unlock := s.lockSource(sourceID)
	defer unlock()

	logger.Section("Ingestion")
	logger.Debug("Source: %s (%s)", sourceID, doc.Type)

	contentHash := domain.ContentHash(content)
	stored, err := s.index.SourceFingerprint(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("%w: reading fingerprint for %s: %v", domain.ErrIngestion, sourceID, err)
	}
	if stored == contentHash {
		ids, err := s.index.ChunkIDsBySource(ctx, sourceID)
		if err != nil {
			return 0, fmt.Errorf("%w: listing chunks for %s: %v", domain.ErrIngestion, sourceID, err)
		}
		logger.Info("Content unchanged for %s, keeping %d chunks", sourceID, len(ids))
		return len(ids), nil
	}

	chunks := s.chunker.Split(sourceID, content)
	logger.Debug("Split into %d chunks", len(chunks))

	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks for %s: %w", sourceID, err)
	}

	// Note prior chunk IDs before writing so a shorter new version
	// leaves no stale entries behind.
	previous, err := s.index.ChunkIDsBySource(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("%w: listing prior chunks for %s: %v", domain.ErrIngestion, sourceID, err)
	}

	fresh := make(map[string]bool, len(chunks))
	for i, ch := range chunks {
		fresh[ch.ID] = true
		entry := driven.IndexEntry{
			ChunkID:   ch.ID,
			SourceID:  sourceID,
			Position:  ch.Position,
			Content:   ch.Content,
			Embedding: embeddings[i],
			Metadata:  mergeMetadata(doc, ch),
		}
		if err := s.index.Upsert(ctx, entry); err != nil {
			return 0, fmt.Errorf("upserting chunk %s: %w", ch.ID, err)
		}
	}

	for _, id := range previous {
		if fresh[id] {
			continue
		}
		if err := s.index.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("%w: deleting stale chunk %s: %v", domain.ErrIngestion, id, err)
		}
		logger.Debug("Deleted stale chunk %s", id)
	}

	if err := s.index.SetSourceFingerprint(ctx, sourceID, contentHash); err != nil {
		return 0, fmt.Errorf("%w: recording fingerprint for %s: %v", domain.ErrIngestion, sourceID, err)
	}

	logger.Info("Ingested %s: %d chunks stored", sourceID, len(chunks))
	return len(chunks), nil
}

// IngestBatch ingests documents independently. One document's failure
// is recorded in its result and does not abort the remaining documents.
func (s *IngestionService) IngestBatch(ctx context.Context, docs []domain.Document) []driving.IngestResult {
	results := make([]driving.IngestResult, len(docs))
	for i, doc := range docs {
		count, err := s.Ingest(ctx, doc)
		results[i] = driving.IngestResult{
			SourceID:     doc.SourceID,
			ChunksStored: count,
			Err:          err,
		}
		if err != nil {
			logger.Warn("Ingestion of %s failed, continuing batch: %v", doc.SourceID, err)
		}
	}
	return results
}

// embedBatchJob is one worker-pool unit: a contiguous run of chunks.
type embedBatchJob struct {
	index int
	texts []string
}

// embedBatchResult carries a job's embeddings back with its index so
// original chunk order is restored regardless of completion order.
type embedBatchResult struct {
	index      int
	embeddings [][]float32
	err        error
}

// embedChunks embeds all chunks through a bounded worker pool and
// returns embeddings in chunk order.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	var batches []embedBatchJob
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Content)
		}
		batches = append(batches, embedBatchJob{index: len(batches), texts: texts})
	}

	workers := s.workers
	if workers > len(batches) {
		workers = len(batches)
	}

	jobs := make(chan embedBatchJob, len(batches))
	results := make(chan embedBatchResult, len(batches))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				embeddings, err := s.embedding.EmbedBatch(ctx, job.texts)
				results <- embedBatchResult{index: job.index, embeddings: embeddings, err: err}
			}
		}()
	}

	for _, job := range batches {
		jobs <- job
	}
	close(jobs)
	wg.Wait()
	close(results)

	ordered := make([][][]float32, len(batches))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		ordered[res.index] = res.embeddings
	}

	embeddings := make([][]float32, 0, len(chunks))
	for _, batch := range ordered {
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: embedded %d of %d chunks", domain.ErrIngestion, len(embeddings), len(chunks))
	}
	return embeddings, nil
}

// lockSource acquires the per-source writer lock, creating it on first use.
func (s *IngestionService) lockSource(sourceID string) func() {
	s.mu.Lock()
	lock, ok := s.sourceLocks[sourceID]
	if !ok {
		lock = &sync.Mutex{}
		s.sourceLocks[sourceID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// mergeMetadata combines document metadata with chunk provenance.
func mergeMetadata(doc domain.Document, ch domain.Chunk) map[string]any {
	meta := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	if doc.Type != "" {
		meta["source_type"] = string(doc.Type)
	}
	if doc.SourceURL != "" {
		meta["source_url"] = doc.SourceURL
	}
	return meta
}
