package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/storage/memory"
	"github.com/oakum-labs/docq-cli/internal/chunker"
	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

func newIngestFixture(t *testing.T, opts ...IngestOption) (*IngestionService, *memory.VectorIndex, *mockEmbeddingService) {
	t.Helper()
	idx := memory.NewVectorIndex(testDimensions)
	embedder := &mockEmbeddingService{}
	ck := chunker.New(chunker.WithMaxSize(80), chunker.WithOverlap(20))
	return NewIngestionService(ck, embedder, idx, opts...), idx, embedder
}

func TestIngest_EmptyDocument(t *testing.T) {
	svc, idx, embedder := newIngestFixture(t)

	count, err := svc.Ingest(context.Background(), domain.Document{
		SourceID: "doc1",
		Content:  "   \n\t ",
		Type:     domain.SourceTypeUpload,
	})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, embedder.batchCalls)

	size, err := idx.Size(context.Background())
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestIngest_StoresChunks(t *testing.T) {
	svc, idx, _ := newIngestFixture(t)
	ctx := context.Background()

	text := strings.TrimSpace(strings.Repeat("Support hours are nine to five on weekdays. ", 6))
	count, err := svc.Ingest(ctx, domain.Document{
		SourceID: "doc1",
		Content:  text,
		Type:     domain.SourceTypeUpload,
	})
	require.NoError(t, err)
	assert.Greater(t, count, 1)

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, count, size)

	ids, err := idx.ChunkIDsBySource(ctx, "doc1")
	require.NoError(t, err)
	assert.Len(t, ids, count)
}

func TestIngest_Idempotent(t *testing.T) {
	svc, idx, embedder := newIngestFixture(t)
	ctx := context.Background()

	doc := domain.Document{
		SourceID: "doc1",
		Content:  strings.Repeat("Idempotence means ingesting twice changes nothing. ", 5),
		Type:     domain.SourceTypeUpload,
	}

	first, err := svc.Ingest(ctx, doc)
	require.NoError(t, err)
	firstIDs, err := idx.ChunkIDsBySource(ctx, "doc1")
	require.NoError(t, err)
	callsAfterFirst := embedder.batchCalls

	second, err := svc.Ingest(ctx, doc)
	require.NoError(t, err)
	secondIDs, err := idx.ChunkIDsBySource(ctx, "doc1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstIDs, secondIDs, "chunk IDs must be identical across runs")
	assert.Equal(t, callsAfterFirst, embedder.batchCalls,
		"unchanged content must not be re-embedded")

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, size)
}

func TestIngest_ReplacesStaleChunks(t *testing.T) {
	svc, idx, _ := newIngestFixture(t)
	ctx := context.Background()

	long := strings.TrimSpace(strings.Repeat("A long first version with many sentences in it. ", 8))
	_, err := svc.Ingest(ctx, domain.Document{SourceID: "doc1", Content: long})
	require.NoError(t, err)
	oldIDs, err := idx.ChunkIDsBySource(ctx, "doc1")
	require.NoError(t, err)
	require.Greater(t, len(oldIDs), 1)

	short := "A much shorter second version."
	count, err := svc.Ingest(ctx, domain.Document{SourceID: "doc1", Content: short})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size, "stale chunks from the longer version must be deleted")

	newIDs, err := idx.ChunkIDsBySource(ctx, "doc1")
	require.NoError(t, err)
	for _, old := range oldIDs {
		assert.NotContains(t, newIDs, old)
	}
}

func TestIngest_ComputesSourceIDWhenMissing(t *testing.T) {
	svc, idx, _ := newIngestFixture(t)
	ctx := context.Background()

	content := "Identity falls back to the content hash."
	count, err := svc.Ingest(ctx, domain.Document{Content: content})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ids, err := idx.ChunkIDsBySource(ctx, domain.ContentHash(content))
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestIngest_UnknownSourceType(t *testing.T) {
	svc, _, _ := newIngestFixture(t)

	_, err := svc.Ingest(context.Background(), domain.Document{
		SourceID: "doc1",
		Content:  "some text",
		Type:     "carrier-pigeon",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIngestion))
}

func TestIngest_OrderPreservedAcrossWorkers(t *testing.T) {
	// Small batches and several workers force out-of-order completion
	svc, idx, _ := newIngestFixture(t, WithEmbedWorkers(4), WithEmbedBatchSize(1))
	ctx := context.Background()

	var b strings.Builder
	sentences := []string{
		"Alpha discusses gardens and soil preparation in detail.",
		"Bravo covers pruning fruit trees during winter months.",
		"Charlie explains composting kitchen waste properly.",
		"Delta describes watering schedules for dry climates.",
		"Echo reviews common pests and natural deterrents.",
	}
	for _, s := range sentences {
		b.WriteString(s)
		b.WriteString(" ")
	}

	_, err := svc.Ingest(ctx, domain.Document{SourceID: "doc1", Content: strings.TrimSpace(b.String())})
	require.NoError(t, err)

	// Each chunk's stored embedding must match its own content: querying
	// with a chunk's text verbatim has to return that chunk first.
	ids, err := idx.ChunkIDsBySource(ctx, "doc1")
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	for _, sentence := range sentences[:2] {
		results, err := idx.Query(ctx, wordVector(sentence), 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Content, strings.Fields(sentence)[0],
			"retrieved chunk should contain the sentence's leading word")
	}
}

func TestIngestBatch_FailureIsolation(t *testing.T) {
	idx := memory.NewVectorIndex(testDimensions)
	embedder := &poisonEmbedder{failFor: "poison"}
	ck := chunker.New(chunker.WithMaxSize(200), chunker.WithOverlap(20))
	svc := NewIngestionService(ck, embedder, idx)

	docs := []domain.Document{
		{SourceID: "good1", Content: "First healthy document."},
		{SourceID: "bad", Content: "poison"},
		{SourceID: "good2", Content: "Second healthy document."},
	}

	results := svc.IngestBatch(context.Background(), docs)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].ChunksStored)

	assert.Error(t, results[1].Err)
	assert.True(t, errors.Is(results[1].Err, domain.ErrEmbeddingUnavailable))

	assert.NoError(t, results[2].Err, "failure of one document must not abort the batch")
	assert.Equal(t, 1, results[2].ChunksStored)
}

// poisonEmbedder fails any batch containing the poison text.
type poisonEmbedder struct {
	mockEmbeddingService
	failFor string
}

func (f *poisonEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if strings.Contains(text, f.failFor) {
			return nil, domain.ErrEmbeddingUnavailable
		}
	}
	return f.mockEmbeddingService.EmbedBatch(ctx, texts)
}
