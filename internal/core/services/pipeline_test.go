package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/storage/memory"
	"github.com/oakum-labs/docq-cli/internal/chunker"
	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// TestIngestThenAnswer drives ingestion and querying together over one
// shared index: the answer's sources must point back at the chunk the
// pipeline stored, by its deterministic ID.
func TestIngestThenAnswer(t *testing.T) {
	idx := memory.NewVectorIndex(testDimensions)
	embedder := &mockEmbeddingService{}
	ck := chunker.New(chunker.WithMaxSize(200), chunker.WithOverlap(20))
	ingest := NewIngestionService(ck, embedder, idx)
	gen := &mockGenerationService{response: "Email support@example.com."}
	query := NewQueryService(embedder, idx, gen)

	ctx := context.Background()
	text := "You can contact support by emailing support@example.com during business hours."
	count, err := ingest.Ingest(ctx, domain.Document{
		SourceID: "doc1",
		Content:  text,
		Type:     domain.SourceTypeUpload,
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// An unrelated document keeps retrieval honest
	_, err = ingest.Ingest(ctx, domain.Document{
		SourceID: "doc2",
		Content:  "Gardening requires patience and regular watering in summer.",
		Type:     domain.SourceTypeUpload,
	})
	require.NoError(t, err)

	resp, err := query.Answer(ctx, "How can I contact support?")
	require.NoError(t, err)

	assert.Equal(t, "How can I contact support?", resp.QueryText)
	assert.Equal(t, "Email support@example.com.", resp.ResponseText)
	require.NotEmpty(t, resp.Sources)
	assert.Equal(t, chunker.ChunkID("doc1", 0, text), resp.Sources[0],
		"sources must carry the ingested chunk's deterministic ID")
	assert.Contains(t, gen.lastPrompt, text)
}
