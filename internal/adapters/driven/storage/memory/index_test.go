package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
)

func newEntry(chunkID, sourceID string, position int, vec []float32) driven.IndexEntry {
	return driven.IndexEntry{
		ChunkID:   chunkID,
		SourceID:  sourceID,
		Position:  position,
		Content:   "content of " + chunkID,
		Embedding: vec,
	}
}

func TestUpsertReplacesWithoutGrowing(t *testing.T) {
	idx := NewVectorIndex(3)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, newEntry("c1", "doc1", 0, []float32{1, 0, 0})))
	require.NoError(t, idx.Upsert(ctx, newEntry("c1", "doc1", 0, []float32{0, 1, 0})))

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	idx := NewVectorIndex(3)

	err := idx.Upsert(context.Background(), newEntry("c1", "doc1", 0, []float32{1, 0}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingDimensionMismatch))
}

func TestQuery_RankingAndTies(t *testing.T) {
	idx := NewVectorIndex(3)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, newEntry("tie-first", "doc1", 0, []float32{1, 0, 0})))
	require.NoError(t, idx.Upsert(ctx, newEntry("far", "doc1", 1, []float32{0, 1, 0})))
	require.NoError(t, idx.Upsert(ctx, newEntry("tie-second", "doc2", 0, []float32{1, 0, 0})))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "tie-first", results[0].ChunkID)
	assert.Equal(t, "tie-second", results[1].ChunkID)
	assert.Equal(t, "far", results[2].ChunkID)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx := NewVectorIndex(3)

	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChunkIDsBySourceOrderedByPosition(t *testing.T) {
	idx := NewVectorIndex(3)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, newEntry("b", "doc1", 1, []float32{0, 1, 0})))
	require.NoError(t, idx.Upsert(ctx, newEntry("a", "doc1", 0, []float32{1, 0, 0})))

	ids, err := idx.ChunkIDsBySource(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFingerprints(t *testing.T) {
	idx := NewVectorIndex(3)
	ctx := context.Background()

	hash, err := idx.SourceFingerprint(ctx, "doc1")
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, idx.SetSourceFingerprint(ctx, "doc1", "h1"))
	hash, err = idx.SourceFingerprint(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "h1", hash)
}

func TestConcurrentUpsertAndQuery(t *testing.T) {
	idx := NewVectorIndex(3)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			vec := []float32{float32(n), 1, 0}
			_ = idx.Upsert(ctx, newEntry("c", "doc1", 0, vec))
		}(i)
		go func() {
			defer wg.Done()
			_, err := idx.Query(ctx, []float32{1, 0, 0}, 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestPingAfterClose(t *testing.T) {
	idx := NewVectorIndex(3)
	require.NoError(t, idx.Ping(context.Background()))
	require.NoError(t, idx.Close())
	assert.Error(t, idx.Ping(context.Background()))
}
