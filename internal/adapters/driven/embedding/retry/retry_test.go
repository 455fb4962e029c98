package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// flakyEmbedder fails the first failures calls, then succeeds.
type flakyEmbedder struct {
	failures int
	failWith error
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.failWith
	}
	return []float32{1, 0}, nil
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vec, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (f *flakyEmbedder) Dimensions() int   { return 2 }
func (f *flakyEmbedder) ModelName() string { return "flaky" }
func (f *flakyEmbedder) Close() error      { return nil }

func (f *flakyEmbedder) Ping(context.Context) error {
	f.calls++
	return f.failWith
}

func fastConfig() Config {
	return Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxRate: 1000}
}

func TestEmbed_RecoversFromTransientFailure(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, failWith: domain.ErrEmbeddingUnavailable}
	svc := Wrap(inner, fastConfig())

	vec, err := svc.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, 3, inner.calls)
}

func TestEmbed_ExhaustsAttempts(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: domain.ErrEmbeddingUnavailable}
	svc := Wrap(inner, fastConfig())

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, 3, inner.calls, "attempt budget must be honoured")
}

func TestEmbed_DimensionMismatchNotRetried(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: domain.ErrEmbeddingDimensionMismatch}
	svc := Wrap(inner, fastConfig())

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingDimensionMismatch)
	assert.Equal(t, 1, inner.calls, "configuration drift must surface immediately")
}

func TestEmbed_ContextCancellation(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: domain.ErrEmbeddingUnavailable}
	svc := Wrap(inner, Config{MaxAttempts: 5, InitialBackoff: time.Second, MaxRate: 1000})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Embed(ctx, "text")
	require.Error(t, err)
	assert.Less(t, inner.calls, 5, "cancellation must cut retries short")
}

func TestEmbedBatch_Retries(t *testing.T) {
	inner := &flakyEmbedder{failures: 1, failWith: domain.ErrEmbeddingUnavailable}
	svc := Wrap(inner, fastConfig())

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestPing_NotRetried(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: domain.ErrEmbeddingUnavailable}
	svc := Wrap(inner, fastConfig())

	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestWrap_Defaults(t *testing.T) {
	svc := Wrap(&flakyEmbedder{}, Config{})
	assert.Equal(t, DefaultMaxAttempts, svc.maxAttempts)
	assert.Equal(t, DefaultInitialBackoff, svc.initialBackoff)
	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "flaky", svc.ModelName())
}
