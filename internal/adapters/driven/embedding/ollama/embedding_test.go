package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

func newTestServer(t *testing.T, dimensions int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.NotEmpty(t, req.Model)
			assert.NotEmpty(t, req.Prompt)

			vec := make([]float64, dimensions)
			for i := range vec {
				vec[i] = float64(i) * 0.1
			}
			json.NewEncoder(w).Encode(embedResponse{Embedding: vec})

		case "/api/tags":
			w.WriteHeader(http.StatusOK)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestEmbed(t *testing.T) {
	server := newTestServer(t, 8)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 8})

	vec, err := svc.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
	assert.InDelta(t, 0.1, vec[1], 1e-6)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	server := newTestServer(t, 4)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 8})

	_, err := svc.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingDimensionMismatch)
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 8})

	_, err := svc.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbed_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // Closed before use

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 8})

	_, err := svc.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls = append(calls, req.Prompt)
		json.NewEncoder(w).Encode(embedResponse{Embedding: make([]float64, 8)})
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 8})

	texts := []string{"first", "second", "third"}
	vecs, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, texts, calls)
}

func TestPing(t *testing.T) {
	server := newTestServer(t, 8)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}
