package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Defaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "ollama", cfg.Generation.Provider)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 3, cfg.Query.TopK)
	assert.Equal(t, 8000, cfg.Query.ContextBudget)
}

func TestConfigStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	cfg := store.Config()
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.Query.TopK = 5
	require.NoError(t, store.Update(cfg))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	got := reopened.Config()
	assert.Equal(t, "openai", got.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", got.Embedding.Model)
	assert.Equal(t, 5, got.Query.TopK)

	// Untouched sections keep their defaults
	assert.Equal(t, "ollama", got.Generation.Provider)
	assert.Equal(t, 1000, got.Ingest.ChunkSize)
}

func TestConfigStore_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[generation]\nprovider = \"anthropic\"\nmodel = \"claude-3-5-haiku-latest\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "anthropic", cfg.Generation.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Generation.Model)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 3, cfg.Query.TopK)
}

func TestConfigStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(dir)
	require.Error(t, err)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
