package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigDirName is the directory under the user home that holds
// configuration and index data.
const DefaultConfigDirName = ".docq"

// ProviderSettings configures one model backend.
type ProviderSettings struct {
	// Provider selects the backend: ollama, openai or anthropic.
	Provider string `toml:"provider"`

	// Model names the model. Empty uses the provider's default.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url,omitempty"`

	// APIKey authenticates hosted providers. Environment variables
	// take precedence so keys need not live in the file.
	APIKey string `toml:"api_key,omitempty"`
}

// EmbeddingSettings configures the embedding backend.
type EmbeddingSettings struct {
	ProviderSettings

	// Dimensions is the vector size. Zero uses the model default.
	Dimensions int `toml:"dimensions,omitempty"`
}

// IngestSettings configures document ingestion.
type IngestSettings struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	Workers      int `toml:"workers"`
	BatchSize    int `toml:"batch_size"`
}

// QuerySettings configures retrieval and generation.
type QuerySettings struct {
	TopK          int `toml:"top_k"`
	ContextBudget int `toml:"context_budget"`
}

// Config is the full docq configuration.
type Config struct {
	// DataDir holds the vector index. Empty defaults to the config dir.
	DataDir string `toml:"data_dir,omitempty"`

	Embedding  EmbeddingSettings `toml:"embedding"`
	Generation ProviderSettings  `toml:"generation"`
	Ingest     IngestSettings    `toml:"ingest"`
	Query      QuerySettings     `toml:"query"`
}

// DefaultConfig returns the configuration used when no file exists:
// local Ollama for both models.
func DefaultConfig() Config {
	return Config{
		Embedding: EmbeddingSettings{
			ProviderSettings: ProviderSettings{Provider: "ollama"},
		},
		Generation: ProviderSettings{Provider: "ollama"},
		Ingest: IngestSettings{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Workers:      4,
			BatchSize:    16,
		},
		Query: QuerySettings{
			TopK:          3,
			ContextBudget: 8000,
		},
	}
}

// ConfigStore loads and persists the configuration as a TOML file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	config   Config
}

// NewConfigStore creates a store rooted at configDir.
// If configDir is empty, defaults to ~/.docq/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, DefaultConfigDirName)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		config:   DefaultConfig(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config returns a copy of the current configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Update replaces the configuration and persists it.
func (s *ConfigStore) Update(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the config file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.config)
	if err != nil {
		return err
	}

	// Restricted permissions: the file may hold API keys
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads the configuration from disk. A missing file leaves the
// defaults in place; a malformed file is an error.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	s.config = cfg
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Dir returns the directory holding the configuration file.
func (s *ConfigStore) Dir() string {
	return filepath.Dir(s.filePath)
}
