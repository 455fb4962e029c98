package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/config/file"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings file.EmbeddingSettings
		wantErr  bool
	}{
		{
			name:     "empty provider defaults to ollama",
			settings: file.EmbeddingSettings{},
		},
		{
			name: "ollama",
			settings: file.EmbeddingSettings{
				ProviderSettings: file.ProviderSettings{Provider: "ollama"},
			},
		},
		{
			name: "openai with key",
			settings: file.EmbeddingSettings{
				ProviderSettings: file.ProviderSettings{Provider: "openai", APIKey: "sk-test"},
			},
		},
		{
			name: "anthropic has no embeddings",
			settings: file.EmbeddingSettings{
				ProviderSettings: file.ProviderSettings{Provider: "anthropic", APIKey: "sk-test"},
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			settings: file.EmbeddingSettings{
				ProviderSettings: file.ProviderSettings{Provider: "carrier-pigeon"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Greater(t, svc.Dimensions(), 0)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbeddingService_ModelDefaults(t *testing.T) {
	svc, err := CreateEmbeddingService(file.EmbeddingSettings{
		ProviderSettings: file.ProviderSettings{Provider: "ollama"},
	})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, "mxbai-embed-large", svc.ModelName())
	assert.Equal(t, 1024, svc.Dimensions())
}

func TestCreateGenerationService(t *testing.T) {
	tests := []struct {
		name     string
		settings file.ProviderSettings
		wantErr  bool
	}{
		{name: "empty provider defaults to ollama", settings: file.ProviderSettings{}},
		{name: "ollama", settings: file.ProviderSettings{Provider: "ollama"}},
		{name: "openai with key", settings: file.ProviderSettings{Provider: "openai", APIKey: "sk-test"}},
		{name: "anthropic with key", settings: file.ProviderSettings{Provider: "anthropic", APIKey: "sk-test"}},
		{name: "openai missing key", settings: file.ProviderSettings{Provider: "openai"}, wantErr: true},
		{name: "unknown provider", settings: file.ProviderSettings{Provider: "smoke-signals"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			t.Setenv("ANTHROPIC_API_KEY", "")

			svc, err := CreateGenerationService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.NotEmpty(t, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateGenerationService_EnvKeyOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	svc, err := CreateGenerationService(file.ProviderSettings{Provider: "openai"})
	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, "gpt-4o-mini", svc.ModelName())
}
