// Package ai provides factory functions for creating model service adapters.
package ai

import (
	"fmt"
	"os"

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/oakum-labs/docq-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/oakum-labs/docq-cli/internal/adapters/driven/embedding/openai"
	"github.com/oakum-labs/docq-cli/internal/adapters/driven/embedding/retry"
	anthropicllm "github.com/oakum-labs/docq-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/oakum-labs/docq-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/oakum-labs/docq-cli/internal/adapters/driven/llm/openai"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
)

// Provider names accepted in configuration.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// CreateEmbeddingService builds the configured embedding backend,
// wrapped with retry and throttling.
func CreateEmbeddingService(settings file.EmbeddingSettings) (driven.EmbeddingService, error) {
	var svc driven.EmbeddingService

	switch settings.Provider {
	case ProviderOllama, "":
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case ProviderOpenAI:
		inner, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     apiKey(settings.APIKey, "OPENAI_API_KEY"),
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		svc = inner

	case ProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not offer embedding models, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	return retry.Wrap(svc, retry.Config{}), nil
}

// CreateGenerationService builds the configured generation backend.
func CreateGenerationService(settings file.ProviderSettings) (driven.GenerationService, error) {
	switch settings.Provider {
	case ProviderOllama, "":
		return ollamallm.NewGenerationService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case ProviderOpenAI:
		return openaillm.NewGenerationService(openaillm.Config{
			APIKey:  apiKey(settings.APIKey, "OPENAI_API_KEY"),
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case ProviderAnthropic:
		return anthropicllm.NewGenerationService(anthropicllm.Config{
			APIKey:  apiKey(settings.APIKey, "ANTHROPIC_API_KEY"),
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", settings.Provider)
	}
}

// apiKey prefers the environment variable over the configured value so
// keys can stay out of the config file.
func apiKey(configured, envVar string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return configured
}
