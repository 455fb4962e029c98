package driven

import "context"

// GenerationService produces text from a prompt via a language model.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT family)
//   - Anthropic (Claude family)
type GenerationService interface {
	// Generate produces a completion for the prompt. The call respects
	// ctx for cancellation and deadline; on timeout the operation is
	// abandoned, never left half-completed from the caller's view.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
