package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driving"
	"github.com/oakum-labs/docq-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Default query configuration.
const (
	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 3

	// DefaultContextBudget is the maximum assembled context length in
	// characters. Chunks past the budget are dropped whole, lowest
	// rank first.
	DefaultContextBudget = 8000

	// DefaultGenerationTimeout bounds the model call.
	DefaultGenerationTimeout = 120 * time.Second
)

// contextDelimiter separates chunk texts in the assembled context.
const contextDelimiter = "\n\n---\n\n"

// promptTemplate is the fixed grounding prompt. The model is told to
// answer only from the supplied context so missing information yields
// "insufficient information" rather than a fabricated answer.
const promptTemplate = `Answer the question based only on the following context:

{context}

---

Answer the question based on the above context: {question}`

// QueryService answers questions over the ingested collection.
type QueryService struct {
	embedding  driven.EmbeddingService
	index      driven.VectorIndex
	generation driven.GenerationService
	topK       int
	budget     int
	genTimeout time.Duration
	genOpts    driven.GenerateOptions
}

// QueryOption configures the query service.
type QueryOption func(*QueryService)

// WithTopK sets the number of chunks retrieved per query.
func WithTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithContextBudget sets the assembled context length budget in characters.
func WithContextBudget(n int) QueryOption {
	return func(s *QueryService) {
		if n > 0 {
			s.budget = n
		}
	}
}

// WithGenerationTimeout bounds the generation model call.
func WithGenerationTimeout(d time.Duration) QueryOption {
	return func(s *QueryService) {
		if d > 0 {
			s.genTimeout = d
		}
	}
}

// WithGenerateOptions sets the options passed to the generation model.
func WithGenerateOptions(opts driven.GenerateOptions) QueryOption {
	return func(s *QueryService) {
		s.genOpts = opts
	}
}

// NewQueryService creates a new query service.
func NewQueryService(
	embedding driven.EmbeddingService,
	index driven.VectorIndex,
	generation driven.GenerationService,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		embedding:  embedding,
		index:      index,
		generation: generation,
		topK:       DefaultTopK,
		budget:     DefaultContextBudget,
		genTimeout: DefaultGenerationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the retrieval-augmented pipeline for one query.
func (s *QueryService) Answer(ctx context.Context, queryText string) (domain.QueryResponse, error) {
	logger.Section("Query")
	logger.Debug("Query: %q", queryText)

	trimmed := strings.TrimSpace(queryText)
	if trimmed == "" {
		return domain.QueryResponse{}, fmt.Errorf("%w: query text is empty", domain.ErrInvalidQuery)
	}

	vector, err := s.embedding.Embed(ctx, trimmed)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("embedding query: %w", err)
	}

	retrieved, err := s.index.Query(ctx, vector, s.topK)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("retrieving chunks: %w", err)
	}
	logger.Debug("Retrieved %d chunks", len(retrieved))

	contextText, sources := s.assembleContext(retrieved)

	prompt := renderPrompt(contextText, trimmed)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	responseText, err := s.generation.Generate(genCtx, prompt, s.genOpts)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("query %q: %w", trimmed, err)
	}

	return domain.QueryResponse{
		QueryText:    queryText,
		ResponseText: responseText,
		Sources:      sources,
	}, nil
}

// assembleContext concatenates retrieved chunk texts in rank order
// under the context budget. A chunk that would overflow the budget is
// dropped along with every lower-ranked chunk; chunks are never split.
// Returns the context text and the IDs of the chunks included, in rank
// order, deduplicated.
func (s *QueryService) assembleContext(retrieved []domain.RetrievedChunk) (string, []string) {
	var b strings.Builder
	sources := make([]string, 0, len(retrieved))
	seen := make(map[string]bool, len(retrieved))

	included := 0
	for _, chunk := range retrieved {
		addition := len(chunk.Content)
		if b.Len() > 0 {
			addition += len(contextDelimiter)
		}
		if b.Len()+addition > s.budget {
			logger.Warn("Context budget reached: keeping %d of %d retrieved chunks",
				included, len(retrieved))
			break
		}
		if b.Len() > 0 {
			b.WriteString(contextDelimiter)
		}
		b.WriteString(chunk.Content)
		included++

		if !seen[chunk.ChunkID] {
			seen[chunk.ChunkID] = true
			sources = append(sources, chunk.ChunkID)
		}
	}

	return b.String(), sources
}

// renderPrompt substitutes context and question into the fixed template.
func renderPrompt(contextText, question string) string {
	r := strings.NewReplacer(
		"{context}", contextText,
		"{question}", question,
	)
	return r.Replace(promptTemplate)
}
