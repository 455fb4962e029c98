// Package retry decorates an embedding service with bounded exponential
// backoff and proactive request throttling.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
	"github.com/oakum-labs/docq-cli/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxRate        = 10 // requests per second
)

// Config holds retry and throttling configuration.
type Config struct {
	// MaxAttempts is the total attempt budget per call (default: 3).
	MaxAttempts int

	// InitialBackoff is the delay before the first retry; each further
	// retry doubles it (default: 500ms).
	InitialBackoff time.Duration

	// MaxRate caps outgoing requests per second (default: 10).
	MaxRate float64
}

// EmbeddingService wraps another embedding service, retrying transient
// failures with exponential backoff. Dimension mismatches indicate
// configuration drift and are surfaced immediately, never retried.
type EmbeddingService struct {
	inner          driven.EmbeddingService
	maxAttempts    int
	initialBackoff time.Duration
	limiter        *rate.Limiter
}

// Wrap decorates the given embedding service.
func Wrap(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxRate <= 0 {
		cfg.MaxRate = DefaultMaxRate
	}

	return &EmbeddingService{
		inner:          inner,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		limiter:        rate.NewLimiter(rate.Limit(cfg.MaxRate), 1),
	}
}

// Embed generates an embedding, retrying transient backend failures.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := s.withRetry(ctx, func() error {
		var err error
		result, err = s.inner.Embed(ctx, text)
		return err
	})
	return result, err
}

// EmbedBatch generates embeddings for multiple texts, retrying the whole
// batch on transient failure. Order preservation is the inner service's
// contract and passes through unchanged.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := s.withRetry(ctx, func() error {
		var err error
		result, err = s.inner.EmbedBatch(ctx, texts)
		return err
	})
	return result, err
}

// withRetry runs fn up to maxAttempts times with doubling backoff.
func (s *EmbeddingService) withRetry(ctx context.Context, fn func() error) error {
	backoff := s.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == s.maxAttempts {
			break
		}

		logger.Warn("embedding attempt %d/%d failed, retrying in %s: %v",
			attempt, s.maxAttempts, backoff, lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("after %d attempts: %w", s.maxAttempts, lastErr)
}

// retryable reports whether the error is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, domain.ErrEmbeddingDimensionMismatch) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, domain.ErrEmbeddingUnavailable)
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping delegates to the inner service without retrying; health checks
// want the current state, not an eventually successful one.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close releases the inner service's resources.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
