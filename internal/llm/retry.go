package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 5 * time.Second
	delayMultiplier     = 2
)

// RetryConfig configures retry behavior for summarization calls.
type RetryConfig struct {
	// MaxAttempts bounds the total number of calls, never unbounded.
	MaxAttempts int
	// InitialDelay is doubled after each failed attempt.
	InitialDelay time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

type retrySummarizer struct {
	inner   Summarizer
	cfg     RetryConfig
	logger  *zerolog.Logger
	onRetry func()
}

// WithRetry wraps a Summarizer with bounded exponential-backoff retry.
// onRetry, if non-nil, is invoked once per repeated attempt for run
// diagnostics.
func WithRetry(inner Summarizer, cfg RetryConfig, logger *zerolog.Logger, onRetry func()) Summarizer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}

	return &retrySummarizer{inner: inner, cfg: cfg, logger: logger, onRetry: onRetry}
}

func (r *retrySummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	delay := r.cfg.InitialDelay

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if r.onRetry != nil {
				r.onRetry()
			}

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-time.After(delay):
				delay *= delayMultiplier
			}
		}

		text, err := r.attempt(ctx, prompt)
		if err == nil {
			return text, nil
		}

		lastErr = err

		if !isTransient(err) {
			return "", err
		}

		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.cfg.MaxAttempts).
			Msg("summarization attempt failed")
	}

	return "", fmt.Errorf("%w: %w", coreerrors.ErrRetriesExhausted, lastErr)
}

func (r *retrySummarizer) attempt(ctx context.Context, prompt string) (string, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	return r.inner.Summarize(ctx, prompt)
}

// isTransient reports whether the error is worth another attempt:
// rate-limit signals, empty responses, per-attempt timeouts and network
// errors are. A canceled run and permanent failures (bad credentials,
// invalid request) fail fast.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, coreerrors.ErrRateLimited) ||
		errors.Is(err, coreerrors.ErrEmptyResponse) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
