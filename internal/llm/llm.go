// Package llm wraps the external summarization capability behind a narrow
// text-in/text-out interface. The core's correctness properties never depend
// on model behavior; everything past Summarize is plain text parsing.
package llm

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/config"
	"github.com/lueurxax/daily-news-digest/internal/observability"
)

// Provider name constants.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

const rateLimiterBurst = 5

// Summarizer is the black-box summarization service: a single prompt in,
// structured Japanese digest text out.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// RetryCounter accumulates retry attempts between Take calls so a run can
// report how many retries its summarization cost.
type RetryCounter struct {
	n atomic.Int64
}

func (c *RetryCounter) inc() {
	c.n.Add(1)
	observability.SummarizeRetries.Inc()
}

// Take returns the count accumulated since the previous Take and resets it.
func (c *RetryCounter) Take() int {
	return int(c.n.Swap(0))
}

// New builds the configured provider wrapped with bounded retry.
func New(cfg *config.Config, logger *zerolog.Logger) (Summarizer, *RetryCounter) {
	var inner Summarizer

	switch cfg.LLMProvider {
	case ProviderOpenAI:
		inner = NewOpenAI(cfg, logger)
	case ProviderMock:
		inner = NewMock("")
	default:
		inner = NewAnthropic(cfg, logger)
	}

	counter := &RetryCounter{}

	return WithRetry(inner, RetryConfig{
		MaxAttempts:  cfg.LLMMaxRetries,
		InitialDelay: cfg.LLMRetryDelay,
		Timeout:      cfg.LLMTimeout,
	}, logger, counter.inc), counter
}
