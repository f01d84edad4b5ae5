package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/daily-news-digest/internal/config"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
	"github.com/lueurxax/daily-news-digest/internal/observability"
)

const (
	defaultAnthropicModel = "claude-haiku-4-5"

	contentTypeText = "text"

	// Anthropic-specific "overloaded" status.
	statusOverloaded = 529
)

type anthropicSummarizer struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewAnthropic creates the Anthropic-backed Summarizer.
func NewAnthropic(cfg *config.Config, logger *zerolog.Logger) Summarizer {
	model := cfg.LLMModel
	if model == "" {
		model = defaultAnthropicModel
	}

	return &anthropicSummarizer{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.LLMAPIKey)),
		model:       model,
		maxTokens:   int64(cfg.LLMMaxTokens),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), rateLimiterBurst),
		logger:      logger,
	}
}

func (s *anthropicSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	timer := observability.StartLLMTimer(ProviderAnthropic, s.model)
	defer timer.ObserveDuration()

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) && (apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode == statusOverloaded) {
			return "", fmt.Errorf("%w: %s", coreerrors.ErrRateLimited, err)
		}

		return "", fmt.Errorf("anthropic summarize: %w", err)
	}

	s.logger.Debug().
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Str("model", s.model).
		Msg("summarization call completed")

	return strings.TrimSpace(extractText(resp)), nil
}

func extractText(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}
