package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/daily-news-digest/internal/config"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
	"github.com/lueurxax/daily-news-digest/internal/observability"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"

	openaiTemperature = 0.3
)

type openaiSummarizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewOpenAI creates the OpenAI-backed Summarizer.
func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Summarizer {
	model := cfg.LLMModel
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openaiSummarizer{
		client:      openai.NewClient(cfg.LLMAPIKey),
		model:       model,
		maxTokens:   cfg.LLMMaxTokens,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), rateLimiterBurst),
		logger:      logger,
	}
}

func (s *openaiSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	timer := observability.StartLLMTimer(ProviderOpenAI, s.model)
	defer timer.ObserveDuration()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: openaiTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", coreerrors.ErrRateLimited, err)
		}

		return "", fmt.Errorf("openai summarize: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", coreerrors.ErrEmptyResponse
	}

	s.logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("model", s.model).
		Msg("summarization call completed")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
