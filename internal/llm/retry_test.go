package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
)

type flakySummarizer struct {
	failures int
	calls    int
}

func (f *flakySummarizer) Summarize(context.Context, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("%w: 429 from provider", coreerrors.ErrRateLimited)
	}

	return "ok", nil
}

func TestWithRetryRecovers(t *testing.T) {
	logger := zerolog.Nop()
	inner := &flakySummarizer{failures: 2}

	var retries int

	s := WithRetry(inner, RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, &logger, func() { retries++ })

	text, err := s.Summarize(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 2, retries)
}

func TestWithRetryExhausts(t *testing.T) {
	logger := zerolog.Nop()
	inner := &flakySummarizer{failures: 10}

	s := WithRetry(inner, RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, &logger, nil)

	_, err := s.Summarize(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ErrRetriesExhausted)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	logger := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	canceled := &cancelAwareSummarizer{}
	s := WithRetry(canceled, RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, &logger, nil)

	_, err := s.Summarize(ctx, "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, canceled.calls)
}

type cancelAwareSummarizer struct{ calls int }

func (c *cancelAwareSummarizer) Summarize(ctx context.Context, _ string) (string, error) {
	c.calls++

	return "", ctx.Err()
}

type brokenSummarizer struct {
	calls int
	err   error
}

func (b *brokenSummarizer) Summarize(context.Context, string) (string, error) {
	b.calls++

	return "", b.err
}

func TestWithRetryFailsFastOnPermanentError(t *testing.T) {
	logger := zerolog.Nop()
	inner := &brokenSummarizer{err: errors.New("invalid api key")}

	var retries int

	s := WithRetry(inner, RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, &logger, func() { retries++ })

	_, err := s.Summarize(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 0, retries)
}

func TestIsTransient(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", fmt.Errorf("call: %w", coreerrors.ErrRateLimited), true},
		{"empty response", coreerrors.ErrEmptyResponse, true},
		{"attempt timeout", context.DeadlineExceeded, true},
		{"network", fmt.Errorf("call: %w", opErr), true},
		{"canceled", context.Canceled, false},
		{"bad request", errors.New("400 invalid request"), false},
	}

	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Fatalf("%s: isTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}
