package llm

import (
	"context"
	"sync"
)

// Mock is a deterministic in-memory Summarizer for tests and local runs.
type Mock struct {
	mu       sync.Mutex
	response string
	err      error
	// Calls records every prompt received.
	Calls []string
}

// NewMock creates a Mock returning the given response.
func NewMock(response string) *Mock {
	return &Mock{response: response}
}

// Fail makes subsequent calls return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

// Respond makes subsequent calls return response.
func (m *Mock) Respond(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.response = response
	m.err = nil
}

func (m *Mock) Summarize(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, prompt)

	if m.err != nil {
		return "", m.err
	}

	return m.response, nil
}
