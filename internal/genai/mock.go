package genai

import (
	"context"
	"errors"
	"sync"
)

// MockCompleter is a scriptable completer for tests.
type MockCompleter struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	Requests []string // user messages seen, in order
}

func (m *MockCompleter) Complete(_ context.Context, _ string, _ []Message, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, userMessage)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply == "" {
		return "mock reply", nil
	}
	return m.Reply, nil
}

func (m *MockCompleter) Ready() bool { return true }

// DownCompleter models an unavailable generation backend.
type DownCompleter struct{}

func (DownCompleter) Complete(context.Context, string, []Message, string) (string, error) {
	return "", errors.New("generation backend unavailable")
}

func (DownCompleter) Ready() bool { return false }
