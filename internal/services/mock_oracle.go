package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/gatekeeper/pkg/chat"
)

// MockOracle is a mock implementation of OracleService for testing
type MockOracle struct {
	DecideFunc func(ctx context.Context, messages []chat.ChatMessage) (string, error)

	// Track calls for testing
	DecideCalls []DecideCall

	mu sync.Mutex // protects all fields above
}

type DecideCall struct {
	Messages []chat.ChatMessage
}

// NewMockOracle creates a new mock oracle service
func NewMockOracle() *MockOracle {
	return &MockOracle{
		DecideCalls: make([]DecideCall, 0),
	}
}

// Decide mocks a decision request
func (m *MockOracle) Decide(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DecideCalls = append(m.DecideCalls, DecideCall{Messages: messages})

	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, messages)
	}

	// Default behavior - hold with no update
	return `{"action":"hold","target":null,"content":"","reasoning":"mock default"}`, nil
}

// DecideCallCount returns the number of Decide calls made
func (m *MockOracle) DecideCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.DecideCalls)
}
