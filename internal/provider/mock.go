package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a simple mock provider for testing
type MockProvider struct {
	mu        sync.Mutex
	kind      Kind
	responses map[string]string
	problems  []string
	err       error
	calls     int
	checks    int
}

// NewMockProvider creates a new mock provider
func NewMockProvider(kind Kind) *MockProvider {
	return &MockProvider{
		kind:      kind,
		responses: make(map[string]string),
	}
}

// SetResponse sets a mock response for a given prompt
func (m *MockProvider) SetResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetError makes every query fail with err
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetProblems sets what CheckConfiguration reports
func (m *MockProvider) SetProblems(problems ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.problems = problems
}

// Calls returns how many times QueryChatModel was called
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Checks returns how many times CheckConfiguration was called
func (m *MockProvider) Checks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}

func (m *MockProvider) Kind() Kind { return m.kind }

// QueryChatModel answers with the response registered for the last user message
func (m *MockProvider) QueryChatModel(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	if m.err != nil {
		return "", m.err
	}

	// Get the last user message
	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			prompt = messages[i].Content
			break
		}
	}

	response, ok := m.responses[prompt]
	if !ok {
		response = "Mock response for: " + prompt
	}

	return response, nil
}

// CheckConfiguration returns the configured problems
func (m *MockProvider) CheckConfiguration(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	return append([]string(nil), m.problems...)
}
