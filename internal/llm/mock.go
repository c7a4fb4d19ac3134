package llm

import (
	"context"
	"strings"
	"sync"
)

// MockClient is a deterministic stub for tests and for running without any
// provider credentials. Responses are matched by substring of the system or
// user content, first rule wins. Matching on a fragment of the system prompt
// pins a rule to one workflow step even when every step sees the same user
// query.
type MockClient struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	err      error
	calls    []MockCall
}

type mockRule struct {
	contains string
	response string
}

type MockCall struct {
	System string
	User   string
}

func NewMock() *MockClient {
	return &MockClient{fallback: "general_qa"}
}

func (m *MockClient) Provider() string { return "mock" }

// Respond registers a canned response for calls whose system or user content
// contains substr.
func (m *MockClient) Respond(substr, response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{contains: substr, response: response})
	return m
}

// Fallback sets the response returned when no rule matches.
func (m *MockClient) Fallback(response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
	return m
}

// Fail makes every call return err.
func (m *MockClient) Fail(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Calls returns the recorded calls.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockClient) Generate(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{System: system, User: user})

	if m.err != nil {
		return "", m.err
	}
	for _, r := range m.rules {
		if strings.Contains(system, r.contains) || strings.Contains(user, r.contains) {
			return r.response, nil
		}
	}
	return m.fallback, nil
}
