package llm

import (
	"context"
)

const (
	mockModel    = "mock-model"
	mockEndpoint = "http://mock-endpoint"
)

// MockLLMClient is a configurable LLMClient for tests. Point
// GenerateResponseFunc at the behavior under test; a nil func returns an
// empty completion.
type MockLLMClient struct {
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	Model    string
	Endpoint string

	// GenerateResponseCalls counts invocations for verification.
	GenerateResponseCalls int
}

// NewMockLLMClient creates a mock with default model and endpoint names.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model:    mockModel,
		Endpoint: mockEndpoint,
	}
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.GenerateResponseCalls++
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return &GenerateResponseResult{}, nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return mockModel
	}
	return m.Model
}

// GetEndpoint implements LLMClient.
func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return mockEndpoint
	}
	return m.Endpoint
}

var _ LLMClient = (*MockLLMClient)(nil)
