package ai

import "context"

// MockProvider is a test double for AI providers.
type MockProvider struct {
	Response    string
	Embedding   []float64
	Err         error
	LastRequest *CompletionRequest // captures the last request for inspection
	LastEmbed   string
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.LastRequest = &req
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

func (m *MockProvider) Embed(_ context.Context, text string) ([]float64, error) {
	m.LastEmbed = text
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Embedding, nil
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
