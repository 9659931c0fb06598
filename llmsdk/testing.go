package llmsdk

import (
	"context"
	"errors"
	"sync"
)

// MockGenerateResult is a result for a mocked `generate` call.
// It can either be a full response or an error.
type MockGenerateResult struct {
	Response *ModelResponse
	Error    error
}

// NewMockGenerateResultResponse constructs a generate result with a response.
func NewMockGenerateResultResponse(response ModelResponse) MockGenerateResult {
	return MockGenerateResult{Response: &response}
}

// NewMockGenerateResultError constructs a generate result that yields an error.
func NewMockGenerateResultError(err error) MockGenerateResult {
	return MockGenerateResult{Error: err}
}

// MockLanguageModel is a mock language model for testing purposes
// that tracks inputs and returns predefined outputs.
type MockLanguageModel struct {
	mu                    sync.Mutex
	mockedGenerateResults []MockGenerateResult
	trackedGenerateInputs []*LanguageModelInput

	provider ProviderName
	modelID  string
}

// NewMockLanguageModel constructs a mock language model instance.
func NewMockLanguageModel() *MockLanguageModel {
	return &MockLanguageModel{
		provider: ProviderName("mock"),
		modelID:  "mock-model",
	}
}

func (m *MockLanguageModel) Provider() ProviderName {
	return m.provider
}

func (m *MockLanguageModel) ModelID() string {
	return m.modelID
}

// Generate returns the next mocked generate result, tracking the provided input.
func (m *MockLanguageModel) Generate(ctx context.Context, input *LanguageModelInput) (*ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.mockedGenerateResults) == 0 {
		return nil, errors.New("no mocked generate results available")
	}

	result := m.mockedGenerateResults[0]
	m.mockedGenerateResults = m.mockedGenerateResults[1:]

	tracked := *input
	tracked.Messages = append([]Message(nil), input.Messages...)
	m.trackedGenerateInputs = append(m.trackedGenerateInputs, &tracked)

	if result.Error != nil {
		return nil, result.Error
	}
	return result.Response, nil
}

// EnqueueGenerateResult enqueues generate results to be returned sequentially.
func (m *MockLanguageModel) EnqueueGenerateResult(results ...MockGenerateResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mockedGenerateResults = append(m.mockedGenerateResults, results...)
}

// TrackedGenerateInputs returns a snapshot of the inputs seen so far.
// Messages are copied at call time.
func (m *MockLanguageModel) TrackedGenerateInputs() []*LanguageModelInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*LanguageModelInput(nil), m.trackedGenerateInputs...)
}

// Restore clears enqueued results and tracked inputs.
func (m *MockLanguageModel) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mockedGenerateResults = nil
	m.trackedGenerateInputs = nil
}
