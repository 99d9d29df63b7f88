package provideradapter

import (
	"context"
	"sync"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// MockProvider is a scriptable in-memory Provider used by component tests
// and by the `doctor`/offline verbs. Responses are served from a queue;
// once exhausted, Generate returns DefaultResponse.
type MockProvider struct {
	mu              sync.Mutex
	model           string
	queue           []*radiumtypes.ModelResponse
	calls           []*radiumtypes.ModelRequest
	DefaultResponse *radiumtypes.ModelResponse
	Err             error
}

// NewMockProvider creates a mock targeting the given model id.
func NewMockProvider(model string) *MockProvider {
	return &MockProvider{
		model: model,
		DefaultResponse: &radiumtypes.ModelResponse{
			Content:      "",
			FinishReason: radiumtypes.FinishStop,
		},
	}
}

// Enqueue schedules a response to be returned by the next Generate call.
func (m *MockProvider) Enqueue(resp *radiumtypes.ModelResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// Calls returns every request Generate has observed, in order.
func (m *MockProvider) Calls() []*radiumtypes.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*radiumtypes.ModelRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp, nil
	}
	return m.DefaultResponse, nil
}

func (m *MockProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	resp, err := m.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan radiumtypes.StreamToken, 2)
	go func() {
		defer close(ch)
		select {
		case <-ctx.Done():
			return
		case ch <- radiumtypes.StreamToken{Text: resp.Content}:
		}
		usage := resp.Usage
		select {
		case <-ctx.Done():
		case ch <- radiumtypes.StreamToken{Done: true, Usage: &usage}:
		}
	}()
	return ch, nil
}

func (m *MockProvider) ModelType() ModelType { return ModelTypeMock }
func (m *MockProvider) ModelID() string      { return m.model }
