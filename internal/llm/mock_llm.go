package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Extract(ctx context.Context, chunk string) (Extraction, error) {
	args := m.Called(ctx, chunk)
	return args.Get(0).(Extraction), args.Error(1)
}

func (m *MockClient) Synthesize(ctx context.Context, partials []Extraction) (Extraction, error) {
	args := m.Called(ctx, partials)
	return args.Get(0).(Extraction), args.Error(1)
}
