// Package mocks holds testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/omnichat/internal/domain"
)

// MockProvider is a mock of domain.Provider.
type MockProvider struct {
	mock.Mock

	name string
}

// NewMockProvider creates a mock provider registered under name. Expectations
// are asserted when the test ends.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}, name string,
) *MockProvider {
	m := &MockProvider{name: name}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Complete implements domain.Provider.
func (m *MockProvider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*domain.CompletionResponse)
	return resp, args.Error(1)
}

// Stream implements domain.Provider.
func (m *MockProvider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	args := m.Called(ctx, req)
	chunks, _ := args.Get(0).(<-chan domain.StreamChunk)
	return chunks, args.Error(1)
}

// Name implements domain.Provider.
func (m *MockProvider) Name() string {
	return m.name
}

// Chunks returns a closed channel pre-filled with chunks.
func Chunks(chunks ...domain.StreamChunk) <-chan domain.StreamChunk {
	ch := make(chan domain.StreamChunk, len(chunks))
	for _, chunk := range chunks {
		ch <- chunk
	}
	close(ch)
	return ch
}
