package registry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/registry"
)

// mockProvider is a mock implementation of domain.Provider for testing.
type mockProvider struct {
	name string
}

func (m *mockProvider) Complete(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	return &domain.CompletionResponse{}, nil
}

func (m *mockProvider) Stream(_ context.Context, _ *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	ch := make(chan domain.StreamChunk)
	close(ch)
	return ch, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func TestRegistry_Register(t *testing.T) {
	t.Run("should register provider successfully", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		err := reg.Register(ctx, &mockProvider{name: "groq"})
		require.NoError(t, err)

		registered, err := reg.Get(ctx, "groq")
		require.NoError(t, err)
		require.Equal(t, "groq", registered.Name())
	})

	t.Run("should return error when provider is nil", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(context.Background(), nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider cannot be nil")
	})

	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(context.Background(), &mockProvider{name: ""})
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider name cannot be empty")
	})

	t.Run("should return error when provider already registered", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &mockProvider{name: "cohere"}))

		err := reg.Register(ctx, &mockProvider{name: "cohere"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "already registered")
	})
}

func TestRegistry_Get(t *testing.T) {
	reg := registry.NewRegistry()
	ctx := context.Background()
	require.NoError(t, reg.Register(ctx, &mockProvider{name: "openai"}))

	t.Run("should get registered provider", func(t *testing.T) {
		retrieved, err := reg.Get(ctx, "openai")
		require.NoError(t, err)
		require.Equal(t, "openai", retrieved.Name())
	})

	tests := []struct {
		name     string
		provider string
	}{
		{name: "empty name", provider: ""},
		{name: "unknown name", provider: "notreal"},
		{name: "different case", provider: "OpenAI"},
		{name: "surrounding whitespace", provider: " openai"},
	}

	for _, tt := range tests {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			provider, err := reg.Get(ctx, tt.provider)
			require.Nil(t, provider)
			require.ErrorIs(t, err, domain.ErrUnsupportedProvider)
		})
	}
}

func TestRegistry_List(t *testing.T) {
	t.Run("should return empty list when no providers registered", func(t *testing.T) {
		providers, err := registry.NewRegistry().List(context.Background())
		require.NoError(t, err)
		require.NotNil(t, providers)
		require.Empty(t, providers)
	})

	t.Run("should return names in lexical order", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		for _, name := range []string{"openrouter", "anthropic", "google"} {
			require.NoError(t, reg.Register(ctx, &mockProvider{name: name}))
		}

		providers, err := reg.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"anthropic", "google", "openrouter"}, providers)
	})
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := registry.NewRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = reg.Register(ctx, &mockProvider{name: string(rune('a' + idx))})
			_, _ = reg.Get(ctx, "a")
		}(i)
	}
	wg.Wait()

	providers, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 10)
}
