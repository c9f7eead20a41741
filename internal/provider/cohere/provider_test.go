package cohere_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/cohere"
	"github.com/davidbz/omnichat/internal/provider/providertest"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

func newProvider(t *testing.T, baseURL string) *cohere.Provider {
	t.Helper()

	provider, err := cohere.NewProvider(baseURL, upstream.NewClient(upstream.Config{Timeout: 5}))
	require.NoError(t, err)

	return provider
}

func TestProvider_Complete(t *testing.T) {
	t.Run("should keep system inline and read first content block", func(t *testing.T) {
		server, requests := providertest.NewServer(t, http.StatusOK,
			`{"id":"x","message":{"role":"assistant","content":[{"type":"text","text":"Salut"}]},"usage":{"tokens":{"input_tokens":3,"output_tokens":1}}}`)
		provider := newProvider(t, server.URL)

		resp, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "command-r-plus",
			Messages:   providertest.Conversation(),
			Credential: "co-key",
		})

		require.NoError(t, err)
		require.Equal(t, "Salut", resp.Content)
		require.Equal(t, "cohere", resp.Provider)
		require.Equal(t, map[string]any{"tokens": map[string]any{"input_tokens": 3.0, "output_tokens": 1.0}}, resp.Usage)

		captured := <-requests
		require.Equal(t, "/chat", captured.Path)
		require.Equal(t, "Bearer co-key", captured.Headers.Get("Authorization"))
		require.Equal(t, false, captured.Body["stream"])

		messages, ok := captured.Body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 4)
		require.Equal(t, "system", messages[0].(map[string]any)["role"])
	})

	t.Run("should default missing content to empty string", func(t *testing.T) {
		server, _ := providertest.NewServer(t, http.StatusOK, `{"message":{"content":[]}}`)
		provider := newProvider(t, server.URL)

		resp, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "command-r",
			Messages:   providertest.Conversation(),
			Credential: "co-key",
		})

		require.NoError(t, err)
		require.Empty(t, resp.Content)
		require.Equal(t, map[string]any{}, resp.Usage)
	})

	t.Run("should reject non-JSON reply", func(t *testing.T) {
		server, _ := providertest.NewServer(t, http.StatusOK, `upstream proxy page`)
		provider := newProvider(t, server.URL)

		_, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "command-r",
			Messages:   providertest.Conversation(),
			Credential: "co-key",
		})

		require.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("should surface 401 as UpstreamError", func(t *testing.T) {
		server, _ := providertest.NewServer(t, http.StatusUnauthorized, `{"message":"invalid api token"}`)
		provider := newProvider(t, server.URL)

		_, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "command-r",
			Messages:   providertest.Conversation(),
			Credential: "bad",
		})

		var upstreamErr *domain.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		require.Equal(t, "cohere API error: 401 - {\"message\":\"invalid api token\"}", upstreamErr.Error())
	})
}

func TestProvider_Stream(t *testing.T) {
	t.Run("should emit content-delta events from NDJSON", func(t *testing.T) {
		stream := strings.Join([]string{
			`{"type":"message-start","id":"x","delta":{"message":{"role":"assistant"}}}`,
			`{"type":"content-start","index":0,"delta":{"message":{"content":{"type":"text","text":""}}}}`,
			`{"type":"content-delta","index":0,"delta":{"message":{"content":{"text":"Bon"}}}}`,
			`data: {"type":"content-delta","index":0,"delta":{"message":{"content":{"text":"jour"}}}}`,
			`{"type":"content-delta",`,
			`{"type":"content-delta","index":0,"delta":{"message":{"content":{"text":"!"}}}}`,
			`{"type":"content-end","index":0}`,
			`{"type":"message-end","delta":{"finish_reason":"COMPLETE"}}`,
		}, "\n")

		server, requests := providertest.NewServer(t, http.StatusOK, stream)
		provider := newProvider(t, server.URL)

		chunks, err := provider.Stream(context.Background(), &domain.CompletionRequest{
			Model:      "command-r",
			Messages:   providertest.Conversation(),
			Stream:     true,
			Credential: "co-key",
		})
		require.NoError(t, err)

		require.Equal(t, []string{"Bon", "jour", "!"}, providertest.Drain(t, chunks))

		captured := <-requests
		require.Equal(t, true, captured.Body["stream"])
	})
}
