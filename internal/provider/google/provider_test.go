package google_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/google"
	"github.com/davidbz/omnichat/internal/provider/providertest"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

func newProvider(t *testing.T, baseURL string) *google.Provider {
	t.Helper()

	provider, err := google.NewProvider(baseURL, upstream.NewClient(upstream.Config{Timeout: 5}))
	require.NoError(t, err)

	return provider
}

func TestNewProvider(t *testing.T) {
	provider, err := google.NewProvider("", nil)
	require.Error(t, err)
	require.Nil(t, provider)

	require.Equal(t, "google", newProvider(t, "").Name())
}

func TestProvider_Complete(t *testing.T) {
	t.Run("should build contents and pass key in query", func(t *testing.T) {
		server, requests := providertest.NewServer(t, http.StatusOK,
			`{"candidates":[{"content":{"parts":[{"text":"Hola"}],"role":"model"}}],"usageMetadata":{"promptTokenCount":4,"totalTokenCount":6}}`)
		provider := newProvider(t, server.URL)

		resp, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "gemini-1.5-flash",
			Messages:   providertest.Conversation(),
			Credential: "AIza-key",
		})

		require.NoError(t, err)
		require.Equal(t, "Hola", resp.Content)
		require.Equal(t, "google", resp.Provider)
		require.Equal(t, map[string]any{"promptTokenCount": 4.0, "totalTokenCount": 6.0}, resp.Usage)

		captured := <-requests
		require.Equal(t, "/models/gemini-1.5-flash:generateContent", captured.Path)
		require.Equal(t, []string{"AIza-key"}, captured.Query["key"])
		require.NotContains(t, captured.Query, "alt")
		require.Empty(t, captured.Headers.Get("Authorization"))

		config, ok := captured.Body["generationConfig"].(map[string]any)
		require.True(t, ok)
		require.InDelta(t, 4096.0, config["maxOutputTokens"], 0.0001)
		require.InDelta(t, 0.7, config["temperature"], 0.0001)

		system, ok := captured.Body["systemInstruction"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, []any{map[string]any{"text": "Be terse."}}, system["parts"])

		contents, ok := captured.Body["contents"].([]any)
		require.True(t, ok)
		require.Len(t, contents, 3)
		roles := make([]string, 0, len(contents))
		for _, c := range contents {
			roles = append(roles, c.(map[string]any)["role"].(string))
		}
		require.Equal(t, []string{"user", "model", "user"}, roles)

		first := contents[0].(map[string]any)["parts"].([]any)[0].(map[string]any)
		require.Equal(t, providertest.Conversation()[1].Content, first["text"])
	})

	t.Run("should honour explicit options and omit empty system", func(t *testing.T) {
		server, requests := providertest.NewServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
		provider := newProvider(t, server.URL)

		maxTokens := 64
		temperature := 0.0
		resp, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "gemini-pro",
			Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
			GenerationOptions: domain.GenerationOptions{
				MaxTokens:   &maxTokens,
				Temperature: &temperature,
			},
			Credential: "AIza",
		})
		require.NoError(t, err)
		require.Equal(t, map[string]any{}, resp.Usage)

		captured := <-requests
		require.NotContains(t, captured.Body, "systemInstruction")
		config := captured.Body["generationConfig"].(map[string]any)
		require.InDelta(t, 64.0, config["maxOutputTokens"], 0.0001)
		require.InDelta(t, 0.0, config["temperature"], 0.0001)
	})

	t.Run("should reject reply without candidates", func(t *testing.T) {
		server, _ := providertest.NewServer(t, http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
		provider := newProvider(t, server.URL)

		_, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "gemini-pro",
			Messages:   providertest.Conversation(),
			Credential: "AIza",
		})

		require.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("should keep key out of transport errors", func(t *testing.T) {
		server, _ := providertest.NewServer(t, http.StatusOK, `{}`)
		server.Close()
		provider := newProvider(t, server.URL)

		_, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "gemini-pro",
			Messages:   providertest.Conversation(),
			Credential: "super-secret-key",
		})

		var transportErr *domain.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.NotContains(t, err.Error(), "super-secret-key")
	})

	t.Run("should surface 403 as UpstreamError", func(t *testing.T) {
		server, _ := providertest.NewServer(t, http.StatusForbidden, `{"error":{"status":"PERMISSION_DENIED"}}`)
		provider := newProvider(t, server.URL)

		_, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:      "gemini-pro",
			Messages:   providertest.Conversation(),
			Credential: "AIza",
		})

		var upstreamErr *domain.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		require.Equal(t, "google", upstreamErr.Provider)
		require.Equal(t, http.StatusForbidden, upstreamErr.StatusCode)
	})
}

func TestProvider_Stream(t *testing.T) {
	t.Run("should request SSE and emit every part", func(t *testing.T) {
		stream := strings.Join([]string{
			`data: {"candidates":[{"content":{"parts":[{"text":"Uno"}],"role":"model"}}]}`,
			``,
			`data: {"candidates":[{"content":{"parts":[{"text":" dos"},{"text":" tres"}],"role":"model"}}]}`,
			``,
			`data: {broken`,
			``,
			`data: {"candidates":[{"content":{"parts":[{"text":""}]},"finishReason":"STOP"}],"usageMetadata":{"totalTokenCount":9}}`,
			``,
		}, "\n")

		server, requests := providertest.NewServer(t, http.StatusOK, stream)
		provider := newProvider(t, server.URL)

		chunks, err := provider.Stream(context.Background(), &domain.CompletionRequest{
			Model:      "gemini-1.5-flash",
			Messages:   providertest.Conversation(),
			Stream:     true,
			Credential: "AIza",
		})
		require.NoError(t, err)

		require.Equal(t, []string{"Uno", " dos", " tres"}, providertest.Drain(t, chunks))

		captured := <-requests
		require.Equal(t, "/models/gemini-1.5-flash:streamGenerateContent", captured.Path)
		require.Equal(t, []string{"sse"}, captured.Query["alt"])
		require.Equal(t, []string{"AIza"}, captured.Query["key"])
	})
}
