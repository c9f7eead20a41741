package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/omnichat/internal/catalog"
	"github.com/davidbz/omnichat/internal/domain"
)

func TestNew(t *testing.T) {
	c, err := catalog.New(map[string]string{"groq": "https://proxy.example/groq"})
	require.NoError(t, err)

	providers := c.List()
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
		require.NotEmpty(t, p.DisplayName)
		require.NotEmpty(t, p.Models)
		require.True(t, p.IsActive)
	}
	require.Equal(t, []string{"openai", "anthropic", "google", "mistral", "cohere", "groq", "openrouter"}, names)

	groq, err := c.Get("groq")
	require.NoError(t, err)
	require.Equal(t, "https://proxy.example/groq", groq.BaseURL)
	require.Equal(t, catalog.DialectOpenAI, groq.Dialect)

	anthropic, err := c.Get("anthropic")
	require.NoError(t, err)
	require.Equal(t, catalog.Model{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet"}, anthropic.Models[0])

	_, err = c.Get("notreal")
	require.ErrorIs(t, err, catalog.ErrProviderNotFound)
}

func TestParse(t *testing.T) {
	t.Run("should reject duplicate names", func(t *testing.T) {
		_, err := catalog.Parse([]byte("providers:\n  - name: a\n  - name: a\n"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate")
	})

	t.Run("should reject unnamed entries", func(t *testing.T) {
		_, err := catalog.Parse([]byte("providers:\n  - display_name: X\n"))
		require.Error(t, err)
	})

	t.Run("should reject invalid YAML", func(t *testing.T) {
		_, err := catalog.Parse([]byte("providers: [unclosed"))
		require.Error(t, err)
	})

	t.Run("should default models to empty list", func(t *testing.T) {
		c, err := catalog.Parse([]byte("providers:\n  - name: a\n"))
		require.NoError(t, err)
		entry, err := c.Get("a")
		require.NoError(t, err)
		require.NotNil(t, entry.Models)
	})
}

func TestDiscovery_Models(t *testing.T) {
	t.Run("should list models with the caller credential", func(t *testing.T) {
		var gotAuth, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"llama-3.3-70b","object":"model","created":1,"owned_by":"meta"},{"id":"gemma2-9b-it","object":"model","created":1,"owned_by":"google"}]}`))
		}))
		t.Cleanup(server.Close)

		c, err := catalog.New(map[string]string{"groq": server.URL + "/openai/v1"})
		require.NoError(t, err)

		models, err := catalog.NewDiscovery(c, server.Client()).Models(context.Background(), "groq", "gsk-test")

		require.NoError(t, err)
		require.Equal(t, []catalog.Model{
			{ID: "llama-3.3-70b", Name: "llama-3.3-70b"},
			{ID: "gemma2-9b-it", Name: "gemma2-9b-it"},
		}, models)
		require.Equal(t, "Bearer gsk-test", gotAuth)
		require.Equal(t, "/openai/v1/models", gotPath)
	})

	t.Run("should map API errors to UpstreamError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
		}))
		t.Cleanup(server.Close)

		c, err := catalog.New(map[string]string{"openai": server.URL})
		require.NoError(t, err)

		_, err = catalog.NewDiscovery(c, server.Client()).Models(context.Background(), "openai", "bad")

		var upstreamErr *domain.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		require.Equal(t, "openai", upstreamErr.Provider)
		require.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
		require.JSONEq(t,
			`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			upstreamErr.Body)
	})

	t.Run("should refuse non chat-completions dialects", func(t *testing.T) {
		c, err := catalog.New(nil)
		require.NoError(t, err)

		_, err = catalog.NewDiscovery(c, http.DefaultClient).Models(context.Background(), "anthropic", "key")
		require.ErrorIs(t, err, catalog.ErrDiscoveryUnsupported)
	})

	t.Run("should report unknown provider", func(t *testing.T) {
		c, err := catalog.New(nil)
		require.NoError(t, err)

		_, err = catalog.NewDiscovery(c, http.DefaultClient).Models(context.Background(), "notreal", "key")
		require.ErrorIs(t, err, catalog.ErrProviderNotFound)
	})
}
