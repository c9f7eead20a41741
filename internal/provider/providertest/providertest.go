// Package providertest holds stub upstreams shared by provider adapter tests.
package providertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/omnichat/internal/domain"
)

// Captured is the request as the stub upstream saw it.
type Captured struct {
	Path    string
	Query   map[string][]string
	Headers http.Header
	Body    map[string]any
}

// NewServer starts a stub upstream that answers every call with status and
// response, reporting each request on the returned channel.
func NewServer(t *testing.T, status int, response string) (*httptest.Server, <-chan Captured) {
	t.Helper()

	requests := make(chan Captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		captured := Captured{
			Path:    r.URL.Path,
			Query:   r.URL.Query(),
			Headers: r.Header.Clone(),
			Body:    nil,
		}
		_ = json.Unmarshal(raw, &captured.Body)

		select {
		case requests <- captured:
		default:
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, requests
}

// Drain consumes a stream that must end cleanly and returns its fragments.
func Drain(t *testing.T, chunks <-chan domain.StreamChunk) []string {
	t.Helper()

	var fragments []string
	done := false
	for chunk := range chunks {
		require.NoError(t, chunk.Error)
		require.False(t, done, "no chunk may follow Done")
		if chunk.Done {
			done = true
			continue
		}
		fragments = append(fragments, chunk.Delta)
	}
	require.True(t, done, "stream must end with Done")

	return fragments
}

// Conversation is a message list with every role and awkward content.
func Conversation() []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: "Be terse."},
		{Role: domain.RoleUser, Content: "¿Qué tal? 👋"},
		{Role: domain.RoleAssistant, Content: "Bien.\n\n```go\nfmt.Println(\"<ok>\")\n```"},
		{Role: domain.RoleUser, Content: "Line one\nline \"two\" & <three>"},
	}
}
