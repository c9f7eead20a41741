package google //nolint:testpackage // Exercises unexported translation helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

func TestToGenerateRequest_Roles(t *testing.T) {
	req := toGenerateRequest(&domain.CompletionRequest{
		Model: "gemini-pro",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "old"},
			{Role: domain.RoleUser, Content: "q"},
			{Role: domain.RoleAssistant, Content: "a"},
			{Role: "tool", Content: "t"},
			{Role: domain.RoleSystem, Content: "new"},
		},
	})

	require.Equal(t, []content{
		{Role: "user", Parts: []part{{Text: "q"}}},
		{Role: "model", Parts: []part{{Text: "a"}}},
		{Role: "model", Parts: []part{{Text: "t"}}},
	}, req.Contents)
	require.Equal(t, &content{Parts: []part{{Text: "new"}}}, req.SystemInstruction)
}

func TestParseStreamLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		fragments []string
		malformed bool
	}{
		{name: "single part", line: `data: {"candidates":[{"content":{"parts":[{"text":"a"}]}}]}`, fragments: []string{"a"}},
		{name: "many parts", line: `data: {"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`, fragments: []string{"a", "b"}},
		{name: "no candidates", line: `data: {"usageMetadata":{"totalTokenCount":1}}`},
		{name: "non-data line", line: `event: x`},
		{name: "broken json", line: `data: [`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments, done, err := parseStreamLine([]byte(tt.line))
			if tt.malformed {
				require.ErrorIs(t, err, upstream.ErrMalformedEvent)
				return
			}
			require.NoError(t, err)
			require.False(t, done)
			require.Equal(t, tt.fragments, fragments)
		})
	}
}
