package openai

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

var doneSentinel = []byte("[DONE]")

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toChatRequest(req *domain.CompletionRequest, stream bool) chatRequest {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	return chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Stream:      stream,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// parseCompletion extracts choices[0].message.content and the usage object.
func parseCompletion(body []byte) (string, map[string]any, error) {
	if !gjson.ValidBytes(body) {
		return "", nil, fmt.Errorf("%w: invalid JSON", domain.ErrMalformedResponse)
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", nil, fmt.Errorf("%w: missing choices[0].message.content", domain.ErrMalformedResponse)
	}

	return content.String(), upstream.UsageMap(gjson.GetBytes(body, "usage")), nil
}

// parseStreamLine handles one line of a chat-completions SSE stream.
func parseStreamLine(line []byte) ([]string, bool, error) {
	payload, ok := upstream.SSEData(line)
	if !ok {
		return nil, false, nil
	}

	if bytes.Equal(bytes.TrimSpace(payload), doneSentinel) {
		return nil, true, nil
	}

	if !gjson.ValidBytes(payload) {
		return nil, false, upstream.ErrMalformedEvent
	}

	delta := gjson.GetBytes(payload, "choices.0.delta.content").String()
	if delta == "" {
		return nil, false, nil
	}

	return []string{delta}, false, nil
}
