package cohere

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

const contentDelta = "content-delta"

var eventPrefix = []byte("event:")

// System messages stay inline; v2 accepts the system role in messages.
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

// parseChatResponse reads message.content[0].text, defaulting to "".
func parseChatResponse(body []byte) (string, map[string]any, error) {
	if !gjson.ValidBytes(body) {
		return "", nil, fmt.Errorf("%w: invalid JSON", domain.ErrMalformedResponse)
	}

	text := gjson.GetBytes(body, "message.content.0.text").String()

	return text, upstream.UsageMap(gjson.GetBytes(body, "usage")), nil
}

// parseStreamLine handles one NDJSON event. A leading "data: " is tolerated.
func parseStreamLine(line []byte) ([]string, bool, error) {
	payload := line
	if data, ok := upstream.SSEData(line); ok {
		payload = data
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.HasPrefix(payload, eventPrefix) || payload[0] == ':' {
		return nil, false, nil
	}

	if !gjson.ValidBytes(payload) {
		return nil, false, upstream.ErrMalformedEvent
	}

	event := gjson.ParseBytes(payload)
	if event.Get("type").String() != contentDelta {
		return nil, false, nil
	}

	text := event.Get("delta.message.content.text").String()
	if text == "" {
		return nil, false, nil
	}

	return []string{text}, false, nil
}
