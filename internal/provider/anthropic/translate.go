package anthropic

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

const contentBlockDelta = "content_block_delta"

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// toMessagesRequest lifts system messages into the top-level system field.
// Only the last system message is kept.
func toMessagesRequest(req *domain.CompletionRequest, stream bool) messagesRequest {
	var system string
	messages := make([]message, 0, len(req.Messages))

	for _, msg := range req.Messages {
		if msg.Role == domain.RoleSystem {
			system = msg.Content
			continue
		}
		messages = append(messages, message{Role: msg.Role, Content: msg.Content})
	}

	return messagesRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokensOr(domain.DefaultMaxTokens),
		System:      system,
		Temperature: req.Temperature,
		Stream:      stream,
	}
}

// parseMessage extracts content[0].text and the usage object.
func parseMessage(body []byte) (string, map[string]any, error) {
	if !gjson.ValidBytes(body) {
		return "", nil, fmt.Errorf("%w: invalid JSON", domain.ErrMalformedResponse)
	}

	text := gjson.GetBytes(body, "content.0.text")
	if !text.Exists() {
		return "", nil, fmt.Errorf("%w: missing content[0].text", domain.ErrMalformedResponse)
	}

	return text.String(), upstream.UsageMap(gjson.GetBytes(body, "usage")), nil
}

// parseStreamLine emits delta.text of content_block_delta events only.
func parseStreamLine(line []byte) ([]string, bool, error) {
	payload, ok := upstream.SSEData(line)
	if !ok {
		return nil, false, nil
	}

	if !gjson.ValidBytes(payload) {
		return nil, false, upstream.ErrMalformedEvent
	}

	event := gjson.ParseBytes(payload)
	if event.Get("type").String() != contentBlockDelta {
		return nil, false, nil
	}

	text := event.Get("delta.text").String()
	if text == "" {
		return nil, false, nil
	}

	return []string{text}, false, nil
}
