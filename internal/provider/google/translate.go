package google

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

const (
	roleUser  = "user"
	roleModel = "model"

	// DefaultTemperature is sent when the caller leaves temperature unset.
	DefaultTemperature = 0.7
)

type generateRequest struct {
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// toGenerateRequest maps user to "user" and every other non-system role to
// "model". The last system message becomes systemInstruction.
func toGenerateRequest(req *domain.CompletionRequest) generateRequest {
	var system string
	contents := make([]content, 0, len(req.Messages))

	for _, msg := range req.Messages {
		if msg.Role == domain.RoleSystem {
			system = msg.Content
			continue
		}

		role := roleModel
		if msg.Role == domain.RoleUser {
			role = roleUser
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: msg.Content}}})
	}

	out := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			MaxOutputTokens: req.MaxTokensOr(domain.DefaultMaxTokens),
			Temperature:     req.TemperatureOr(DefaultTemperature),
		},
		SystemInstruction: nil,
	}
	if system != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	return out
}

// parseGenerateResponse extracts candidates[0].content.parts[0].text and usageMetadata.
func parseGenerateResponse(body []byte) (string, map[string]any, error) {
	if !gjson.ValidBytes(body) {
		return "", nil, fmt.Errorf("%w: invalid JSON", domain.ErrMalformedResponse)
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", nil, fmt.Errorf("%w: missing candidates[0].content.parts[0].text", domain.ErrMalformedResponse)
	}

	return text.String(), upstream.UsageMap(gjson.GetBytes(body, "usageMetadata")), nil
}

// parseStreamLine emits the text of every part of the first candidate.
func parseStreamLine(line []byte) ([]string, bool, error) {
	payload, ok := upstream.SSEData(line)
	if !ok {
		return nil, false, nil
	}

	if !gjson.ValidBytes(payload) {
		return nil, false, upstream.ErrMalformedEvent
	}

	var fragments []string
	for _, text := range gjson.GetBytes(payload, "candidates.0.content.parts.#.text").Array() {
		if s := text.String(); s != "" {
			fragments = append(fragments, s)
		}
	}

	return fragments, false, nil
}
