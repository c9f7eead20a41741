package domain

// Message roles accepted by the gateway.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxTokens is applied where the upstream requires an explicit cap.
const DefaultMaxTokens = 4096

// CompletionRequest represents a unified LLM request.
type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	GenerationOptions
	Stream bool `json:"stream,omitempty"`

	// Credential is the already-decrypted provider secret. Never serialized.
	Credential string `json:"-"`
}

// GenerationOptions holds optional sampling controls. Nil means provider default.
type GenerationOptions struct {
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// MaxTokensOr returns the requested token cap or fallback when unset.
func (o GenerationOptions) MaxTokensOr(fallback int) int {
	if o.MaxTokens == nil {
		return fallback
	}
	return *o.MaxTokens
}

// TemperatureOr returns the requested temperature or fallback when unset.
func (o GenerationOptions) TemperatureOr(fallback float64) float64 {
	if o.Temperature == nil {
		return fallback
	}
	return *o.Temperature
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// CompletionResponse represents a unified LLM response.
type CompletionResponse struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Content  string `json:"content"`
	// Usage is passed through from the provider without reinterpretation.
	Usage map[string]any `json:"usage"`
}

// TotalTokens reports usage["total_tokens"] when the provider sent it.
func (r *CompletionResponse) TotalTokens() int {
	if r == nil || r.Usage == nil {
		return 0
	}
	if v, ok := r.Usage["total_tokens"].(float64); ok {
		return int(v)
	}
	return 0
}

// StreamChunk represents a single streaming response chunk.
type StreamChunk struct {
	Delta string `json:"delta"`
	Done  bool   `json:"done"`
	Error error  `json:"-"`
}

// Result holds exactly one of a buffered completion or a chunk stream.
type Result struct {
	Completion *CompletionResponse
	Chunks     <-chan StreamChunk
}

// Streaming reports whether the result carries a chunk stream.
func (r *Result) Streaming() bool {
	return r.Chunks != nil
}
