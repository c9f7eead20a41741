package domain

import "time"

const (
	maxTitleRunes = 50

	// HistoryLimit caps how many chats a history listing returns.
	HistoryLimit = 50
)

// Chat is the persisted conversation header.
type Chat struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	TokensUsed   int       `json:"tokens_used"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Turn is one user prompt and the assistant reply it produced.
type Turn struct {
	User       Message
	Assistant  Message
	TokensUsed int
}

// StoredMessage is a message as kept by the conversation store.
type StoredMessage struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatTitle derives a chat title from the opening message.
func ChatTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= maxTitleRunes {
		return content
	}
	return string(runes[:maxTitleRunes]) + "..."
}
