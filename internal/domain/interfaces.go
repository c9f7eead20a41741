package domain

import "context"

// Provider represents any LLM provider.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Stream sends a completion request and returns a stream of chunks.
	// Failures before the first chunk are returned as the error; later
	// failures arrive as a final chunk with Error set.
	Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamChunk, error)

	// Name returns the provider identifier.
	Name() string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

// CredentialStore supplies decrypted provider secrets.
type CredentialStore interface {
	// Credential returns the secret for the user and provider.
	Credential(ctx context.Context, userID, providerName string) (string, error)
}

// ConversationStore persists chat turns on behalf of the caller.
type ConversationStore interface {
	// CreateChat registers a new chat and returns its identifier.
	CreateChat(ctx context.Context, chat *Chat) (string, error)

	// GetChat loads chat metadata. Returns ErrChatNotFound when missing
	// or owned by another user.
	GetChat(ctx context.Context, userID, chatID string) (*Chat, error)

	// AppendTurn stores a user/assistant pair and bumps the chat counters.
	AppendTurn(ctx context.Context, chatID string, turn Turn) (string, error)

	// Messages returns the stored messages of a chat in order.
	Messages(ctx context.Context, chatID string) ([]StoredMessage, error)

	// ListChats returns the user's chats, most recently updated first.
	ListChats(ctx context.Context, userID string, limit int) ([]Chat, error)

	// DeleteChat removes a chat and its messages. Returns ErrChatNotFound
	// when missing or owned by another user.
	DeleteChat(ctx context.Context, userID, chatID string) error
}
