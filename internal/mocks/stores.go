package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/omnichat/internal/domain"
)

// MockCredentialStore is a mock of domain.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

// NewMockCredentialStore creates a credential store mock. Expectations are
// asserted when the test ends.
func NewMockCredentialStore(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Credential implements domain.CredentialStore.
func (m *MockCredentialStore) Credential(ctx context.Context, userID, providerName string) (string, error) {
	args := m.Called(ctx, userID, providerName)
	return args.String(0), args.Error(1)
}

// MockConversationStore is a mock of domain.ConversationStore.
type MockConversationStore struct {
	mock.Mock
}

// NewMockConversationStore creates a conversation store mock. Expectations
// are asserted when the test ends.
func NewMockConversationStore(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockConversationStore {
	m := &MockConversationStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// CreateChat implements domain.ConversationStore.
func (m *MockConversationStore) CreateChat(ctx context.Context, chat *domain.Chat) (string, error) {
	args := m.Called(ctx, chat)
	return args.String(0), args.Error(1)
}

// GetChat implements domain.ConversationStore.
func (m *MockConversationStore) GetChat(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	args := m.Called(ctx, userID, chatID)
	chat, _ := args.Get(0).(*domain.Chat)
	return chat, args.Error(1)
}

// AppendTurn implements domain.ConversationStore.
func (m *MockConversationStore) AppendTurn(ctx context.Context, chatID string, turn domain.Turn) (string, error) {
	args := m.Called(ctx, chatID, turn)
	return args.String(0), args.Error(1)
}

// Messages implements domain.ConversationStore.
func (m *MockConversationStore) Messages(ctx context.Context, chatID string) ([]domain.StoredMessage, error) {
	args := m.Called(ctx, chatID)
	messages, _ := args.Get(0).([]domain.StoredMessage)
	return messages, args.Error(1)
}

// ListChats implements domain.ConversationStore.
func (m *MockConversationStore) ListChats(ctx context.Context, userID string, limit int) ([]domain.Chat, error) {
	args := m.Called(ctx, userID, limit)
	chats, _ := args.Get(0).([]domain.Chat)
	return chats, args.Error(1)
}

// DeleteChat implements domain.ConversationStore.
func (m *MockConversationStore) DeleteChat(ctx context.Context, userID, chatID string) error {
	args := m.Called(ctx, userID, chatID)
	return args.Error(0)
}
