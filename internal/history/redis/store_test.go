package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/omnichat/internal/domain"
	historyredis "github.com/davidbz/omnichat/internal/history/redis"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newStore(t *testing.T) (*historyredis.Store, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	server := miniredis.RunT(t)
	client := historyredis.NewClient(&historyredis.Config{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	return historyredis.NewStore(client, "test:", historyredis.WithClock(clock.Now)), server, clock
}

func newChat(userID string) *domain.Chat {
	return &domain.Chat{
		UserID:   userID,
		Title:    domain.ChatTitle("How do I reverse a slice?"),
		Provider: "openai",
		Model:    "gpt-4o",
	}
}

func TestStore_CreateAndGetChat(t *testing.T) {
	store, server, clock := newStore(t)
	ctx := context.Background()

	chatID, err := store.CreateChat(ctx, newChat("u1"))
	require.NoError(t, err)
	require.NotEmpty(t, chatID)
	require.True(t, server.Exists("test:chat:"+chatID))

	chat, err := store.GetChat(ctx, "u1", chatID)
	require.NoError(t, err)
	require.Equal(t, chatID, chat.ID)
	require.Equal(t, "How do I reverse a slice?", chat.Title)
	require.Equal(t, "openai", chat.Provider)
	require.Equal(t, 0, chat.MessageCount)
	require.True(t, clock.now.Equal(chat.CreatedAt))

	t.Run("should hide chats of other users", func(t *testing.T) {
		_, err := store.GetChat(ctx, "u2", chatID)
		require.ErrorIs(t, err, domain.ErrChatNotFound)
	})

	t.Run("should report missing chat", func(t *testing.T) {
		_, err := store.GetChat(ctx, "u1", "missing")
		require.ErrorIs(t, err, domain.ErrChatNotFound)
	})

	t.Run("should keep a caller-provided ID", func(t *testing.T) {
		chat := newChat("u1")
		chat.ID = "fixed-id"
		id, err := store.CreateChat(ctx, chat)
		require.NoError(t, err)
		require.Equal(t, "fixed-id", id)
	})
}

func TestStore_AppendTurn(t *testing.T) {
	store, _, clock := newStore(t)
	ctx := context.Background()

	chatID, err := store.CreateChat(ctx, newChat("u1"))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	messageID, err := store.AppendTurn(ctx, chatID, domain.Turn{
		User:       domain.Message{Role: domain.RoleUser, Content: "question"},
		Assistant:  domain.Message{Role: domain.RoleAssistant, Content: "answer"},
		TokensUsed: 42,
	})
	require.NoError(t, err)
	require.NotEmpty(t, messageID)

	_, err = store.AppendTurn(ctx, chatID, domain.Turn{
		User:      domain.Message{Role: domain.RoleUser, Content: "again"},
		Assistant: domain.Message{Role: domain.RoleAssistant, Content: "sure"},
	})
	require.NoError(t, err)

	chat, err := store.GetChat(ctx, "u1", chatID)
	require.NoError(t, err)
	require.Equal(t, 4, chat.MessageCount)
	require.Equal(t, 42, chat.TokensUsed)
	require.True(t, clock.now.Equal(chat.UpdatedAt))

	messages, err := store.Messages(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	require.Equal(t, "question", messages[0].Content)
	require.Equal(t, domain.RoleUser, messages[0].Role)
	require.Equal(t, messageID, messages[1].ID)
	require.Equal(t, 42, messages[1].TokensUsed)
	require.Equal(t, "sure", messages[3].Content)

	t.Run("should reject unknown chat", func(t *testing.T) {
		_, err := store.AppendTurn(ctx, "missing", domain.Turn{})
		require.ErrorIs(t, err, domain.ErrChatNotFound)
	})
}

func TestStore_ListChats(t *testing.T) {
	store, _, clock := newStore(t)
	ctx := context.Background()

	first, err := store.CreateChat(ctx, newChat("u1"))
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := store.CreateChat(ctx, newChat("u1"))
	require.NoError(t, err)
	_, err = store.CreateChat(ctx, newChat("u2"))
	require.NoError(t, err)

	chats, err := store.ListChats(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.Equal(t, second, chats[0].ID)
	require.Equal(t, first, chats[1].ID)

	clock.Advance(time.Second)
	_, err = store.AppendTurn(ctx, first, domain.Turn{
		User:      domain.Message{Role: domain.RoleUser, Content: "bump"},
		Assistant: domain.Message{Role: domain.RoleAssistant, Content: "ok"},
	})
	require.NoError(t, err)

	chats, err = store.ListChats(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, first, chats[0].ID)
}

func TestStore_DeleteChat(t *testing.T) {
	store, server, _ := newStore(t)
	ctx := context.Background()

	chatID, err := store.CreateChat(ctx, newChat("u1"))
	require.NoError(t, err)
	_, err = store.AppendTurn(ctx, chatID, domain.Turn{
		User:      domain.Message{Role: domain.RoleUser, Content: "q"},
		Assistant: domain.Message{Role: domain.RoleAssistant, Content: "a"},
	})
	require.NoError(t, err)

	require.ErrorIs(t, store.DeleteChat(ctx, "u2", chatID), domain.ErrChatNotFound)
	require.NoError(t, store.DeleteChat(ctx, "u1", chatID))

	require.False(t, server.Exists("test:chat:"+chatID))
	require.False(t, server.Exists("test:chat:"+chatID+":messages"))

	chats, err := store.ListChats(ctx, "u1", 10)
	require.NoError(t, err)
	require.Empty(t, chats)
}
