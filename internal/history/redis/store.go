// Package redis implements the conversation store on Redis.
//
// Layout per chat: a hash with the chat header, a list of JSON messages,
// and membership in a per-user sorted set scored by last update.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
)

const (
	fieldID           = "id"
	fieldUserID       = "user_id"
	fieldTitle        = "title"
	fieldProvider     = "provider"
	fieldModel        = "model"
	fieldMessageCount = "message_count"
	fieldTokensUsed   = "tokens_used"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"

	messagesPerTurn = 2
)

// Store implements domain.ConversationStore.
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewClient opens a Redis client from config.
func NewClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewStore creates a conversation store over client.
func NewStore(client *redis.Client, prefix string, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateChat stores a new chat header. A missing ID is generated.
func (s *Store) CreateChat(ctx context.Context, chat *domain.Chat) (string, error) {
	if chat == nil {
		return "", errors.New("chat cannot be nil")
	}

	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}

	now := s.now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.chatKey(chat.ID), chatFields(chat))
		pipe.ZAdd(ctx, s.userKey(chat.UserID), redis.Z{Score: score(now), Member: chat.ID})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}

	observability.FromContext(ctx).Debug("chat created",
		observability.String("chat_id", chat.ID),
	)

	return chat.ID, nil
}

// GetChat loads a chat owned by userID.
func (s *Store) GetChat(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	fields, err := s.client.HGetAll(ctx, s.chatKey(chatID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if len(fields) == 0 || fields[fieldUserID] != userID {
		return nil, domain.ErrChatNotFound
	}

	return parseChat(fields)
}

// AppendTurn stores the user and assistant messages and bumps the chat
// counters atomically. It returns the assistant message ID.
func (s *Store) AppendTurn(ctx context.Context, chatID string, turn domain.Turn) (string, error) {
	userID, err := s.client.HGet(ctx, s.chatKey(chatID), fieldUserID).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrChatNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load chat owner: %w", err)
	}

	now := s.now().UTC()
	userMsg := domain.StoredMessage{
		ID:         uuid.NewString(),
		Role:       turn.User.Role,
		Content:    turn.User.Content,
		TokensUsed: 0,
		CreatedAt:  now,
	}
	assistantMsg := domain.StoredMessage{
		ID:         uuid.NewString(),
		Role:       turn.Assistant.Role,
		Content:    turn.Assistant.Content,
		TokensUsed: turn.TokensUsed,
		CreatedAt:  now,
	}

	encoded := make([]any, 0, messagesPerTurn)
	for _, msg := range []domain.StoredMessage{userMsg, assistantMsg} {
		raw, err := json.Marshal(msg)
		if err != nil {
			return "", fmt.Errorf("failed to encode message: %w", err)
		}
		encoded = append(encoded, raw)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.messagesKey(chatID), encoded...)
		pipe.HIncrBy(ctx, s.chatKey(chatID), fieldMessageCount, messagesPerTurn)
		pipe.HIncrBy(ctx, s.chatKey(chatID), fieldTokensUsed, int64(turn.TokensUsed))
		pipe.HSet(ctx, s.chatKey(chatID), fieldUpdatedAt, now.Format(time.RFC3339Nano))
		pipe.ZAdd(ctx, s.userKey(userID), redis.Z{Score: score(now), Member: chatID})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to append turn: %w", err)
	}

	return assistantMsg.ID, nil
}

// Messages returns the chat's messages oldest first.
func (s *Store) Messages(ctx context.Context, chatID string) ([]domain.StoredMessage, error) {
	raw, err := s.client.LRange(ctx, s.messagesKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	messages := make([]domain.StoredMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.StoredMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// ListChats returns up to limit chats, most recently updated first.
func (s *Store) ListChats(ctx context.Context, userID string, limit int) ([]domain.Chat, error) {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}

	ids, err := s.client.ZRevRange(ctx, s.userKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Chat{}, nil
	}

	cmds, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.HGetAll(ctx, s.chatKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}

	chats := make([]domain.Chat, 0, len(cmds))
	for _, cmd := range cmds {
		fields, err := cmd.(*redis.MapStringStringCmd).Result()
		if err != nil || len(fields) == 0 {
			continue
		}

		chat, err := parseChat(fields)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}

	return chats, nil
}

// DeleteChat removes the chat header, its messages and its index entry.
func (s *Store) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.chatKey(chatID), s.messagesKey(chatID))
		pipe.ZRem(ctx, s.userKey(userID), chatID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	return nil
}

func (s *Store) chatKey(chatID string) string {
	return s.prefix + "chat:" + chatID
}

func (s *Store) messagesKey(chatID string) string {
	return s.prefix + "chat:" + chatID + ":messages"
}

func (s *Store) userKey(userID string) string {
	return s.prefix + "user:" + userID + ":chats"
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func chatFields(chat *domain.Chat) map[string]any {
	return map[string]any{
		fieldID:           chat.ID,
		fieldUserID:       chat.UserID,
		fieldTitle:        chat.Title,
		fieldProvider:     chat.Provider,
		fieldModel:        chat.Model,
		fieldMessageCount: chat.MessageCount,
		fieldTokensUsed:   chat.TokensUsed,
		fieldCreatedAt:    chat.CreatedAt.Format(time.RFC3339Nano),
		fieldUpdatedAt:    chat.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func parseChat(fields map[string]string) (*domain.Chat, error) {
	messageCount, err := strconv.Atoi(fields[fieldMessageCount])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldMessageCount, err)
	}

	tokensUsed, err := strconv.Atoi(fields[fieldTokensUsed])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldTokensUsed, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldCreatedAt, err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldUpdatedAt, err)
	}

	return &domain.Chat{
		ID:           fields[fieldID],
		UserID:       fields[fieldUserID],
		Title:        fields[fieldTitle],
		Provider:     fields[fieldProvider],
		Model:        fields[fieldModel],
		MessageCount: messageCount,
		TokensUsed:   tokensUsed,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
