package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidbz/omnichat/internal/catalog"
	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/http/middleware"
	"github.com/davidbz/omnichat/internal/observability"
)

const (
	anonymousUser = "anonymous"
	untitledChat  = "New chat"
)

// Handler handles HTTP requests.
type Handler struct {
	gateway     *domain.GatewayService
	credentials domain.CredentialStore
	history     domain.ConversationStore
	catalog     *catalog.Catalog
	discovery   *catalog.Discovery
}

// NewHandler creates a new HTTP handler (DI constructor).
// A nil history disables chat persistence.
func NewHandler(
	gateway *domain.GatewayService,
	credentials domain.CredentialStore,
	history domain.ConversationStore,
	providerCatalog *catalog.Catalog,
	discovery *catalog.Discovery,
) *Handler {
	return &Handler{
		gateway:     gateway,
		credentials: credentials,
		history:     history,
		catalog:     providerCatalog,
		discovery:   discovery,
	}
}

// chatRequest is the body of POST /v1/chat/completions.
type chatRequest struct {
	Provider    string           `json:"provider"`
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	ChatID      string           `json:"chat_id,omitempty"`
	Stream      bool             `json:"stream"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

type chatResponse struct {
	Content   string         `json:"content"`
	ChatID    string         `json:"chat_id"`
	MessageID string         `json:"message_id"`
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	Usage     map[string]any `json:"usage"`
}

type streamEvent struct {
	Content   string `json:"content,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleChatCompletion forwards a conversation to the chosen provider and
// persists the last user message with the assistant reply. Failed
// completions leave no chat behind.
func (h *Handler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	ctx = observability.WithProvider(ctx, body.Provider)
	ctx = observability.WithModel(ctx, body.Model)
	userID := userIDFrom(r)

	logger := observability.FromContext(ctx)
	fields := []zap.Field{
		observability.Int("messages", len(body.Messages)),
		observability.Bool("stream", body.Stream),
	}
	if body.Temperature != nil {
		fields = append(fields, observability.Float64("temperature", *body.Temperature))
	}
	if body.MaxTokens != nil {
		fields = append(fields, observability.Int("max_tokens", *body.MaxTokens))
	}
	logger.Info("chat completion request received", fields...)

	if err := h.gateway.Supports(ctx, body.Provider); err != nil {
		writeFailure(ctx, w, err)
		return
	}

	credential, err := h.credentials.Credential(ctx, userID, body.Provider)
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	target, err := h.openChat(ctx, userID, &body)
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}
	ctx = observability.WithChatID(ctx, target.id)

	req := &domain.CompletionRequest{
		Model:    body.Model,
		Messages: body.Messages,
		GenerationOptions: domain.GenerationOptions{
			MaxTokens:   body.MaxTokens,
			Temperature: body.Temperature,
		},
		Stream:     body.Stream,
		Credential: credential,
	}

	result, err := h.gateway.Execute(ctx, body.Provider, req)
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	if result.Streaming() {
		h.relayStream(ctx, w, target, body.Messages, result.Chunks)
		return
	}

	completion := result.Completion
	messageID, err := h.saveTurn(ctx, target, body.Messages, completion.Content, completion.TotalTokens())
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	logger.Info("chat completion succeeded", observability.Int("tokens", completion.TotalTokens()))

	writeJSON(ctx, w, http.StatusOK, chatResponse{
		Content:   completion.Content,
		ChatID:    target.id,
		MessageID: messageID,
		Provider:  completion.Provider,
		Model:     completion.Model,
		Usage:     completion.Usage,
	})
}

func (h *Handler) relayStream(
	ctx context.Context,
	w http.ResponseWriter,
	target *chatTarget,
	messages []domain.Message,
	chunks <-chan domain.StreamChunk,
) {
	logger := observability.FromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(ctx, w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event streamEvent) {
		data, _ := json.Marshal(event)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	var reply []byte
	for chunk := range chunks {
		switch {
		case chunk.Error != nil:
			logger.Error("stream failed", observability.Error(chunk.Error))
			send(streamEvent{Error: chunk.Error.Error()})
			return

		case chunk.Done:
			messageID, err := h.saveTurn(ctx, target, messages, string(reply), 0)
			if err != nil {
				logger.Error("failed to persist streamed reply", observability.Error(err))
				send(streamEvent{Error: err.Error()})
				return
			}
			logger.Info("stream completed", observability.Int("reply_bytes", len(reply)))
			send(streamEvent{Done: true, ChatID: target.id, MessageID: messageID})
			return

		default:
			reply = append(reply, chunk.Delta...)
			send(streamEvent{Content: chunk.Delta, ChatID: target.id})
		}
	}

	logger.Info("stream abandoned by client")
}

// chatTarget is the chat a completion is recorded in. pending holds a new
// chat that is written only once the first turn succeeds.
type chatTarget struct {
	id      string
	pending *domain.Chat
}

// openChat resolves the requested chat or prepares a new one titled after
// the first message.
func (h *Handler) openChat(ctx context.Context, userID string, body *chatRequest) (*chatTarget, error) {
	if body.ChatID != "" {
		if h.history == nil {
			return &chatTarget{id: body.ChatID}, nil
		}

		chat, err := h.history.GetChat(ctx, userID, body.ChatID)
		if err != nil {
			return nil, err
		}
		return &chatTarget{id: chat.ID}, nil
	}

	title := untitledChat
	if len(body.Messages) > 0 {
		title = domain.ChatTitle(body.Messages[0].Content)
	}

	id := uuid.NewString()
	return &chatTarget{
		id: id,
		pending: &domain.Chat{
			ID:       id,
			UserID:   userID,
			Title:    title,
			Provider: body.Provider,
			Model:    body.Model,
		},
	}, nil
}

// saveTurn creates a pending chat, stores the last inbound message as the
// user's and returns the assistant message ID.
func (h *Handler) saveTurn(
	ctx context.Context,
	target *chatTarget,
	messages []domain.Message,
	reply string,
	tokens int,
) (string, error) {
	if h.history == nil {
		return uuid.NewString(), nil
	}

	if target.pending != nil {
		if _, err := h.history.CreateChat(ctx, target.pending); err != nil {
			return "", err
		}
		target.pending = nil
	}

	var last domain.Message
	if len(messages) > 0 {
		last = messages[len(messages)-1]
	}

	return h.history.AppendTurn(ctx, target.id, domain.Turn{
		User:       domain.Message{Role: domain.RoleUser, Content: last.Content},
		Assistant:  domain.Message{Role: domain.RoleAssistant, Content: reply},
		TokensUsed: tokens,
	})
}

// HandleListChats returns the caller's most recent chats.
func (h *Handler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.history == nil {
		writeJSON(ctx, w, http.StatusOK, []domain.Chat{})
		return
	}

	chats, err := h.history.ListChats(ctx, userIDFrom(r), domain.HistoryLimit)
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, chats)
}

// HandleChatMessages returns a chat header and its messages.
func (h *Handler) HandleChatMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.history == nil {
		writeFailure(ctx, w, domain.ErrChatNotFound)
		return
	}

	chat, err := h.history.GetChat(ctx, userIDFrom(r), r.PathValue("id"))
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	messages, err := h.history.Messages(ctx, chat.ID)
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"chat":     chat,
		"messages": messages,
	})
}

// HandleDeleteChat removes one of the caller's chats.
func (h *Handler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.history == nil {
		writeFailure(ctx, w, domain.ErrChatNotFound)
		return
	}

	if err := h.history.DeleteChat(ctx, userIDFrom(r), r.PathValue("id")); err != nil {
		writeFailure(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}

// HandleListProviders lists the catalog.
func (h *Handler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.catalog.List())
}

// HandleGetProvider returns one catalog entry.
func (h *Handler) HandleGetProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, entry)
}

// HandleProviderModels lists the models the caller's credential can use,
// falling back to the catalog where the provider has no listing endpoint.
func (h *Handler) HandleProviderModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("id")

	entry, err := h.catalog.Get(name)
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	credential, err := h.credentials.Credential(ctx, userIDFrom(r), name)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		writeJSON(ctx, w, http.StatusOK, entry.Models)
		return
	}
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	models, err := h.discovery.Models(ctx, name, credential)
	if errors.Is(err, catalog.ErrDiscoveryUnsupported) {
		writeJSON(ctx, w, http.StatusOK, entry.Models)
		return
	}
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, models)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func userIDFrom(r *http.Request) string {
	if userID := r.Header.Get(middleware.UserIDHeader); userID != "" {
		return userID
	}
	return anonymousUser
}
