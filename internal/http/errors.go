package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/davidbz/omnichat/internal/catalog"
	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
)

// errorResponse is the JSON body of every non-2xx reply.
type errorResponse struct {
	Error          string `json:"error"`
	Provider       string `json:"provider,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// writeFailure maps err onto a status code and JSON error body.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var upstreamErr *domain.UpstreamError
	var transportErr *domain.TransportError

	switch {
	case errors.Is(err, domain.ErrUnsupportedProvider):
		status = http.StatusBadRequest

	case errors.Is(err, domain.ErrCredentialNotFound):
		status = http.StatusBadRequest
		provider := observability.GetProvider(ctx)
		resp.Error = "No API key configured for " + provider
		resp.Provider = provider

	case errors.Is(err, domain.ErrChatNotFound):
		status = http.StatusNotFound
		resp.Error = "Chat not found"

	case errors.Is(err, catalog.ErrProviderNotFound):
		status = http.StatusNotFound
		resp.Error = "Provider not found"

	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
		resp.Provider = upstreamErr.Provider
		resp.UpstreamStatus = upstreamErr.StatusCode
		resp.UpstreamBody = strings.TrimSpace(upstreamErr.Body)

	case errors.As(err, &transportErr):
		status = http.StatusBadGateway
		if transportErr.Timeout() {
			status = http.StatusGatewayTimeout
		}
		resp.Provider = transportErr.Provider

	case errors.Is(err, domain.ErrMalformedResponse):
		status = http.StatusBadGateway
	}

	logger := observability.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Int("status", status), observability.Error(err))
	} else {
		logger.Warn("request rejected", observability.Int("status", status), observability.Error(err))
	}

	writeJSON(ctx, w, status, resp)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, errorResponse{Error: message})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Status already written; only log.
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}
