// Package cohere implements the Cohere v2 chat dialect.
package cohere

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

const (
	providerName = "cohere"

	// BaseURL is the built-in Cohere endpoint.
	BaseURL = "https://api.cohere.ai/v2"

	chatPath = "/chat"
)

// Provider implements the domain.Provider interface for Cohere.
type Provider struct {
	baseURL string
	client  *upstream.Client
}

// NewProvider creates a new Cohere provider. An empty baseURL selects BaseURL.
func NewProvider(baseURL string, client *upstream.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("upstream client is required")
	}

	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Provider{
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Complete sends a chat request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Cohere chat API")

	body, err := p.client.Fetch(ctx, p.request(req, false))
	if err != nil {
		return nil, err
	}

	content, usage, err := parseChatResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", providerName, err)
	}

	return &domain.CompletionResponse{
		Provider: providerName,
		Model:    req.Model,
		Content:  content,
		Usage:    usage,
	}, nil
}

// Stream sends a streaming chat request. Cohere streams newline-delimited
// JSON events; the stream ends when the connection closes.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Cohere chat streaming API")

	return p.client.Stream(ctx, p.request(req, true), parseStreamLine)
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) request(req *domain.CompletionRequest, stream bool) upstream.Request {
	return upstream.Request{
		Provider: providerName,
		URL:      p.baseURL + chatPath,
		Headers: map[string]string{
			"Authorization": "Bearer " + req.Credential,
		},
		Body:   toChatRequest(req, stream),
		Stream: stream,
	}
}
