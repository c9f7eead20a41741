// Package anthropic implements the Anthropic Messages API dialect.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

const (
	providerName = "anthropic"

	// BaseURL is the built-in Anthropic endpoint.
	BaseURL = "https://api.anthropic.com/v1"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	messagesPath = "/messages"
)

// Provider implements the domain.Provider interface for Anthropic.
type Provider struct {
	baseURL string
	client  *upstream.Client
}

// NewProvider creates a new Anthropic provider. An empty baseURL selects BaseURL.
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

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic messages API")

	body, err := p.client.Fetch(ctx, p.request(req, false))
	if err != nil {
		return nil, err
	}

	content, usage, err := parseMessage(body)
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

// Stream sends a completion request and returns a stream of chunks.
// Anthropic has no in-band terminator; the stream ends when the connection closes.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic messages streaming API")

	return p.client.Stream(ctx, p.request(req, true), parseStreamLine)
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) request(req *domain.CompletionRequest, stream bool) upstream.Request {
	return upstream.Request{
		Provider: providerName,
		URL:      p.baseURL + messagesPath,
		Headers: map[string]string{
			"x-api-key":         req.Credential,
			"anthropic-version": APIVersion,
		},
		Body:   toMessagesRequest(req, stream),
		Stream: stream,
	}
}
