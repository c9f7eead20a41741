// Package google implements the Gemini generateContent dialect.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

const (
	providerName = "google"

	// BaseURL is the built-in Gemini endpoint.
	BaseURL = "https://generativelanguage.googleapis.com/v1beta"

	generateMethod = "generateContent"
	streamMethod   = "streamGenerateContent"
)

// Provider implements the domain.Provider interface for Google Gemini.
// The credential travels as the key query parameter, not as a header.
type Provider struct {
	baseURL string
	client  *upstream.Client
}

// NewProvider creates a new Gemini provider. An empty baseURL selects BaseURL.
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

// Complete sends a generateContent request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini generateContent API")

	body, err := p.client.Fetch(ctx, p.request(req, false))
	if err != nil {
		return nil, err
	}

	content, usage, err := parseGenerateResponse(body)
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

// Stream sends a streamGenerateContent request in SSE mode.
// The stream ends when the connection closes.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini streamGenerateContent API")

	return p.client.Stream(ctx, p.request(req, true), parseStreamLine)
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) request(req *domain.CompletionRequest, stream bool) upstream.Request {
	return upstream.Request{
		Provider: providerName,
		URL:      p.endpoint(req.Model, req.Credential, stream),
		Headers:  nil,
		Body:     toGenerateRequest(req),
		Stream:   stream,
	}
}

func (p *Provider) endpoint(model, credential string, stream bool) string {
	method := generateMethod
	query := url.Values{"key": {credential}}
	if stream {
		method = streamMethod
		query.Set("alt", "sse")
	}

	return fmt.Sprintf("%s/models/%s:%s?%s", p.baseURL, url.PathEscape(model), method, query.Encode())
}
