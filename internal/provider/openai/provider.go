// Package openai implements the OpenAI chat-completions dialect. One adapter
// type serves every provider speaking that dialect (openai, groq, mistral,
// openrouter); instances differ only by name, base URL and fixed headers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

// Built-in endpoints of the OpenAI-compatible providers.
const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	MistralBaseURL    = "https://api.mistral.ai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

const chatCompletionsPath = "/chat/completions"

// Provider implements the domain.Provider interface for the OpenAI dialect.
type Provider struct {
	name    string
	baseURL string
	headers map[string]string
	client  *upstream.Client
}

// Option customises a Provider.
type Option func(*Provider)

// WithHeader attaches a fixed header to every request.
func WithHeader(key, value string) Option {
	return func(p *Provider) {
		p.headers[key] = value
	}
}

// NewProvider creates an OpenAI-dialect provider registered under name.
func NewProvider(name, baseURL string, client *upstream.Client, opts ...Option) (*Provider, error) {
	if name == "" {
		return nil, errors.New("provider name is required")
	}

	if baseURL == "" {
		return nil, fmt.Errorf("%s base URL is required", name)
	}

	if client == nil {
		return nil, errors.New("upstream client is required")
	}

	p := &Provider{
		name:    name,
		baseURL: baseURL,
		headers: make(map[string]string),
		client:  client,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling chat completions API", observability.String("dialect", "openai"))

	body, err := p.client.Fetch(ctx, p.request(req, false))
	if err != nil {
		return nil, err
	}

	content, usage, err := parseCompletion(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	return &domain.CompletionResponse{
		Provider: p.name,
		Model:    req.Model,
		Content:  content,
		Usage:    usage,
	}, nil
}

// Stream sends a completion request and returns a stream of chunks.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling chat completions streaming API", observability.String("dialect", "openai"))

	return p.client.Stream(ctx, p.request(req, true), parseStreamLine)
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) request(req *domain.CompletionRequest, stream bool) upstream.Request {
	headers := maps.Clone(p.headers)
	headers["Authorization"] = "Bearer " + req.Credential

	return upstream.Request{
		Provider: p.name,
		URL:      p.baseURL + chatCompletionsPath,
		Headers:  headers,
		Body:     toChatRequest(req, stream),
		Stream:   stream,
	}
}
