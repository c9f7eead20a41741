// Package builtin assembles the closed set of seven providers.
package builtin

import (
	"context"
	"fmt"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/provider/anthropic"
	"github.com/davidbz/omnichat/internal/provider/cohere"
	"github.com/davidbz/omnichat/internal/provider/google"
	"github.com/davidbz/omnichat/internal/provider/openai"
	"github.com/davidbz/omnichat/internal/provider/registry"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

// Provider identities.
const (
	OpenAI     = "openai"
	Anthropic  = "anthropic"
	Google     = "google"
	Mistral    = "mistral"
	Cohere     = "cohere"
	Groq       = "groq"
	OpenRouter = "openrouter"
)

// Names lists every supported provider identity.
var Names = []string{OpenAI, Anthropic, Google, Mistral, Cohere, Groq, OpenRouter}

// Config groups the per-provider settings.
type Config struct {
	OpenAI     openai.Config           `envPrefix:"OPENAI_"`
	Anthropic  anthropic.Config        `envPrefix:"ANTHROPIC_"`
	Google     google.Config           `envPrefix:"GOOGLE_"`
	Mistral    openai.Config           `envPrefix:"MISTRAL_"`
	Cohere     cohere.Config           `envPrefix:"COHERE_"`
	Groq       openai.Config           `envPrefix:"GROQ_"`
	OpenRouter openai.OpenRouterConfig `envPrefix:"OPENROUTER_"`
}

// APIKeys returns the configured keys by provider, omitting empty ones.
func (c *Config) APIKeys() map[string]string {
	keys := map[string]string{
		OpenAI:     c.OpenAI.APIKey,
		Anthropic:  c.Anthropic.APIKey,
		Google:     c.Google.APIKey,
		Mistral:    c.Mistral.APIKey,
		Cohere:     c.Cohere.APIKey,
		Groq:       c.Groq.APIKey,
		OpenRouter: c.OpenRouter.APIKey,
	}
	for name, key := range keys {
		if key == "" {
			delete(keys, name)
		}
	}
	return keys
}

// BaseURLs returns the effective endpoint of every provider.
func (c *Config) BaseURLs() map[string]string {
	return map[string]string{
		OpenAI:     or(c.OpenAI.BaseURL, openai.OpenAIBaseURL),
		Anthropic:  or(c.Anthropic.BaseURL, anthropic.BaseURL),
		Google:     or(c.Google.BaseURL, google.BaseURL),
		Mistral:    or(c.Mistral.BaseURL, openai.MistralBaseURL),
		Cohere:     or(c.Cohere.BaseURL, cohere.BaseURL),
		Groq:       or(c.Groq.BaseURL, openai.GroqBaseURL),
		OpenRouter: or(c.OpenRouter.BaseURL, openai.OpenRouterBaseURL),
	}
}

// Providers builds one adapter per identity, all sharing client.
func Providers(cfg *Config, client *upstream.Client) ([]domain.Provider, error) {
	urls := cfg.BaseURLs()

	openAI, err := openai.NewProvider(OpenAI, urls[OpenAI], client)
	if err != nil {
		return nil, err
	}

	mistral, err := openai.NewProvider(Mistral, urls[Mistral], client)
	if err != nil {
		return nil, err
	}

	groq, err := openai.NewProvider(Groq, urls[Groq], client)
	if err != nil {
		return nil, err
	}

	openRouter, err := openai.NewProvider(OpenRouter, urls[OpenRouter], client,
		openai.WithHeader("HTTP-Referer", cfg.OpenRouter.Referer),
		openai.WithHeader("X-Title", cfg.OpenRouter.Title),
	)
	if err != nil {
		return nil, err
	}

	anthropicProvider, err := anthropic.NewProvider(urls[Anthropic], client)
	if err != nil {
		return nil, err
	}

	googleProvider, err := google.NewProvider(urls[Google], client)
	if err != nil {
		return nil, err
	}

	cohereProvider, err := cohere.NewProvider(urls[Cohere], client)
	if err != nil {
		return nil, err
	}

	return []domain.Provider{
		openAI,
		anthropicProvider,
		googleProvider,
		mistral,
		cohereProvider,
		groq,
		openRouter,
	}, nil
}

// NewRegistry returns a registry holding every built-in provider (DI constructor).
func NewRegistry(cfg *Config, client *upstream.Client) (domain.ProviderRegistry, error) {
	providers, err := Providers(cfg, client)
	if err != nil {
		return nil, err
	}

	reg := registry.NewRegistry()
	for _, provider := range providers {
		if err := reg.Register(context.Background(), provider); err != nil {
			return nil, fmt.Errorf("failed to register %s provider: %w", provider.Name(), err)
		}
	}

	return reg, nil
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
