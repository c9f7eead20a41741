package openai

// Config contains settings for one OpenAI-compatible provider.
// The env keys are read under a per-provider prefix (OPENAI_, GROQ_, ...):
//   - APIKey: default credential when the caller supplies none
//   - BaseURL: overrides the provider's built-in endpoint
type Config struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
}

// OpenRouterConfig adds the identification headers OpenRouter attaches to
// every request.
type OpenRouterConfig struct {
	Config

	Referer string `env:"REFERER" envDefault:"https://github.com/davidbz/omnichat"`
	Title   string `env:"TITLE"   envDefault:"omnichat"`
}
