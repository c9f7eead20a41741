package anthropic

// Config contains Anthropic provider settings, read under the ANTHROPIC_ env prefix.
type Config struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
}
