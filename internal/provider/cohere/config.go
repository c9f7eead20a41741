package cohere

// Config contains Cohere provider settings, read under the COHERE_ env prefix.
type Config struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
}
