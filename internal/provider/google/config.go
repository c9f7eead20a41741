package google

// Config contains Google Gemini provider settings, read under the GOOGLE_ env prefix.
type Config struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
}
