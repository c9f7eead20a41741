package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"

	"github.com/davidbz/omnichat/internal/config"
)

// CORS applies the configured cross-origin policy. The caller identity
// header is always allowed so browser clients can reach their chat history.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	allowed := slices.Clone(cfg.AllowedHeaders)
	if !slices.Contains(allowed, UserIDHeader) {
		allowed = append(allowed, UserIDHeader)
	}

	policy := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   allowed,
		ExposedHeaders:   []string{TraceIDHeader, RequestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return policy.Handler
}
