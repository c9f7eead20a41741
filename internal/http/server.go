package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidbz/omnichat/internal/config"
	"github.com/davidbz/omnichat/internal/http/middleware"
	"github.com/davidbz/omnichat/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	config      *config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	gatherer    prometheus.Gatherer
	srv         *http.Server
}

// NewServer creates a new HTTP server (DI constructor).
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Middleware,
	gatherer prometheus.Gatherer,
) *Server {
	s := &Server{
		config:      cfg,
		handler:     handler,
		middlewares: middlewares,
		gatherer:    gatherer,
		srv:         nil,
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
	}

	return s
}

// Routes returns the routed handler wrapped in the middleware chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat/completions", s.handler.HandleChatCompletion)
	mux.HandleFunc("GET /v1/chats", s.handler.HandleListChats)
	mux.HandleFunc("GET /v1/chats/{id}/messages", s.handler.HandleChatMessages)
	mux.HandleFunc("DELETE /v1/chats/{id}", s.handler.HandleDeleteChat)
	mux.HandleFunc("GET /v1/providers", s.handler.HandleListProviders)
	mux.HandleFunc("GET /v1/providers/{id}", s.handler.HandleGetProvider)
	mux.HandleFunc("GET /v1/providers/{id}/models", s.handler.HandleProviderModels)
	mux.HandleFunc("GET /health", s.handler.HandleHealth)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	if s.middlewares == nil {
		return mux
	}

	return s.middlewares(mux)
}

// Start serves until Shutdown is called. Request contexts inherit ctx's
// values but not its cancellation, so Shutdown can drain in-flight streams.
func (s *Server) Start(ctx context.Context) error {
	base := context.WithoutCancel(ctx)
	s.srv.BaseContext = func(net.Listener) context.Context {
		return base
	}

	observability.FromContext(ctx).Info("starting HTTP server", observability.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
