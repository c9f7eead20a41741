package main

import (
	"fmt"
	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/omnichat/internal/catalog"
	"github.com/davidbz/omnichat/internal/config"
	"github.com/davidbz/omnichat/internal/credential"
	"github.com/davidbz/omnichat/internal/domain"
	historyredis "github.com/davidbz/omnichat/internal/history/redis"
	"github.com/davidbz/omnichat/internal/http"
	"github.com/davidbz/omnichat/internal/http/middleware"
	"github.com/davidbz/omnichat/internal/observability"
	"github.com/davidbz/omnichat/internal/provider/builtin"
	"github.com/davidbz/omnichat/internal/provider/upstream"
)

func buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor any
	}{
		// Configuration
		{"config", config.Load},
		{"config dependencies", config.ParseDependenciesConfig},

		// Observability
		{"logger", newLogger},
		{"prometheus registry", newPrometheusRegistry},
		{"prometheus registerer", func(reg *prometheus.Registry) prometheus.Registerer { return reg }},
		{"prometheus gatherer", func(reg *prometheus.Registry) prometheus.Gatherer { return reg }},
		{"metrics", observability.NewMetrics},

		// Upstream transport and providers
		{"upstream client", newUpstreamClient},
		{"shared http client", func(client *upstream.Client) *nethttp.Client { return client.HTTPClient() }},
		{"provider registry", builtin.NewRegistry},

		// Stores
		{"credential store", newCredentialStore},
		{"conversation store", newConversationStore},

		// Catalog
		{"provider catalog", newCatalog},
		{"model discovery", catalog.NewDiscovery},

		// Domain Services
		{"gateway service", domain.NewGatewayService},

		// HTTP Layer
		{"middleware chain", middleware.BuildMiddlewareChain},
		{"HTTP handler", http.NewHandler},
		{"HTTP server", http.NewServer},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return container, nil
}

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	return observability.InitLogger(cfg.Level)
}

func newPrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newUpstreamClient(cfg *upstream.Config) *upstream.Client {
	return upstream.NewClient(*cfg)
}

func newCredentialStore(cfg *builtin.Config) domain.CredentialStore {
	return credential.NewStaticStore(cfg.APIKeys())
}

// newConversationStore returns nil when Redis is not configured.
func newConversationStore(cfg *historyredis.Config, logger *zap.Logger) domain.ConversationStore {
	if !cfg.Enabled() {
		logger.Warn("REDIS_ADDR not set, chat history disabled")
		return nil
	}

	return historyredis.NewStore(historyredis.NewClient(cfg), cfg.KeyPrefix)
}

func newCatalog(cfg *builtin.Config) (*catalog.Catalog, error) {
	return catalog.New(cfg.BaseURLs())
}
