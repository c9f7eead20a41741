package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/davidbz/omnichat/internal/observability"
)

// GatewayService orchestrates requests to providers.
// It holds no per-call state and is safe for concurrent use.
type GatewayService struct {
	registry ProviderRegistry
	metrics  *observability.Metrics
}

// NewGatewayService creates a new gateway service (DI constructor).
func NewGatewayService(registry ProviderRegistry, metrics *observability.Metrics) *GatewayService {
	return &GatewayService{
		registry: registry,
		metrics:  metrics,
	}
}

// Execute dispatches the request and returns either a buffered completion or
// a chunk stream, selected once by req.Stream.
func (g *GatewayService) Execute(
	ctx context.Context,
	providerName string,
	req *CompletionRequest,
) (*Result, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if req.Stream {
		chunks, err := g.Stream(ctx, providerName, req)
		if err != nil {
			return nil, err
		}
		return &Result{Completion: nil, Chunks: chunks}, nil
	}

	completion, err := g.Complete(ctx, providerName, req)
	if err != nil {
		return nil, err
	}
	return &Result{Completion: completion, Chunks: nil}, nil
}

// Complete handles a completion request.
func (g *GatewayService) Complete(
	ctx context.Context,
	providerName string,
	req *CompletionRequest,
) (*CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	provider, err := g.resolve(ctx, providerName)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, providerName)
	ctx = observability.WithModel(ctx, req.Model)

	start := time.Now()
	response, err := provider.Complete(ctx, req)
	g.metrics.ObserveRequest(providerName, req.Model, outcome(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	return response, nil
}

// Stream handles streaming completion requests.
func (g *GatewayService) Stream(
	ctx context.Context,
	providerName string,
	req *CompletionRequest,
) (<-chan StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	provider, err := g.resolve(ctx, providerName)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, providerName)
	ctx = observability.WithModel(ctx, req.Model)

	start := time.Now()
	chunks, err := provider.Stream(ctx, req)
	if err != nil {
		g.metrics.ObserveRequest(providerName, req.Model, outcome(err), time.Since(start))
		return nil, fmt.Errorf("failed to stream from provider: %w", err)
	}

	return g.instrument(ctx, providerName, req.Model, start, chunks), nil
}

// Supports reports ErrUnsupportedProvider when providerName is not registered.
func (g *GatewayService) Supports(ctx context.Context, providerName string) error {
	_, err := g.resolve(ctx, providerName)
	return err
}

// Providers lists the registered provider names.
func (g *GatewayService) Providers(ctx context.Context) ([]string, error) {
	return g.registry.List(ctx)
}

func (g *GatewayService) resolve(ctx context.Context, providerName string) (Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("%w: provider name cannot be empty", ErrUnsupportedProvider)
	}

	provider, err := g.registry.Get(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("provider not found: %w", err)
	}

	return provider, nil
}

// instrument relays chunks unchanged while recording stream metrics.
func (g *GatewayService) instrument(
	ctx context.Context,
	providerName string,
	model string,
	start time.Time,
	in <-chan StreamChunk,
) <-chan StreamChunk {
	if g.metrics == nil {
		return in
	}

	out := make(chan StreamChunk)
	g.metrics.StreamOpened()

	go func() {
		defer close(out)
		defer g.metrics.StreamClosed()

		var streamErr error
		defer func() {
			g.metrics.ObserveRequest(providerName, model, outcome(streamErr), time.Since(start))
		}()

		for chunk := range in {
			if chunk.Error != nil {
				streamErr = chunk.Error
			} else if chunk.Delta != "" {
				g.metrics.ObserveChunk(providerName, model)
			}

			select {
			case out <- chunk:
			case <-ctx.Done():
				streamErr = ctx.Err()
				return
			}
		}
	}()

	return out
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return strconv.Itoa(upstreamErr.StatusCode)
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout() {
			return "timeout"
		}
		return "transport"
	}

	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	return "error"
}
