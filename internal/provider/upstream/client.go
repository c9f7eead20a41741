// Package upstream is the HTTP transport shared by every provider adapter.
// It owns status handling (non-2xx becomes domain.UpstreamError), network
// failure wrapping (domain.TransportError) and the line pump that turns a
// held-open response body into a chunk channel.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
)

// Client sends provider requests over one shared connection pool.
// Per-call data (URL, headers, body) lives only in Request.
type Client struct {
	httpClient *http.Client
}

// Request describes a single outbound provider call.
type Request struct {
	Provider string
	URL      string
	// Headers are written with the exact key casing given.
	Headers map[string]string
	Body    any
	Stream  bool
}

// NewClient creates a client whose total per-call lifetime, including
// reading a streamed body, is bounded by config.Timeout seconds.
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

// NewClientWithHTTP wraps an existing http.Client, e.g. one with a stub transport.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
	}
}

// HTTPClient exposes the underlying client so other upstream integrations
// can share the pool and timeout.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Do sends the request and returns the open response for 2xx replies.
// The caller owns the response body.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redact(err))
	}

	httpReq.Header["Content-Type"] = []string{"application/json"}
	if req.Stream {
		httpReq.Header["Accept"] = []string{"text/event-stream"}
	}
	for key, value := range req.Headers {
		httpReq.Header[key] = []string{value}
	}

	logger := observability.FromContext(ctx)
	logger.Debug("sending provider request",
		observability.String("endpoint", stripQuery(req.URL)),
		observability.Bool("stream", req.Stream),
		observability.Int("body_bytes", len(payload)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.TransportError{Provider: req.Provider, Err: redact(err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, &domain.TransportError{Provider: req.Provider, Err: redact(readErr)}
		}

		logger.Debug("provider returned error status",
			observability.Int("status", resp.StatusCode),
		)

		return nil, &domain.UpstreamError{
			Provider:   req.Provider,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return resp, nil
}

// Fetch performs a buffered call and returns the full 2xx body.
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Provider: req.Provider, Err: redact(err)}
	}

	return body, nil
}

// Stream opens a streaming call and pumps its lines through parse.
// A non-2xx status is returned here, before any chunk exists.
func (c *Client) Stream(ctx context.Context, req Request, parse LineParser) (<-chan domain.StreamChunk, error) {
	req.Stream = true

	//nolint:bodyclose // Response body is closed by the Pump goroutine
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	return Pump(ctx, req.Provider, resp.Body, parse), nil
}

// redact drops query strings from URL errors; Google carries its key there.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = stripQuery(urlErr.URL)
	}
	return err
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
