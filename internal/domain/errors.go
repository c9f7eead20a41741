package domain

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrUnsupportedProvider indicates the provider tag is not registered.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMalformedResponse indicates a 2xx reply without the expected content.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrCredentialNotFound indicates no secret is configured for a provider.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrChatNotFound indicates the chat does not exist for the user.
	ErrChatNotFound = errors.New("chat not found")
)

// UpstreamError is returned when a provider answers with a non-2xx status.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.StatusCode, e.Body)
}

// TransportError wraps network-level failures talking to a provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline being exceeded.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
