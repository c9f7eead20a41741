package upstream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineBytes      = 4 * 1024 * 1024
)

// ErrMalformedEvent marks a line that is not the expected event shape.
// Pump logs and skips such lines; it never reaches the consumer.
var ErrMalformedEvent = errors.New("malformed stream event")

// LineParser converts one raw line into zero or more text fragments.
// done reports an in-band end-of-stream sentinel.
type LineParser func(line []byte) (fragments []string, done bool, err error)

var dataPrefix = []byte("data: ")

// SSEData returns the payload of a "data: " line.
func SSEData(line []byte) ([]byte, bool) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return nil, false
	}
	return line[len(dataPrefix):], true
}

// Pump reads body line by line in a goroutine, emitting fragments in
// upstream order. The stream ends with a Done chunk on sentinel or EOF, or
// with an Error chunk on a read failure. If ctx is cancelled the goroutine
// stops sending and closes body.
func Pump(ctx context.Context, provider string, body io.ReadCloser, parse LineParser) <-chan domain.StreamChunk {
	chunks := make(chan domain.StreamChunk)

	go func() {
		defer close(chunks)
		defer body.Close()

		logger := observability.FromContext(ctx)
		defer logger.Debug("provider stream closed")

		send := func(chunk domain.StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBytes)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			fragments, done, err := parse(line)
			if err != nil {
				logger.Debug("skipping stream line",
					observability.Error(err),
					observability.Int("line_bytes", len(line)),
				)
				continue
			}

			for _, fragment := range fragments {
				if !send(domain.StreamChunk{Delta: fragment, Done: false, Error: nil}) {
					return
				}
			}

			if done {
				send(domain.StreamChunk{Delta: "", Done: true, Error: nil})
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				return
			}
			send(domain.StreamChunk{
				Delta: "",
				Done:  false,
				Error: &domain.TransportError{Provider: provider, Err: redact(err)},
			})
			return
		}

		send(domain.StreamChunk{Delta: "", Done: true, Error: nil})
	}()

	return chunks
}
