package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
)

// ErrDiscoveryUnsupported indicates the provider has no model listing endpoint.
var ErrDiscoveryUnsupported = errors.New("live model discovery not supported")

// Discovery lists models a credential can use, through the OpenAI SDK.
type Discovery struct {
	catalog    *Catalog
	httpClient *http.Client
}

// NewDiscovery creates a model lister sharing httpClient (DI constructor).
func NewDiscovery(catalog *Catalog, httpClient *http.Client) *Discovery {
	return &Discovery{
		catalog:    catalog,
		httpClient: httpClient,
	}
}

// Models queries the provider's GET /models endpoint with credential.
// Only chat-completions providers support it.
func (d *Discovery) Models(ctx context.Context, providerName, credential string) ([]Model, error) {
	entry, err := d.catalog.Get(providerName)
	if err != nil {
		return nil, err
	}

	if entry.Dialect != DialectOpenAI {
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryUnsupported, providerName)
	}

	client := openai.NewClient(
		option.WithBaseURL(strings.TrimSuffix(entry.BaseURL, "/")+"/"),
		option.WithAPIKey(credential),
		option.WithHTTPClient(d.httpClient),
		option.WithMaxRetries(0),
	)

	logger := observability.FromContext(ctx)
	logger.Debug("listing provider models", observability.String("provider", providerName))

	page, err := client.Models.List(ctx)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &domain.UpstreamError{
				Provider:   providerName,
				StatusCode: apiErr.StatusCode,
				Body:       errorBody(apiErr),
			}
		}
		return nil, &domain.TransportError{Provider: providerName, Err: err}
	}

	models := make([]Model, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, Model{ID: m.ID, Name: m.ID})
	}

	return models, nil
}

// errorBody recovers the raw reply openai-go kept on the error, falling back
// to the decoded error object and then its message.
func errorBody(apiErr *openai.Error) string {
	if apiErr.Response != nil && apiErr.Response.Body != nil {
		if raw, err := io.ReadAll(apiErr.Response.Body); err == nil && len(raw) > 0 {
			return string(raw)
		}
	}
	if raw := apiErr.RawJSON(); raw != "" {
		return raw
	}
	return apiErr.Message
}
