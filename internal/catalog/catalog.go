// Package catalog describes the supported providers and their models.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DialectOpenAI marks providers speaking the chat-completions dialect,
// which also exposes GET /models.
const DialectOpenAI = "openai"

//go:embed catalog.yaml
var builtinCatalog []byte

// ErrProviderNotFound indicates the provider is not in the catalog.
var ErrProviderNotFound = errors.New("provider not found")

// Model is one selectable model.
type Model struct {
	ID   string `yaml:"id"   json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Provider is a catalog entry.
type Provider struct {
	Name          string         `yaml:"name"           json:"name"`
	DisplayName   string         `yaml:"display_name"   json:"display_name"`
	BaseURL       string         `yaml:"base_url"       json:"base_url"`
	Dialect       string         `yaml:"dialect"        json:"dialect"`
	Models        []Model        `yaml:"models"         json:"models"`
	DefaultParams map[string]any `yaml:"default_params" json:"default_params,omitempty"`
	IsActive      bool           `yaml:"-"              json:"is_active"`
}

type document struct {
	Providers []Provider `yaml:"providers"`
}

// Catalog is an immutable, ordered set of provider entries.
type Catalog struct {
	providers []Provider
	index     map[string]int
}

// Parse decodes a YAML catalog. Entry names must be unique and non-empty.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		providers: make([]Provider, 0, len(doc.Providers)),
		index:     make(map[string]int, len(doc.Providers)),
	}

	for _, p := range doc.Providers {
		if p.Name == "" {
			return nil, errors.New("catalog entry without name")
		}
		if _, dup := c.index[p.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", p.Name)
		}
		if p.Models == nil {
			p.Models = []Model{}
		}
		p.IsActive = true
		c.index[p.Name] = len(c.providers)
		c.providers = append(c.providers, p)
	}

	return c, nil
}

// New loads the built-in catalog and applies the effective base URLs
// (DI constructor).
func New(baseURLs map[string]string) (*Catalog, error) {
	c, err := Parse(builtinCatalog)
	if err != nil {
		return nil, err
	}

	for i := range c.providers {
		if url, ok := baseURLs[c.providers[i].Name]; ok {
			c.providers[i].BaseURL = url
		}
	}

	return c, nil
}

// List returns every entry in catalog order.
func (c *Catalog) List() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Get returns the entry named name.
func (c *Catalog) Get(name string) (Provider, error) {
	i, ok := c.index[name]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return c.providers[i], nil
}
