// Package credential resolves provider secrets for a user.
package credential

import (
	"context"
	"fmt"

	"github.com/davidbz/omnichat/internal/domain"
	"github.com/davidbz/omnichat/internal/observability"
)

// StaticStore serves one deployment-wide key per provider to every user.
type StaticStore struct {
	keys map[string]string
}

// NewStaticStore creates a store from provider-to-key pairs. Empty keys are ignored.
func NewStaticStore(keys map[string]string) *StaticStore {
	s := &StaticStore{keys: make(map[string]string, len(keys))}
	for provider, key := range keys {
		if key != "" {
			s.keys[provider] = key
		}
	}
	return s
}

// Credential implements domain.CredentialStore.
func (s *StaticStore) Credential(ctx context.Context, _ string, providerName string) (string, error) {
	key, ok := s.keys[providerName]
	if !ok {
		observability.FromContext(ctx).Debug("no credential configured",
			observability.String("provider", providerName),
		)
		return "", fmt.Errorf("%w: %s", domain.ErrCredentialNotFound, providerName)
	}

	return key, nil
}
