// Package catalogue loads provider catalogue data through the cache after
// checking that the requested key makes sense for the caller.
package catalogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/occapi/cache"
	"github.com/briangreenhill/occapi/internal/providers"
)

// ErrFilterNotSupported is returned for an ounit filtered key on a provider
// that does not filter by organisational unit
var ErrFilterNotSupported = errors.New("filter not supported by provider")

type Service struct {
	registry *providers.Registry
	loader   *cache.Loader
	logger   zerolog.Logger
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(registry *providers.Registry, loader *cache.Loader, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		loader:   loader,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Providers lists the registry
func (s *Service) Providers() []providers.Provider {
	return s.registry.List()
}

// Index loads the provider's index, fetching it again when refresh is set.
// Refreshing the index marks every other entry of the provider stale.
func (s *Service) Index(ctx context.Context, providerID string, refresh bool) (json.RawMessage, error) {
	p, err := s.registry.Enabled(providerID)
	if err != nil {
		return nil, err
	}

	key := cache.IndexKey(p.ID)
	if refresh {
		s.logger.Info().Str("provider", p.ID).Msg("refreshing provider index")
		return s.loader.Load(ctx, key, p.IndexEndpoint(), true)
	}
	return s.loader.ResolveAndLoad(ctx, key, p.IndexEndpoint())
}

// Refresh force-loads the provider's index
func (s *Service) Refresh(ctx context.Context, providerID string) error {
	_, err := s.Index(ctx, providerID, true)
	return err
}

// Institution loads the provider's own HEI resource
func (s *Service) Institution(ctx context.Context, providerID string) (json.RawMessage, error) {
	p, err := s.registry.Enabled(providerID)
	if err != nil {
		return nil, err
	}
	key, err := cache.Encode(cache.Key{Provider: p.ID, Type: cache.HEI, ID: p.HEIID})
	if err != nil {
		return nil, err
	}
	return s.loader.ResolveAndLoad(ctx, key, p.HEIEndpoint())
}

// Collection loads the collection stored under key. Empty resourceType or
// filterType skip the corresponding check.
func (s *Service) Collection(ctx context.Context, key string, resourceType, filterType cache.ResourceType) (json.RawMessage, error) {
	if err := cache.ValidateCollectionKey(key, resourceType, filterType); err != nil {
		return nil, err
	}
	return s.load(ctx, key)
}

// Resource loads the single resource stored under key
func (s *Service) Resource(ctx context.Context, key string, resourceType cache.ResourceType) (json.RawMessage, error) {
	if err := cache.ValidateResourceKey(key, resourceType); err != nil {
		return nil, err
	}
	return s.load(ctx, key)
}

func (s *Service) load(ctx context.Context, key string) (json.RawMessage, error) {
	k := cache.Decode(key)

	p, err := s.registry.Enabled(k.Provider)
	if err != nil {
		return nil, err
	}
	if k.FilterType == cache.OUnit && !p.OUnitFilter {
		return nil, fmt.Errorf("%w: %s does not filter by %s", ErrFilterNotSupported, p.ID, cache.OUnit)
	}

	endpoint, err := p.Endpoint(k)
	if err != nil {
		return nil, err
	}
	return s.loader.ResolveAndLoad(ctx, key, endpoint)
}
