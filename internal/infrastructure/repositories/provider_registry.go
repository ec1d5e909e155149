package repositories

import (
	"fmt"
	"sort"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	domainRepos "github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

// ProviderFactory is a constructor function that creates a ProviderRepository from its configuration.
type ProviderFactory func(config entities.ProviderConfig) domainRepos.ProviderRepository

// ProviderRegistry manages all registered provider implementations.
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register adds a provider factory under the given type (e.g. "bitbucket").
func (r *ProviderRegistry) Register(providerType string, factory ProviderFactory) {
	r.providers[providerType] = factory
}

// Get returns a configured provider instance for the given configuration.
func (r *ProviderRegistry) Get(config entities.ProviderConfig) (domainRepos.ProviderRepository, error) {
	factory, ok := r.providers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q", config.Type)
	}
	return factory(config), nil
}

// Build creates one provider per configuration entry and combines them.
func (r *ProviderRegistry) Build(settings *entities.Settings) (*AggregationProviderRepository, error) {
	providers := make([]domainRepos.ProviderRepository, 0, len(settings.Providers))
	for _, config := range settings.Providers {
		provider, err := r.Get(config)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", config.Name, err)
		}
		providers = append(providers, provider)
	}
	return NewAggregationProviderRepository(providers), nil
}

// Types returns the registered provider types in alphabetical order.
func (r *ProviderRegistry) Types() []string {
	types := make([]string, 0, len(r.providers))
	for providerType := range r.providers {
		types = append(types, providerType)
	}
	sort.Strings(types)
	return types
}
