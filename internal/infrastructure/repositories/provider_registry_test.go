//go:build unit

package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	domainRepos "github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
	"github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories"
	doubles "github.com/rios0rios0/bitbucket-provider/test/infrastructure/repositorydoubles"
)

func spyFactory(config entities.ProviderConfig) domainRepos.ProviderRepository {
	return &doubles.SpyProviderRepository{ProviderName: config.Name, ProviderPriority: config.Priority}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should create a provider from its configuration", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewProviderRegistry()
		registry.Register(entities.ProviderTypeBitbucket, spyFactory)

		// when
		provider, err := registry.Get(entities.ProviderConfig{Type: entities.ProviderTypeBitbucket, Name: "cloud"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "cloud", provider.Name())
	})

	t.Run("should fail for an unknown provider type", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewProviderRegistry()

		// when
		provider, err := registry.Get(entities.ProviderConfig{Type: "github"})

		// then
		require.Error(t, err)
		assert.Nil(t, provider)
		assert.Contains(t, err.Error(), "unknown provider type")
	})

	t.Run("should build an aggregation sorted by priority", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewProviderRegistry()
		registry.Register(entities.ProviderTypeBitbucket, spyFactory)
		settings := &entities.Settings{Providers: []entities.ProviderConfig{
			{Type: entities.ProviderTypeBitbucket, Name: "low", Priority: 1},
			{Type: entities.ProviderTypeBitbucket, Name: "high", Priority: 10},
		}}

		// when
		aggregation, err := registry.Build(settings)

		// then
		require.NoError(t, err)
		require.Len(t, aggregation.Providers(), 2)
		assert.Equal(t, "high", aggregation.Providers()[0].Name())
		assert.Equal(t, 10, aggregation.Priority())
		assert.Equal(t, []string{entities.ProviderTypeBitbucket}, registry.Types())
	})

	t.Run("should name the failing provider entry", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewProviderRegistry()
		settings := &entities.Settings{Providers: []entities.ProviderConfig{{Type: "svn", Name: "legacy"}}}

		// when
		_, err := registry.Build(settings)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), `provider "legacy"`)
	})
}
