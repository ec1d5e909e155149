//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/commands"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories"
	"github.com/rios0rios0/bitbucket-provider/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/bitbucket-provider/test/infrastructure/repositorydoubles"
)

type stubRemote struct {
	url string
	err error
}

func (s stubRemote) OriginURL(string) (string, error) { return s.url, s.err }

func newRegistry(spy *doubles.SpyProviderRepository) *infraRepos.ProviderRegistry {
	registry := infraRepos.NewProviderRegistry()
	registry.Register(entities.ProviderTypeBitbucket, func(entities.ProviderConfig) repositories.ProviderRepository {
		return spy
	})
	return registry
}

func newSettings() *entities.Settings {
	return &entities.Settings{Providers: []entities.ProviderConfig{
		{Type: entities.ProviderTypeBitbucket, Name: "bitbucket"},
	}}
}

func TestResolveCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should resolve every name in order", func(t *testing.T) {
		t.Parallel()

		// given
		locator := &entities.RepositoryLocator{Group: "arlac77", Repository: "sync-test-repository"}
		spy := &doubles.SpyProviderRepository{
			ProviderName: "bitbucket",
			Locators:     map[string]*entities.RepositoryLocator{"arlac77/sync-test-repository": locator},
		}
		cmd := commands.NewResolveCommand(newRegistry(spy), stubRemote{})

		// when
		results, err := cmd.Execute(context.Background(), newSettings(), commands.ResolveOptions{
			Names: []string{"arlac77/sync-test-repository", "https://bitbucket.org"},
		})

		// then
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, locator, results[0].Locator)
		assert.Nil(t, results[1].Locator)
		assert.Empty(t, spy.LookedUp)
	})

	t.Run("should resolve the origin of a local clone", func(t *testing.T) {
		t.Parallel()

		// given
		origin := "git@bitbucket.org:arlac77/sync-test-repository.git"
		locator := &entities.RepositoryLocator{Base: "git@bitbucket.org:", Group: "arlac77", Repository: "sync-test-repository"}
		spy := &doubles.SpyProviderRepository{
			ProviderName: "bitbucket",
			Locators:     map[string]*entities.RepositoryLocator{origin: locator},
		}
		cmd := commands.NewResolveCommand(newRegistry(spy), stubRemote{url: origin})

		// when
		results, err := cmd.Execute(context.Background(), newSettings(), commands.ResolveOptions{Path: "."})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, origin, results[0].Name)
		assert.Equal(t, locator, results[0].Locator)
	})

	t.Run("should look up repositories when asked to", func(t *testing.T) {
		t.Parallel()

		// given
		repo := entitybuilders.NewRepositoryBuilder().BuildRepository()
		spy := &doubles.SpyProviderRepository{
			ProviderName: "bitbucket",
			Locators: map[string]*entities.RepositoryLocator{
				"arlac77/sync-test-repository": {Group: "arlac77", Repository: "sync-test-repository"},
			},
			RepositoryByName: map[string]entities.Repository{"arlac77/sync-test-repository": repo},
		}
		cmd := commands.NewResolveCommand(newRegistry(spy), stubRemote{})

		// when
		results, err := cmd.Execute(context.Background(), newSettings(), commands.ResolveOptions{
			Names:  []string{"arlac77/sync-test-repository"},
			Lookup: true,
		})

		// then
		require.NoError(t, err)
		require.NoError(t, results[0].Err)
		assert.Equal(t, &repo, results[0].Repository)
	})

	t.Run("should fail without names and path", func(t *testing.T) {
		t.Parallel()

		// given
		cmd := commands.NewResolveCommand(newRegistry(&doubles.SpyProviderRepository{}), stubRemote{})

		// when
		_, err := cmd.Execute(context.Background(), newSettings(), commands.ResolveOptions{})

		// then
		require.Error(t, err)
	})

	t.Run("should fail when the origin cannot be read", func(t *testing.T) {
		t.Parallel()

		// given
		cmd := commands.NewResolveCommand(
			newRegistry(&doubles.SpyProviderRepository{}),
			stubRemote{err: errors.New("not a git repository")},
		)

		// when
		_, err := cmd.Execute(context.Background(), newSettings(), commands.ResolveOptions{Path: "/tmp"})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a git repository")
	})

	t.Run("should fail for unknown provider types", func(t *testing.T) {
		t.Parallel()

		// given
		cmd := commands.NewResolveCommand(infraRepos.NewProviderRegistry(), stubRemote{})

		// when
		_, err := cmd.Execute(context.Background(), newSettings(), commands.ResolveOptions{Names: []string{"a/b"}})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider type")
	})
}
