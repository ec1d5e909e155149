package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	domainRepos "github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
	"github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories/bitbucket"
	"github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories/gitremote"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register provider registry with all provider factories
	if err := container.Provide(func() *ProviderRegistry {
		reg := NewProviderRegistry()
		reg.Register(entities.ProviderTypeBitbucket, bitbucket.NewProviderRepository)
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(gitremote.NewReader); err != nil {
		return err
	}
	if err := container.Provide(func(impl *gitremote.Reader) domainRepos.RemoteRepository {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
