package bitbucket

import (
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

// NewProviderRepository builds a provider for the configuration with the
// pooled HTTP transport and the matching credential provider.
func NewProviderRepository(config entities.ProviderConfig) repositories.ProviderRepository {
	return NewBitbucketProviderRepository(
		config,
		NewHTTPFetcher(config.Timeout(), config.Retries()),
		NewCredentialProvider(config),
	)
}

// NewCredentialProvider selects OAuth consumer, environment or static
// credentials, in that order.
func NewCredentialProvider(config entities.ProviderConfig) repositories.CredentialProvider {
	auth := config.Authentication
	switch {
	case auth.UsesOAuth():
		logger.Debugf("Provider %q authenticates with an OAuth consumer", config.Name)
		return NewOAuthCredentialProvider(config.URL, auth.ClientID, auth.ClientSecret)
	case config.FromEnvironment:
		logger.Debugf("Provider %q reads credentials from the environment", config.Name)
		return NewEnvironmentCredentialProvider(config.CredentialPrecedence)
	default:
		return NewStaticCredentialProvider(auth.Credentials(config.CredentialPrecedence))
	}
}
