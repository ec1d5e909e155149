package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

const oauthTokenPath = "/site/oauth2/access_token"

// StaticCredentialProvider hands out fixed credentials, e.g. from a settings
// file. It has nothing to offer after a rejection.
type StaticCredentialProvider struct {
	credentials entities.Credentials
}

// NewStaticCredentialProvider creates a provider for fixed credentials.
func NewStaticCredentialProvider(credentials entities.Credentials) *StaticCredentialProvider {
	return &StaticCredentialProvider{credentials: credentials}
}

func (p *StaticCredentialProvider) Credentials(context.Context) (entities.Credentials, error) {
	if p.credentials.IsEmpty() {
		return entities.Credentials{}, entities.ErrMissingCredentials
	}
	return p.credentials, nil
}

func (p *StaticCredentialProvider) Refresh(context.Context, entities.Credentials) (entities.Credentials, error) {
	return entities.Credentials{}, entities.ErrNoFreshCredentials
}

// EnvironmentCredentialProvider reads BB_TOKEN, BITBUCKET_TOKEN,
// BITBUCKET_USERNAME and BITBUCKET_PASSWORD on every call, so a refresh
// picks up rotated values.
type EnvironmentCredentialProvider struct {
	getenv     func(string) string
	precedence string
}

// NewEnvironmentCredentialProvider creates a provider reading the process environment.
func NewEnvironmentCredentialProvider(precedence string) *EnvironmentCredentialProvider {
	return NewEnvironmentCredentialProviderWithLookup(os.Getenv, precedence)
}

// NewEnvironmentCredentialProviderWithLookup creates a provider reading variables through getenv.
func NewEnvironmentCredentialProviderWithLookup(
	getenv func(string) string,
	precedence string,
) *EnvironmentCredentialProvider {
	return &EnvironmentCredentialProvider{getenv: getenv, precedence: precedence}
}

func (p *EnvironmentCredentialProvider) Credentials(context.Context) (entities.Credentials, error) {
	creds := p.read()
	if creds.IsEmpty() {
		return entities.Credentials{}, entities.ErrMissingCredentials
	}
	return creds, nil
}

func (p *EnvironmentCredentialProvider) Refresh(
	_ context.Context,
	rejected entities.Credentials,
) (entities.Credentials, error) {
	creds := p.read()
	if creds.IsEmpty() || creds.Equal(rejected) {
		return entities.Credentials{}, entities.ErrNoFreshCredentials
	}
	logger.Debugf("Picked up new credentials from the environment: %s", creds)
	return creds, nil
}

func (p *EnvironmentCredentialProvider) read() entities.Credentials {
	token := p.getenv("BB_TOKEN")
	if token == "" {
		token = p.getenv("BITBUCKET_TOKEN")
	}
	auth := entities.AuthenticationConfig{
		Token:    token,
		Username: p.getenv("BITBUCKET_USERNAME"),
		Password: p.getenv("BITBUCKET_PASSWORD"),
	}
	return auth.Credentials(p.precedence)
}

// OAuthCredentialProvider exchanges an OAuth consumer key and secret for
// access tokens with the client credentials grant.
type OAuthCredentialProvider struct {
	config *clientcredentials.Config
	client *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

// NewOAuthCredentialProvider creates a provider for the consumer registered
// on the Bitbucket site at siteURL (e.g. "https://bitbucket.org").
func NewOAuthCredentialProvider(siteURL, clientID, clientSecret string) *OAuthCredentialProvider {
	return &OAuthCredentialProvider{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     strings.TrimSuffix(siteURL, "/") + oauthTokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: cleanhttp.DefaultPooledClient(),
	}
}

func (p *OAuthCredentialProvider) Credentials(ctx context.Context) (entities.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != nil && p.token.Valid() {
		return entities.Credentials{Token: p.token.AccessToken}, nil
	}
	return p.exchange(ctx)
}

func (p *OAuthCredentialProvider) Refresh(
	ctx context.Context,
	rejected entities.Credentials,
) (entities.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.exchange(ctx)
	if err != nil {
		return entities.Credentials{}, err
	}
	if creds.Equal(rejected) {
		return entities.Credentials{}, entities.ErrNoFreshCredentials
	}
	return creds, nil
}

func (p *OAuthCredentialProvider) exchange(ctx context.Context) (entities.Credentials, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.config.Token(ctx)
	if err != nil {
		return entities.Credentials{}, fmt.Errorf("failed to obtain OAuth access token: %w", err)
	}
	p.token = token
	logger.Debugf("Obtained OAuth access token, expires at %s", token.Expiry)
	return entities.Credentials{Token: token.AccessToken}, nil
}
