//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

// SpyCredentialProvider implements repositories.CredentialProvider. Each
// Refresh hands out the next element of Refreshed, or RefreshErr when empty.
type SpyCredentialProvider struct {
	Initial    entities.Credentials
	InitialErr error
	Refreshed  []entities.Credentials
	RefreshErr error

	mu               sync.Mutex
	CredentialsCalls int
	RefreshCalls     int
	Rejected         []entities.Credentials
}

var _ repositories.CredentialProvider = (*SpyCredentialProvider)(nil)

func (p *SpyCredentialProvider) Credentials(context.Context) (entities.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CredentialsCalls++
	return p.Initial, p.InitialErr
}

func (p *SpyCredentialProvider) Refresh(
	_ context.Context,
	rejected entities.Credentials,
) (entities.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RefreshCalls++
	p.Rejected = append(p.Rejected, rejected)

	if len(p.Refreshed) == 0 {
		if p.RefreshErr != nil {
			return entities.Credentials{}, p.RefreshErr
		}
		return entities.Credentials{}, entities.ErrNoFreshCredentials
	}
	next := p.Refreshed[0]
	p.Refreshed = p.Refreshed[1:]
	return next, nil
}
