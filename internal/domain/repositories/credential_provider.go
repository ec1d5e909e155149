package repositories

import (
	"context"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// CredentialProvider supplies authentication material.
type CredentialProvider interface {
	// Credentials returns the current credentials.
	Credentials(ctx context.Context) (entities.Credentials, error)

	// Refresh is called once after a 401. It returns entities.ErrNoFreshCredentials
	// when nothing different from the rejected credentials can be offered.
	Refresh(ctx context.Context, rejected entities.Credentials) (entities.Credentials, error)
}
