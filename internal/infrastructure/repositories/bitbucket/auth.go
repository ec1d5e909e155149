package bitbucket

import (
	"encoding/base64"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// AuthorizationHeader builds the Authorization header value: basic
// authentication when a username is present, a bearer token otherwise.
func AuthorizationHeader(credentials entities.Credentials) (string, error) {
	switch {
	case credentials.Username != "":
		raw := credentials.Username + ":" + credentials.Password
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
	case credentials.Token != "":
		return "Bearer " + credentials.Token, nil
	default:
		return "", entities.ErrMissingCredentials
	}
}
