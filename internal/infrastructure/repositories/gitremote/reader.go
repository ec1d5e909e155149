package gitremote

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

var errNoRemoteURL = errors.New("remote has no URL")

// Reader implements repositories.RemoteRepository on top of go-git.
type Reader struct {
	remoteName string
}

// NewReader creates a reader for the "origin" remote.
func NewReader() *Reader {
	return &Reader{remoteName: git.DefaultRemoteName}
}

// OriginURL opens the repository containing dir (walking up to the
// enclosing .git) and returns the first URL of its origin remote.
func (r *Reader) OriginURL(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open git repository at %q: %w", dir, err)
	}

	remote, err := repo.Remote(r.remoteName)
	if err != nil {
		return "", fmt.Errorf("failed to read remote %q: %w", r.remoteName, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%q: %w", r.remoteName, errNoRemoteURL)
	}
	return urls[0], nil
}
