//go:build unit

package gitremote_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories/gitremote"
)

func TestReaderOriginURL(t *testing.T) {
	t.Parallel()

	t.Run("should return the origin url from a nested directory", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		repo, err := git.PlainInit(dir, false)
		require.NoError(t, err)
		_, err = repo.CreateRemote(&config.RemoteConfig{
			Name: "origin",
			URLs: []string{"git@bitbucket.org:arlac77/sync-test-repository.git"},
		})
		require.NoError(t, err)
		nested := filepath.Join(dir, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		// when
		url, err := gitremote.NewReader().OriginURL(nested)

		// then
		require.NoError(t, err)
		assert.Equal(t, "git@bitbucket.org:arlac77/sync-test-repository.git", url)
	})

	t.Run("should fail without an origin remote", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		_, err := git.PlainInit(dir, false)
		require.NoError(t, err)

		// when
		_, err = gitremote.NewReader().OriginURL(dir)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "origin")
	})

	t.Run("should fail outside a git repository", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()

		// when
		_, err := gitremote.NewReader().OriginURL(dir)

		// then
		require.Error(t, err)
	})
}
