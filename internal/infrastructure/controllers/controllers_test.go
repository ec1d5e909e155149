//go:build unit

package controllers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/commands"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/infrastructure/controllers"
	"github.com/rios0rios0/bitbucket-provider/test/domain/commanddoubles"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bitbucket-provider.yaml")
	content := "providers:\n  - type: bitbucket\n    authentication:\n      token: abc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newCommand(t *testing.T, addFlags func(*cobra.Command)) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", writeConfig(t), "")
	addFlags(cmd)
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

func TestResolveController(t *testing.T) {
	t.Parallel()

	t.Run("should pass names and flags to the command and print locators", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{Results: []commands.ResolveResult{
			{
				Name: "arlac77/sync-test-repository#main",
				Locator: &entities.RepositoryLocator{
					Base: "https://bitbucket.org/", Group: "arlac77", Repository: "sync-test-repository",
					Branch: "main", HasBranch: true,
				},
			},
			{Name: "https://bitbucket.org"},
		}}
		controller := controllers.NewResolveController(stub)
		cmd, out := newCommand(t, controller.AddFlags)
		require.NoError(t, cmd.Flags().Set("hint", "repository"))

		// when
		controller.Execute(cmd, []string{"arlac77/sync-test-repository#main", "https://bitbucket.org"})

		// then
		assert.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, entities.HintRepository, stub.LastOpts.Hint)
		require.NotNil(t, stub.LastSettings)
		assert.Equal(t, "bitbucket", stub.LastSettings.Providers[0].Name)
		assert.Equal(t,
			"arlac77/sync-test-repository#main\thttps://bitbucket.org/\tarlac77\tsync-test-repository\tmain\n"+
				"https://bitbucket.org\t<unresolved>\n",
			out.String(),
		)
	})

	t.Run("should not run the command when the config is invalid", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubResolveCommand{}
		controller := controllers.NewResolveController(stub)
		cmd, _ := newCommand(t, controller.AddFlags)
		require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))

		// when
		controller.Execute(cmd, []string{"a/b"})

		// then
		assert.Equal(t, 0, stub.ExecuteCallCount)
	})
}

func TestListController(t *testing.T) {
	t.Parallel()

	t.Run("should split kind and patterns and stream the output", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubListCommand{Lines: []string{"arlac77\tMarkus Felten"}}
		controller := controllers.NewListController(stub)
		cmd, out := newCommand(t, controller.AddFlags)
		require.NoError(t, cmd.Flags().Set("limit", "5"))
		require.NoError(t, cmd.Flags().Set("state", "OPEN,MERGED"))

		// when
		controller.Execute(cmd, []string{commands.ListGroups, "arl*"})

		// then
		assert.Equal(t, commands.ListOptions{
			Kind:     commands.ListGroups,
			Patterns: []string{"arl*"},
			States:   []string{"OPEN", "MERGED"},
			Limit:    5,
		}, stub.LastOpts)
		assert.Equal(t, "arlac77\tMarkus Felten\n", out.String())
	})

	t.Run("should describe every kind in its usage", func(t *testing.T) {
		t.Parallel()

		// given
		controller := controllers.NewListController(&commanddoubles.StubListCommand{})

		// when
		bind := controller.GetBind()

		// then
		for _, kind := range commands.ListKinds() {
			assert.Contains(t, bind.Use, kind)
		}
	})
}
