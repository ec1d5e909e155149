package controllers

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/commands"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// ResolveController handles the "resolve" subcommand.
type ResolveController struct {
	command commands.Resolve
}

// NewResolveController creates a new ResolveController.
func NewResolveController(command commands.Resolve) *ResolveController {
	return &ResolveController{command: command}
}

// GetBind returns the Cobra command metadata for the resolve controller.
func (it *ResolveController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "resolve [names...]",
		Short: "Resolve repository names and URLs",
		Long: `Parse repository identifiers (clone URLs, browse URLs, scp-style remotes
or "group/repository#branch" shorthands) into base, group, repository
and branch.

With --path the origin remote of a local clone is resolved as well,
with --lookup every repository is looked up on the provider.`,
	}
}

// Execute prints one line per name: name, base, group, repository, branch.
func (it *ResolveController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	hint, _ := cmd.Flags().GetString("hint")
	path, _ := cmd.Flags().GetString("path")
	lookup, _ := cmd.Flags().GetBool("lookup")

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	results, err := it.command.Execute(ctx, settings, commands.ResolveOptions{
		Names:  args,
		Hint:   entities.NameHint(hint),
		Path:   path,
		Lookup: lookup,
	})
	if err != nil {
		logger.Errorf("Resolve failed: %v", err)
		return
	}

	out := cmd.OutOrStdout()
	for _, result := range results {
		if result.Locator == nil {
			_, _ = fmt.Fprintf(out, "%s\t<unresolved>\n", result.Name)
			continue
		}
		locator := result.Locator
		branch := "-"
		if locator.HasBranch {
			branch = locator.Branch
		}
		_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n",
			result.Name, locator.Base, locator.Group, locator.Repository, branch)

		switch {
		case result.Err != nil:
			logger.Warnf("Lookup of %q failed: %v", result.Name, result.Err)
		case result.Repository != nil:
			logger.Infof("%s exists on %s (default branch %s)",
				result.Repository.FullName(), result.Repository.ProviderName, result.Repository.DefaultBranch)
		}
	}
}

// AddFlags adds the resolve-specific flags to the given Cobra command.
func (it *ResolveController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("hint", "", "How to read a bare word: group or repository")
	cmd.Flags().String("path", "", "Also resolve the origin remote of this local clone")
	cmd.Flags().Bool("lookup", false, "Look up resolved repositories on the provider")
}
