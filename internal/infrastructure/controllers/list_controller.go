package controllers

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/commands"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// ListController handles the "list" subcommand.
type ListController struct {
	command commands.List
}

// NewListController creates a new ListController.
func NewListController(command commands.List) *ListController {
	return &ListController{command: command}
}

// GetBind returns the Cobra command metadata for the list controller.
func (it *ListController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "list <" + strings.Join(commands.ListKinds(), "|") + "> [patterns...]",
		Short: "List records from the configured providers",
		Long: `List groups, repositories, branches, tags, pull requests, hooks or
entries. Groups and repositories take glob patterns ("arlac77/sync-*"),
branches, tags, pull requests and hooks take repository names, entries
take a branch name followed by glob patterns ("group/repo#main **/*.go").`,
		Args: cobra.MinimumNArgs(1),
	}
}

// Execute streams the records to standard output.
func (it *ListController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	states, _ := cmd.Flags().GetStringSlice("state")
	limit, _ := cmd.Flags().GetInt("limit")

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	count, err := it.command.Execute(ctx, settings, commands.ListOptions{
		Kind:     args[0],
		Patterns: args[1:],
		States:   states,
		Limit:    limit,
	}, cmd.OutOrStdout())
	if err != nil {
		logger.Errorf("List failed after %d records: %v", count, err)
		return
	}
	logger.Debugf("Listed %d %s", count, args[0])
}

// AddFlags adds the list-specific flags to the given Cobra command.
func (it *ListController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("state", nil, "Pull request states (OPEN, MERGED, SUPERSEDED, DECLINED)")
	cmd.Flags().Int("limit", 0, "Stop after this many records")
}
