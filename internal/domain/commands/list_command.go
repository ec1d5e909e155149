package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories"
)

// Kinds of records the list command prints.
const (
	ListGroups       = "groups"
	ListRepositories = "repositories"
	ListBranches     = "branches"
	ListTags         = "tags"
	ListPullRequests = "pull-requests"
	ListHooks        = "hooks"
	ListEntries      = "entries"
)

var errMissingPattern = errors.New("a repository or branch name is required")

// ListKinds returns every supported record kind.
func ListKinds() []string {
	return []string{ListGroups, ListRepositories, ListBranches, ListTags, ListPullRequests, ListHooks, ListEntries}
}

// List is the interface for the list command.
type List interface {
	Execute(ctx context.Context, settings *entities.Settings, opts ListOptions, out io.Writer) (int, error)
}

// ListOptions holds runtime options for a single list run.
type ListOptions struct {
	Kind     string
	Patterns []string
	States   []string // pull request states, OPEN when empty
	Limit    int      // stop after this many records, 0 means all
}

// ListCommand prints one line per record of the requested kind.
type ListCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
}

// NewListCommand creates a new ListCommand.
func NewListCommand(providerRegistry *infraRepos.ProviderRegistry) *ListCommand {
	return &ListCommand{providerRegistry: providerRegistry}
}

// Execute writes the records to out and returns how many were written.
func (it *ListCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts ListOptions,
	out io.Writer,
) (int, error) {
	provider, err := it.providerRegistry.Build(settings)
	if err != nil {
		return 0, err
	}

	printer := &linePrinter{out: out, limit: opts.Limit}
	switch opts.Kind {
	case ListGroups:
		for _, pattern := range patternsOrAll(opts.Patterns) {
			if err = printAll(printer, provider.ListGroups(ctx, pattern), formatGroup); err != nil {
				break
			}
		}
	case ListRepositories:
		for _, pattern := range patternsOrAll(opts.Patterns) {
			if err = printAll(printer, provider.ListRepositories(ctx, pattern), formatRepository); err != nil {
				break
			}
		}
	case ListBranches, ListTags, ListPullRequests, ListHooks:
		err = it.listRepositoryRecords(ctx, provider, opts, printer)
	case ListEntries:
		err = it.listEntries(ctx, provider, opts, printer)
	default:
		return 0, fmt.Errorf("unknown kind %q, expected one of %s", opts.Kind, strings.Join(ListKinds(), ", "))
	}

	if errors.Is(err, errLimitReached) {
		err = nil
	}
	return printer.count, err
}

func (it *ListCommand) listRepositoryRecords(
	ctx context.Context,
	provider repositories.ProviderRepository,
	opts ListOptions,
	printer *linePrinter,
) error {
	if len(opts.Patterns) == 0 {
		return errMissingPattern
	}

	for _, name := range opts.Patterns {
		repo, err := provider.Repository(ctx, name)
		if err != nil {
			return err
		}
		logger.Debugf("Listing %s of %s", opts.Kind, repo.FullName())

		switch opts.Kind {
		case ListBranches:
			err = printAll(printer, provider.ListBranches(ctx, *repo), formatBranch)
		case ListTags:
			err = printTags(ctx, provider, *repo, printer)
		case ListPullRequests:
			filter := entities.PullRequestFilter{States: opts.States}
			err = printAll(printer, provider.ListPullRequests(ctx, *repo, filter), formatPullRequest)
		case ListHooks:
			err = printAll(printer, provider.ListHooks(ctx, *repo), formatHook)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// listEntries expects a branch name followed by optional glob patterns.
func (it *ListCommand) listEntries(
	ctx context.Context,
	provider repositories.ProviderRepository,
	opts ListOptions,
	printer *linePrinter,
) error {
	if len(opts.Patterns) == 0 {
		return errMissingPattern
	}

	branch, err := provider.Branch(ctx, opts.Patterns[0])
	if err != nil {
		return err
	}
	return printAll(printer, provider.ListEntries(ctx, *branch, opts.Patterns[1:]), formatEntry)
}

func printTags(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
	printer *linePrinter,
) error {
	tags, err := provider.ListTags(ctx, repo)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err = printer.print(tag.Name + "\t" + tag.Hash); err != nil {
			return err
		}
	}
	return nil
}

var errLimitReached = errors.New("limit reached")

type linePrinter struct {
	out   io.Writer
	limit int
	count int
}

func (p *linePrinter) print(line string) error {
	if p.limit > 0 && p.count >= p.limit {
		return errLimitReached
	}
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	p.count++
	return nil
}

func printAll[T any](printer *linePrinter, records iter.Seq2[T, error], format func(T) string) error {
	for record, err := range records {
		if err != nil {
			return err
		}
		if err = printer.print(format(record)); err != nil {
			return err
		}
	}
	return nil
}

func patternsOrAll(patterns []string) []string {
	if len(patterns) == 0 {
		return []string{"*"}
	}
	return patterns
}

func formatGroup(group entities.Group) string {
	return group.Name + "\t" + group.DisplayName
}

func formatRepository(repo entities.Repository) string {
	return repo.FullName() + "\t" + repo.Description
}

func formatBranch(branch entities.Branch) string {
	return branch.FullName() + "\t" + branch.Hash
}

func formatPullRequest(pr entities.PullRequest) string {
	return fmt.Sprintf("#%d\t%s\t%s -> %s\t%s", pr.Number, pr.State, pr.Source.Name, pr.Destination.Name, pr.Title)
}

func formatHook(hook entities.Hook) string {
	return hook.ID + "\t" + hook.URL + "\t" + strings.Join(hook.Events, ",")
}

func formatEntry(entry entities.Entry) string {
	if entry.IsDir {
		return entry.Path + "/"
	}
	return entry.Path
}
