package commands

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories"
)

var errNothingToResolve = errors.New("no names given and no local clone to read")

// Resolve is the interface for the resolve command.
type Resolve interface {
	Execute(ctx context.Context, settings *entities.Settings, opts ResolveOptions) ([]ResolveResult, error)
}

// ResolveOptions holds runtime options for a single resolve run.
type ResolveOptions struct {
	Names  []string
	Hint   entities.NameHint
	Path   string // If set, the origin URL of this clone is resolved as well
	Lookup bool   // If set, resolved repositories are looked up remotely
}

// ResolveResult is the outcome for one name. Locator is nil when the name
// could not be parsed; Repository is only set for successful lookups.
type ResolveResult struct {
	Name       string
	Locator    *entities.RepositoryLocator
	Repository *entities.Repository
	Err        error
}

// ResolveCommand parses repository names with the configured providers.
type ResolveCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
	remote           repositories.RemoteRepository
}

// NewResolveCommand creates a new ResolveCommand.
func NewResolveCommand(
	providerRegistry *infraRepos.ProviderRegistry,
	remote repositories.RemoteRepository,
) *ResolveCommand {
	return &ResolveCommand{
		providerRegistry: providerRegistry,
		remote:           remote,
	}
}

// Execute resolves every name in order. Lookup failures are reported per
// result; only configuration problems fail the whole run.
func (it *ResolveCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts ResolveOptions,
) ([]ResolveResult, error) {
	names := append([]string(nil), opts.Names...)
	if opts.Path != "" {
		origin, err := it.remote.OriginURL(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read origin of %q: %w", opts.Path, err)
		}
		logger.Debugf("Origin of %q is %s", opts.Path, origin)
		names = append(names, origin)
	}
	if len(names) == 0 {
		return nil, errNothingToResolve
	}

	provider, err := it.providerRegistry.Build(settings)
	if err != nil {
		return nil, err
	}

	results := make([]ResolveResult, 0, len(names))
	for _, name := range names {
		result := ResolveResult{Name: name, Locator: provider.ResolveName(name, opts.Hint)}
		if result.Locator == nil {
			logger.Warnf("Unable to resolve %q", name)
		} else if opts.Lookup && result.Locator.Group != "" && result.Locator.Repository != "" {
			result.Repository, result.Err = provider.Repository(ctx, name)
		}
		results = append(results, result)
	}
	return results, nil
}
