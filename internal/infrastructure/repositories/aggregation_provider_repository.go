package repositories

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	domainRepos "github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

const aggregationName = "aggregation"

var errNoProviders = errors.New("no providers configured")

// AggregationProviderRepository combines several providers. Lookups ask the
// providers in descending priority and return the first hit; group and
// repository listings query all providers concurrently. Operations on an
// existing repository go to the provider that owns it.
type AggregationProviderRepository struct {
	providers []domainRepos.ProviderRepository
}

var _ domainRepos.ProviderRepository = (*AggregationProviderRepository)(nil)

// NewAggregationProviderRepository sorts the providers by descending priority.
func NewAggregationProviderRepository(providers []domainRepos.ProviderRepository) *AggregationProviderRepository {
	sorted := append([]domainRepos.ProviderRepository(nil), providers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &AggregationProviderRepository{providers: sorted}
}

// Providers returns the combined providers, highest priority first.
func (a *AggregationProviderRepository) Providers() []domainRepos.ProviderRepository {
	return a.providers
}

func (a *AggregationProviderRepository) Name() string { return aggregationName }

func (a *AggregationProviderRepository) Priority() int {
	if len(a.providers) == 0 {
		return 0
	}
	return a.providers[0].Priority()
}

func (a *AggregationProviderRepository) MatchesURL(url string) bool {
	for _, provider := range a.providers {
		if provider.MatchesURL(url) {
			return true
		}
	}
	return false
}

func (a *AggregationProviderRepository) ResolveName(
	name string,
	hint entities.NameHint,
) *entities.RepositoryLocator {
	for _, provider := range a.providers {
		if locator := provider.ResolveName(name, hint); locator != nil {
			return locator
		}
	}
	return nil
}

func (a *AggregationProviderRepository) ListGroups(
	ctx context.Context,
	pattern string,
) iter.Seq2[entities.Group, error] {
	return aggregate(ctx, a.providers, func(ctx context.Context, p domainRepos.ProviderRepository) iter.Seq2[entities.Group, error] {
		return p.ListGroups(ctx, pattern)
	})
}

func (a *AggregationProviderRepository) ListRepositories(
	ctx context.Context,
	pattern string,
) iter.Seq2[entities.Repository, error] {
	return aggregate(ctx, a.providers, func(ctx context.Context, p domainRepos.ProviderRepository) iter.Seq2[entities.Repository, error] {
		return p.ListRepositories(ctx, pattern)
	})
}

func (a *AggregationProviderRepository) Repository(ctx context.Context, name string) (*entities.Repository, error) {
	return lookup(a.providers, name, func(p domainRepos.ProviderRepository) (*entities.Repository, error) {
		return p.Repository(ctx, name)
	})
}

func (a *AggregationProviderRepository) Branch(ctx context.Context, name string) (*entities.Branch, error) {
	return lookup(a.providers, name, func(p domainRepos.ProviderRepository) (*entities.Branch, error) {
		return p.Branch(ctx, name)
	})
}

func (a *AggregationProviderRepository) ListBranches(
	ctx context.Context,
	repo entities.Repository,
) iter.Seq2[entities.Branch, error] {
	provider, err := a.owner(repo)
	if err != nil {
		return failed[entities.Branch](err)
	}
	return provider.ListBranches(ctx, repo)
}

func (a *AggregationProviderRepository) ListTags(ctx context.Context, repo entities.Repository) ([]entities.Tag, error) {
	provider, err := a.owner(repo)
	if err != nil {
		return nil, err
	}
	return provider.ListTags(ctx, repo)
}

func (a *AggregationProviderRepository) ListPullRequests(
	ctx context.Context,
	repo entities.Repository,
	filter entities.PullRequestFilter,
) iter.Seq2[entities.PullRequest, error] {
	provider, err := a.owner(repo)
	if err != nil {
		return failed[entities.PullRequest](err)
	}
	return provider.ListPullRequests(ctx, repo, filter)
}

func (a *AggregationProviderRepository) ListHooks(
	ctx context.Context,
	repo entities.Repository,
) iter.Seq2[entities.Hook, error] {
	provider, err := a.owner(repo)
	if err != nil {
		return failed[entities.Hook](err)
	}
	return provider.ListHooks(ctx, repo)
}

func (a *AggregationProviderRepository) ListEntries(
	ctx context.Context,
	branch entities.Branch,
	patterns []string,
) iter.Seq2[entities.Entry, error] {
	provider, err := a.owner(branch.Repository)
	if err != nil {
		return failed[entities.Entry](err)
	}
	return provider.ListEntries(ctx, branch, patterns)
}

func (a *AggregationProviderRepository) Entry(
	ctx context.Context,
	branch entities.Branch,
	path string,
) (*entities.Entry, error) {
	provider, err := a.owner(branch.Repository)
	if err != nil {
		return nil, err
	}
	return provider.Entry(ctx, branch, path)
}

// CreateRepository creates the repository with the highest priority provider.
func (a *AggregationProviderRepository) CreateRepository(
	ctx context.Context,
	group, name string,
	isPrivate bool,
) (*entities.Repository, error) {
	if len(a.providers) == 0 {
		return nil, errNoProviders
	}
	return a.providers[0].CreateRepository(ctx, group, name, isPrivate)
}

func (a *AggregationProviderRepository) CreateBranch(
	ctx context.Context,
	from entities.Branch,
	name string,
) (*entities.Branch, error) {
	provider, err := a.owner(from.Repository)
	if err != nil {
		return nil, err
	}
	return provider.CreateBranch(ctx, from, name)
}

func (a *AggregationProviderRepository) DeleteBranch(ctx context.Context, branch entities.Branch) error {
	provider, err := a.owner(branch.Repository)
	if err != nil {
		return err
	}
	return provider.DeleteBranch(ctx, branch)
}

func (a *AggregationProviderRepository) OpenPullRequest(
	ctx context.Context,
	source, destination entities.Branch,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	provider, err := a.owner(destination.Repository)
	if err != nil {
		return nil, err
	}
	return provider.OpenPullRequest(ctx, source, destination, input)
}

func (a *AggregationProviderRepository) MergePullRequest(
	ctx context.Context,
	pr entities.PullRequest,
	strategy string,
) error {
	provider, err := a.owner(pr.Destination.Repository)
	if err != nil {
		return err
	}
	return provider.MergePullRequest(ctx, pr, strategy)
}

// owner returns the provider named by the repository, falling back to the
// highest priority provider for repositories built by hand.
func (a *AggregationProviderRepository) owner(repo entities.Repository) (domainRepos.ProviderRepository, error) {
	if len(a.providers) == 0 {
		return nil, errNoProviders
	}
	if repo.ProviderName == "" {
		return a.providers[0], nil
	}
	for _, provider := range a.providers {
		if provider.Name() == repo.ProviderName {
			return provider, nil
		}
	}
	return nil, fmt.Errorf("repository %q belongs to unknown provider %q", repo.FullName(), repo.ProviderName)
}

// lookup asks the providers in order. Not-found answers move on to the next
// provider; other failures are logged and returned when nobody has a hit.
func lookup[T any](
	providers []domainRepos.ProviderRepository,
	name string,
	find func(domainRepos.ProviderRepository) (*T, error),
) (*T, error) {
	var firstErr error
	for _, provider := range providers {
		result, err := find(provider)
		if err == nil && result != nil {
			return result, nil
		}
		if err != nil && !entities.IsNotFound(err) {
			logger.Warnf("Provider %q failed to look up %q: %v", provider.Name(), name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%q: %w", name, entities.ErrNotFound)
}

// aggregate runs list on every provider concurrently and yields the results
// in arrival order. The first failure cancels the remaining providers and is
// yielded last; a consumer that stops pulling cancels all of them.
func aggregate[T any](
	ctx context.Context,
	providers []domainRepos.ProviderRepository,
	list func(context.Context, domainRepos.ProviderRepository) iter.Seq2[T, error],
) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		group, groupCtx := errgroup.WithContext(ctx)
		results := make(chan T)
		for _, provider := range providers {
			group.Go(func() error {
				for item, err := range list(groupCtx, provider) {
					if err != nil {
						return fmt.Errorf("provider %q: %w", provider.Name(), err)
					}
					select {
					case results <- item:
					case <-groupCtx.Done():
						return nil
					}
				}
				return nil
			})
		}

		done := make(chan error, 1)
		go func() {
			done <- group.Wait()
			close(results)
		}()

		for item := range results {
			if !yield(item, nil) {
				cancel()
				<-done
				return
			}
		}

		if err := <-done; err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

func failed[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}
