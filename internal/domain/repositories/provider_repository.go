package repositories

import (
	"context"
	"iter"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// ProviderRepository abstracts a repository hosting service. Listings are lazy:
// iteration stops issuing requests as soon as the consumer stops pulling, and
// the first failure is yielded as the last element.
type ProviderRepository interface {
	// Name returns the provider instance identifier (e.g. "bitbucket").
	Name() string

	// Priority orders providers inside an aggregation; higher wins.
	Priority() int

	// MatchesURL returns true if the given remote URL belongs to this provider.
	MatchesURL(url string) bool

	// ResolveName parses a repository identifier into a locator. A nil result
	// means the name is not understood by this provider.
	ResolveName(name string, hint entities.NameHint) *entities.RepositoryLocator

	// ListGroups lists the groups matching a glob pattern ("*" for all).
	ListGroups(ctx context.Context, pattern string) iter.Seq2[entities.Group, error]

	// ListRepositories lists repositories for a "group/glob" pattern.
	ListRepositories(ctx context.Context, pattern string) iter.Seq2[entities.Repository, error]

	// Repository looks up a single repository by any supported name form.
	Repository(ctx context.Context, name string) (*entities.Repository, error)

	// Branch looks up a branch by "repository#branch"; without a fragment
	// the default branch is returned.
	Branch(ctx context.Context, name string) (*entities.Branch, error)

	// ListBranches lists the branches of a repository.
	ListBranches(ctx context.Context, repo entities.Repository) iter.Seq2[entities.Branch, error]

	// ListTags returns all tags of a repository, newest version first.
	ListTags(ctx context.Context, repo entities.Repository) ([]entities.Tag, error)

	// ListPullRequests lists pull requests of a repository matching the filter.
	ListPullRequests(
		ctx context.Context,
		repo entities.Repository,
		filter entities.PullRequestFilter,
	) iter.Seq2[entities.PullRequest, error]

	// ListHooks lists the webhooks registered on a repository.
	ListHooks(ctx context.Context, repo entities.Repository) iter.Seq2[entities.Hook, error]

	// ListEntries lists the entries of a branch matching any of the glob
	// patterns; no patterns means everything.
	ListEntries(ctx context.Context, branch entities.Branch, patterns []string) iter.Seq2[entities.Entry, error]

	// Entry reads the content of a single file.
	Entry(ctx context.Context, branch entities.Branch, path string) (*entities.Entry, error)

	// CreateRepository creates a new repository inside a group.
	CreateRepository(ctx context.Context, group, name string, isPrivate bool) (*entities.Repository, error)

	// CreateBranch creates a branch pointing at the head of another branch.
	CreateBranch(ctx context.Context, from entities.Branch, name string) (*entities.Branch, error)

	// DeleteBranch removes a branch.
	DeleteBranch(ctx context.Context, branch entities.Branch) error

	// OpenPullRequest opens a pull request, or returns the already open one
	// between the same branches.
	OpenPullRequest(
		ctx context.Context,
		source, destination entities.Branch,
		input entities.PullRequestInput,
	) (*entities.PullRequest, error)

	// MergePullRequest merges a pull request with the given strategy.
	MergePullRequest(ctx context.Context, pr entities.PullRequest, strategy string) error
}
