//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

// SpyProviderRepository implements repositories.ProviderRepository as a configurable spy.
type SpyProviderRepository struct {
	// --- identity ---
	ProviderName     string
	ProviderPriority int
	Host             string
	Locators         map[string]*entities.RepositoryLocator

	// --- listings ---
	Groups       []entities.Group
	Repositories []entities.Repository
	Branches     []entities.Branch
	Tags         []entities.Tag
	PullRequests []entities.PullRequest
	Hooks        []entities.Hook
	Entries      []entities.Entry
	ListErr      error

	// --- lookups ---
	RepositoryByName map[string]entities.Repository
	BranchByName     map[string]entities.Branch
	LookupErr        error

	// --- mutations ---
	MutationErr     error
	CreatedBranches []string
	DeletedBranches []string
	OpenedPRs       []entities.PullRequestInput
	MergedPRs       []int

	mu           sync.Mutex
	LookedUp     []string
	ListedGroups []string
}

var _ repositories.ProviderRepository = (*SpyProviderRepository)(nil)

func (p *SpyProviderRepository) Name() string  { return p.ProviderName }
func (p *SpyProviderRepository) Priority() int { return p.ProviderPriority }

func (p *SpyProviderRepository) MatchesURL(url string) bool {
	return p.Host != "" && strings.Contains(url, p.Host)
}

func (p *SpyProviderRepository) ResolveName(name string, _ entities.NameHint) *entities.RepositoryLocator {
	return p.Locators[name]
}

func (p *SpyProviderRepository) ListGroups(_ context.Context, pattern string) iter.Seq2[entities.Group, error] {
	p.mu.Lock()
	p.ListedGroups = append(p.ListedGroups, pattern)
	p.mu.Unlock()
	return sequence(p.Groups, p.ListErr)
}

func (p *SpyProviderRepository) ListRepositories(
	_ context.Context,
	_ string,
) iter.Seq2[entities.Repository, error] {
	return sequence(p.Repositories, p.ListErr)
}

func (p *SpyProviderRepository) Repository(_ context.Context, name string) (*entities.Repository, error) {
	p.record(name)
	if p.LookupErr != nil {
		return nil, p.LookupErr
	}
	if repo, ok := p.RepositoryByName[name]; ok {
		return &repo, nil
	}
	return nil, entities.ErrNotFound
}

func (p *SpyProviderRepository) Branch(_ context.Context, name string) (*entities.Branch, error) {
	p.record(name)
	if p.LookupErr != nil {
		return nil, p.LookupErr
	}
	if branch, ok := p.BranchByName[name]; ok {
		return &branch, nil
	}
	return nil, entities.ErrNotFound
}

func (p *SpyProviderRepository) ListBranches(
	_ context.Context,
	_ entities.Repository,
) iter.Seq2[entities.Branch, error] {
	return sequence(p.Branches, p.ListErr)
}

func (p *SpyProviderRepository) ListTags(_ context.Context, _ entities.Repository) ([]entities.Tag, error) {
	return p.Tags, p.ListErr
}

func (p *SpyProviderRepository) ListPullRequests(
	_ context.Context,
	_ entities.Repository,
	filter entities.PullRequestFilter,
) iter.Seq2[entities.PullRequest, error] {
	matching := make([]entities.PullRequest, 0, len(p.PullRequests))
	for _, pr := range p.PullRequests {
		if filter.Matches(pr) {
			matching = append(matching, pr)
		}
	}
	return sequence(matching, p.ListErr)
}

func (p *SpyProviderRepository) ListHooks(_ context.Context, _ entities.Repository) iter.Seq2[entities.Hook, error] {
	return sequence(p.Hooks, p.ListErr)
}

func (p *SpyProviderRepository) ListEntries(
	_ context.Context,
	_ entities.Branch,
	_ []string,
) iter.Seq2[entities.Entry, error] {
	return sequence(p.Entries, p.ListErr)
}

func (p *SpyProviderRepository) Entry(_ context.Context, _ entities.Branch, path string) (*entities.Entry, error) {
	for _, entry := range p.Entries {
		if entry.Path == path {
			return &entry, nil
		}
	}
	return nil, entities.ErrNotFound
}

func (p *SpyProviderRepository) CreateRepository(
	_ context.Context,
	group, name string,
	isPrivate bool,
) (*entities.Repository, error) {
	if p.MutationErr != nil {
		return nil, p.MutationErr
	}
	return &entities.Repository{Group: group, Name: name, IsPrivate: isPrivate, ProviderName: p.ProviderName}, nil
}

func (p *SpyProviderRepository) CreateBranch(
	_ context.Context,
	from entities.Branch,
	name string,
) (*entities.Branch, error) {
	p.CreatedBranches = append(p.CreatedBranches, name)
	if p.MutationErr != nil {
		return nil, p.MutationErr
	}
	return &entities.Branch{Repository: from.Repository, Name: name, Hash: from.Hash}, nil
}

func (p *SpyProviderRepository) DeleteBranch(_ context.Context, branch entities.Branch) error {
	p.DeletedBranches = append(p.DeletedBranches, branch.Name)
	return p.MutationErr
}

func (p *SpyProviderRepository) OpenPullRequest(
	_ context.Context,
	source, destination entities.Branch,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	p.OpenedPRs = append(p.OpenedPRs, input)
	if p.MutationErr != nil {
		return nil, p.MutationErr
	}
	return &entities.PullRequest{
		Number:      len(p.OpenedPRs),
		Title:       input.Title,
		State:       entities.PullRequestOpen,
		Source:      source,
		Destination: destination,
	}, nil
}

func (p *SpyProviderRepository) MergePullRequest(_ context.Context, pr entities.PullRequest, _ string) error {
	p.MergedPRs = append(p.MergedPRs, pr.Number)
	return p.MutationErr
}

func (p *SpyProviderRepository) record(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LookedUp = append(p.LookedUp, name)
}

// sequence yields items and then err, if any.
func sequence[T any](items []T, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
		if err != nil {
			var zero T
			yield(zero, err)
		}
	}
}
