package bitbucket

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

const (
	providerName      = "bitbucket"
	defaultBranchName = "master"
	pageLength        = "100"
)

// BitbucketProviderRepository implements repositories.ProviderRepository for
// Bitbucket Cloud.
type BitbucketProviderRepository struct {
	name     string
	priority int
	resolver *NameResolver
	fetcher  *PaginatedFetcher

	mu     sync.Mutex
	groups map[string]*groupCache
}

// groupCache remembers the repositories of one group once a complete
// listing has been loaded.
type groupCache struct {
	mu           sync.Mutex
	loaded       bool
	repositories map[string]entities.Repository
}

// NewBitbucketProviderRepository creates a provider for one configured instance.
func NewBitbucketProviderRepository(
	config entities.ProviderConfig,
	fetcher repositories.Fetcher,
	credentials repositories.CredentialProvider,
) *BitbucketProviderRepository {
	apiBase := config.API
	if apiBase == "" {
		apiBase = APIEndpoint(config.URL)
	}
	if apiBase == "" {
		apiBase = entities.DefaultBitbucketAPI
	}

	name := config.Name
	if name == "" {
		name = providerName
	}

	return &BitbucketProviderRepository{
		name:     name,
		priority: config.Priority,
		resolver: NewNameResolver(config.URL),
		fetcher:  NewPaginatedFetcher(fetcher, credentials, apiBase),
		groups:   make(map[string]*groupCache),
	}
}

func (p *BitbucketProviderRepository) Name() string  { return p.name }
func (p *BitbucketProviderRepository) Priority() int { return p.priority }

func (p *BitbucketProviderRepository) MatchesURL(rawURL string) bool {
	host := p.resolver.HostOf(rawURL)
	return host != "" && strings.EqualFold(host, p.resolver.Host())
}

func (p *BitbucketProviderRepository) ResolveName(
	name string,
	hint entities.NameHint,
) *entities.RepositoryLocator {
	return p.resolver.Resolve(name, hint)
}

// ListGroups lists the workspaces visible to the credentials.
func (p *BitbucketProviderRepository) ListGroups(
	ctx context.Context,
	pattern string,
) iter.Seq2[entities.Group, error] {
	matcher := newGlobMatcher(pattern)
	groups := mapRecords(p.fetcher.Records(ctx, "workspaces?pagelen="+pageLength), groupMappings, toGroup)
	return func(yield func(entities.Group, error) bool) {
		for group, err := range groups {
			if err != nil {
				yield(entities.Group{}, err)
				return
			}
			if matcher.Match(group.Name) && !yield(group, nil) {
				return
			}
		}
	}
}

// ListRepositories lists repositories for "group", "group/glob" or
// "glob/glob"; a group glob is expanded through ListGroups.
func (p *BitbucketProviderRepository) ListRepositories(
	ctx context.Context,
	pattern string,
) iter.Seq2[entities.Repository, error] {
	return func(yield func(entities.Repository, error) bool) {
		groupPattern, repositoryPattern, found := strings.Cut(pattern, "/")
		if !found || repositoryPattern == "" {
			repositoryPattern = "*"
		}
		if groupPattern == "" {
			yield(entities.Repository{}, fmt.Errorf("invalid repository pattern %q", pattern))
			return
		}

		matcher := newGlobMatcher(repositoryPattern)
		for group, err := range p.expandGroups(ctx, groupPattern) {
			if err != nil {
				yield(entities.Repository{}, err)
				return
			}
			for repo, listErr := range p.groupRepositories(ctx, group) {
				if listErr != nil {
					yield(entities.Repository{}, listErr)
					return
				}
				if matcher.Match(repo.Name) && !yield(repo, nil) {
					return
				}
			}
		}
	}
}

func (p *BitbucketProviderRepository) expandGroups(ctx context.Context, pattern string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !strings.ContainsAny(pattern, "*?") {
			yield(pattern, nil)
			return
		}
		for group, err := range p.ListGroups(ctx, pattern) {
			if !yield(group.Name, err) || err != nil {
				return
			}
		}
	}
}

func (p *BitbucketProviderRepository) groupRepositories(
	ctx context.Context,
	group string,
) iter.Seq2[entities.Repository, error] {
	records := p.fetcher.Records(ctx, "repositories/"+escapePath(group)+"?pagelen="+pageLength)
	return mapRecords(records, repositoryMappings, func(attrs entities.Attributes) entities.Repository {
		repo := toRepository(attrs, p.name)
		if repo.Group == "" {
			repo.Group = group
		}
		return repo
	})
}

// Repository looks up a repository. The first lookup inside a group loads
// the complete group listing; later lookups are answered from it.
func (p *BitbucketProviderRepository) Repository(ctx context.Context, name string) (*entities.Repository, error) {
	locator := p.resolver.Resolve(name, entities.HintRepository)
	if locator == nil || locator.Group == "" || locator.Repository == "" {
		return nil, fmt.Errorf("repository %q: %w", name, entities.ErrNotFound)
	}

	cache := p.groupCache(locator.Group)
	if err := p.loadGroup(ctx, locator.Group, cache); err != nil {
		return nil, err
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	repo, ok := cache.repositories[locator.Repository]
	if !ok {
		return nil, fmt.Errorf("repository %q: %w", locator.FullName(), entities.ErrNotFound)
	}
	return &repo, nil
}

func (p *BitbucketProviderRepository) groupCache(group string) *groupCache {
	p.mu.Lock()
	defer p.mu.Unlock()

	cache, ok := p.groups[group]
	if !ok {
		cache = &groupCache{repositories: make(map[string]entities.Repository)}
		p.groups[group] = cache
	}
	return cache
}

func (p *BitbucketProviderRepository) loadGroup(ctx context.Context, group string, cache *groupCache) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.loaded {
		return nil
	}

	loaded := make(map[string]entities.Repository)
	for repo, err := range p.groupRepositories(ctx, group) {
		if err != nil {
			if entities.IsNotFound(err) {
				return fmt.Errorf("group %q: %w", group, entities.ErrNotFound)
			}
			return fmt.Errorf("failed to load repositories of %q: %w", group, err)
		}
		loaded[repo.Name] = repo
	}

	cache.repositories = loaded
	cache.loaded = true
	logger.Debugf("Loaded %d repositories of group %q", len(loaded), group)
	return nil
}

// Branch looks up "repository#branch"; without a branch name the default
// branch of the repository is used.
func (p *BitbucketProviderRepository) Branch(ctx context.Context, name string) (*entities.Branch, error) {
	locator := p.resolver.Resolve(name, entities.HintRepository)
	if locator == nil {
		return nil, fmt.Errorf("branch %q: %w", name, entities.ErrNotFound)
	}

	repo, err := p.Repository(ctx, locator.FullName())
	if err != nil {
		return nil, err
	}

	branchName := locator.Branch
	if branchName == "" {
		branchName = repo.DefaultBranch
	}
	if branchName == "" {
		branchName = defaultBranchName
	}

	var raw map[string]any
	if err = p.fetcher.FetchJSON(
		ctx, http.MethodGet, repositoryPath(*repo, "refs", "branches", branchName), nil, &raw,
	); err != nil {
		if entities.IsNotFound(err) {
			return nil, fmt.Errorf("branch %q of %q: %w", branchName, repo.FullName(), entities.ErrNotFound)
		}
		return nil, err
	}

	branch := toBranch(refMappings.Apply(raw), *repo)
	return &branch, nil
}

func (p *BitbucketProviderRepository) ListBranches(
	ctx context.Context,
	repo entities.Repository,
) iter.Seq2[entities.Branch, error] {
	records := p.fetcher.Records(ctx, repositoryPath(repo, "refs", "branches")+"?pagelen="+pageLength)
	return mapRecords(records, refMappings, func(attrs entities.Attributes) entities.Branch {
		return toBranch(attrs, repo)
	})
}

func (p *BitbucketProviderRepository) ListTags(ctx context.Context, repo entities.Repository) ([]entities.Tag, error) {
	records := p.fetcher.Records(ctx, repositoryPath(repo, "refs", "tags")+"?pagelen="+pageLength)
	tags := make([]entities.Tag, 0)
	for tag, err := range mapRecords(records, refMappings, func(attrs entities.Attributes) entities.Tag {
		return toTag(attrs, repo)
	}) {
		if err != nil {
			return nil, fmt.Errorf("failed to list tags of %q: %w", repo.FullName(), err)
		}
		tags = append(tags, tag)
	}

	sortTagsDescending(tags)
	return tags, nil
}

// ListPullRequests lists the pull requests in the given states (OPEN when
// none are requested) and applies the branch filters client side.
func (p *BitbucketProviderRepository) ListPullRequests(
	ctx context.Context,
	repo entities.Repository,
	filter entities.PullRequestFilter,
) iter.Seq2[entities.PullRequest, error] {
	return func(yield func(entities.PullRequest, error) bool) {
		query := url.Values{}
		for _, state := range filter.States {
			if !entities.IsValidPullRequestState(state) {
				yield(entities.PullRequest{}, fmt.Errorf("invalid pull request state %q", state))
				return
			}
			query.Add("state", state)
		}
		query.Set("pagelen", "50")

		records := p.fetcher.Records(ctx, repositoryPath(repo, "pullrequests")+"?"+query.Encode())
		prs := mapRecords(records, pullRequestMappings, func(attrs entities.Attributes) entities.PullRequest {
			return toPullRequest(attrs, repo)
		})
		for pr, err := range prs {
			if err != nil {
				yield(entities.PullRequest{}, err)
				return
			}
			if filter.Matches(pr) && !yield(pr, nil) {
				return
			}
		}
	}
}

func (p *BitbucketProviderRepository) ListHooks(
	ctx context.Context,
	repo entities.Repository,
) iter.Seq2[entities.Hook, error] {
	return mapRecords(p.fetcher.Records(ctx, repositoryPath(repo, "hooks")), hookMappings, toHook)
}

// ListEntries walks the tree of a branch breadth first, descending into a
// directory only when the consumer keeps pulling.
func (p *BitbucketProviderRepository) ListEntries(
	ctx context.Context,
	branch entities.Branch,
	patterns []string,
) iter.Seq2[entities.Entry, error] {
	return func(yield func(entities.Entry, error) bool) {
		matcher := newGlobMatcher(patterns...)
		pending := []string{""}
		for len(pending) > 0 {
			dir := pending[0]
			pending = pending[1:]

			records := p.fetcher.Records(ctx, sourcePath(branch, dir)+"/?pagelen="+pageLength)
			for entry, err := range mapRecords(records, entryMappings, toEntry) {
				if err != nil {
					yield(entities.Entry{}, err)
					return
				}
				if entry.IsDir {
					pending = append(pending, entry.Path)
				}
				if matcher.Match(entry.Path) && !yield(entry, nil) {
					return
				}
			}
		}
	}
}

func (p *BitbucketProviderRepository) Entry(
	ctx context.Context,
	branch entities.Branch,
	path string,
) (*entities.Entry, error) {
	content, err := p.fetcher.FetchRaw(ctx, sourcePath(branch, path))
	if err != nil {
		if entities.IsNotFound(err) {
			return nil, fmt.Errorf("entry %q of %q: %w", path, branch.FullName(), entities.ErrNotFound)
		}
		return nil, err
	}
	return &entities.Entry{Path: path, Content: content}, nil
}

func (p *BitbucketProviderRepository) CreateRepository(
	ctx context.Context,
	group, name string,
	isPrivate bool,
) (*entities.Repository, error) {
	body := map[string]any{"scm": "git", "is_private": isPrivate}

	var raw map[string]any
	target := "repositories/" + escapePath(group) + "/" + escapePath(name)
	if err := p.fetcher.FetchJSON(ctx, http.MethodPost, target, body, &raw); err != nil {
		return nil, fmt.Errorf("failed to create repository %s/%s: %w", group, name, err)
	}

	repo := toRepository(repositoryMappings.Apply(raw), p.name)
	if repo.Group == "" {
		repo.Group = group
	}
	if repo.Name == "" {
		repo.Name = name
	}

	cache := p.groupCache(repo.Group)
	cache.mu.Lock()
	if cache.loaded {
		cache.repositories[repo.Name] = repo
	}
	cache.mu.Unlock()

	logger.Infof("Created repository %s", repo.FullName())
	return &repo, nil
}

func (p *BitbucketProviderRepository) CreateBranch(
	ctx context.Context,
	from entities.Branch,
	name string,
) (*entities.Branch, error) {
	hash := from.Hash
	if hash == "" {
		head, err := p.Branch(ctx, from.FullName())
		if err != nil {
			return nil, err
		}
		hash = head.Hash
	}

	body := map[string]any{
		"name":   name,
		"target": map[string]any{"hash": hash},
	}
	var raw map[string]any
	if err := p.fetcher.FetchJSON(
		ctx, http.MethodPost, repositoryPath(from.Repository, "refs", "branches"), body, &raw,
	); err != nil {
		return nil, fmt.Errorf("failed to create branch %q in %q: %w", name, from.Repository.FullName(), err)
	}

	branch := toBranch(refMappings.Apply(raw), from.Repository)
	if branch.Name == "" {
		branch.Name = name
	}
	if branch.Hash == "" {
		branch.Hash = hash
	}
	return &branch, nil
}

func (p *BitbucketProviderRepository) DeleteBranch(ctx context.Context, branch entities.Branch) error {
	target := repositoryPath(branch.Repository, "refs", "branches", branch.Name)
	if err := p.fetcher.FetchJSON(ctx, http.MethodDelete, target, nil, nil); err != nil {
		return fmt.Errorf("failed to delete branch %q: %w", branch.FullName(), err)
	}
	return nil
}

// OpenPullRequest returns the open pull request between source and
// destination when there is one, otherwise it creates it.
func (p *BitbucketProviderRepository) OpenPullRequest(
	ctx context.Context,
	source, destination entities.Branch,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	filter := entities.PullRequestFilter{
		Source:      &source,
		Destination: &destination,
		States:      []string{entities.PullRequestOpen},
	}
	for pr, err := range p.ListPullRequests(ctx, destination.Repository, filter) {
		if err != nil {
			return nil, fmt.Errorf("failed to look up existing pull requests: %w", err)
		}
		logger.Infof("Pull request #%d from %s to %s is already open", pr.Number, source.Name, destination.Name)
		return &pr, nil
	}

	sourceRef := map[string]any{"branch": map[string]any{"name": source.Name}}
	if source.Repository.FullName() != destination.Repository.FullName() {
		sourceRef["repository"] = map[string]any{"full_name": source.Repository.FullName()}
	}
	body := map[string]any{
		"title":               input.Title,
		"description":         input.Description,
		"source":              sourceRef,
		"destination":         map[string]any{"branch": map[string]any{"name": destination.Name}},
		"close_source_branch": input.CloseSourceBranch,
	}

	var raw map[string]any
	if err := p.fetcher.FetchJSON(
		ctx, http.MethodPost, repositoryPath(destination.Repository, "pullrequests"), body, &raw,
	); err != nil {
		return nil, fmt.Errorf("failed to open pull request from %q: %w", source.FullName(), err)
	}

	pr := toPullRequest(pullRequestMappings.Apply(raw), destination.Repository)
	logger.Infof("Opened pull request #%d: %s", pr.Number, pr.URL)
	return &pr, nil
}

func (p *BitbucketProviderRepository) MergePullRequest(
	ctx context.Context,
	pr entities.PullRequest,
	strategy string,
) error {
	if !entities.IsValidMergeStrategy(strategy) {
		return fmt.Errorf("invalid merge strategy %q", strategy)
	}
	if pr.Number <= 0 {
		return errors.New("pull request number is required")
	}

	body := map[string]any{
		"close_source_branch": false,
		"merge_strategy":      strategy,
	}
	target := repositoryPath(pr.Destination.Repository, "pullrequests", strconv.Itoa(pr.Number), "merge")
	if err := p.fetcher.FetchJSON(ctx, http.MethodPost, target, body, nil); err != nil {
		return fmt.Errorf("failed to merge pull request #%d: %w", pr.Number, err)
	}
	return nil
}

func repositoryPath(repo entities.Repository, parts ...string) string {
	var sb strings.Builder
	sb.WriteString("repositories/")
	sb.WriteString(escapePath(repo.Group))
	sb.WriteString("/")
	sb.WriteString(escapePath(repo.Name))
	for _, part := range parts {
		sb.WriteString("/")
		sb.WriteString(escapePath(part))
	}
	return sb.String()
}

func sourcePath(branch entities.Branch, path string) string {
	ref := branch.Hash
	if ref == "" {
		ref = branch.Name
	}
	target := repositoryPath(branch.Repository, "src", ref)
	if path = strings.Trim(path, "/"); path != "" {
		target += "/" + escapePath(path)
	}
	return target
}

// escapePath escapes every segment of a slash separated path.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
