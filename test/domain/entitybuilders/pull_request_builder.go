//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// PullRequestBuilder helps create test pull requests with a fluent interface.
type PullRequestBuilder struct {
	*testkit.BaseBuilder
	repository  *RepositoryBuilder
	number      int
	title       string
	state       string
	source      string
	destination string
}

// NewPullRequestBuilder creates a new pull request builder with sensible defaults.
func NewPullRequestBuilder() *PullRequestBuilder {
	return &PullRequestBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		repository:  NewRepositoryBuilder(),
		number:      1,
		title:       "test pull request",
		state:       entities.PullRequestOpen,
		source:      "feature",
		destination: "master",
	}
}

// WithRepository sets the repository both branches belong to.
func (b *PullRequestBuilder) WithRepository(repository *RepositoryBuilder) *PullRequestBuilder {
	b.repository = repository
	return b
}

// WithNumber sets the pull request number.
func (b *PullRequestBuilder) WithNumber(number int) *PullRequestBuilder {
	b.number = number
	return b
}

// WithTitle sets the title.
func (b *PullRequestBuilder) WithTitle(title string) *PullRequestBuilder {
	b.title = title
	return b
}

// WithState sets the state (OPEN, MERGED, ...).
func (b *PullRequestBuilder) WithState(state string) *PullRequestBuilder {
	b.state = state
	return b
}

// WithBranches sets source and destination branch names.
func (b *PullRequestBuilder) WithBranches(source, destination string) *PullRequestBuilder {
	b.source = source
	b.destination = destination
	return b
}

// Build creates the pull request (satisfies testkit.Builder interface).
func (b *PullRequestBuilder) Build() interface{} {
	return b.BuildPullRequest()
}

// BuildPullRequest creates the pull request with a concrete return type.
func (b *PullRequestBuilder) BuildPullRequest() entities.PullRequest {
	return entities.PullRequest{
		Number:      b.number,
		Title:       b.title,
		State:       b.state,
		Source:      b.repository.BuildBranch(b.source, ""),
		Destination: b.repository.BuildBranch(b.destination, ""),
	}
}
