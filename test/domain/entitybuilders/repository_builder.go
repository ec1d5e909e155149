//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// RepositoryBuilder helps create test repositories with a fluent interface.
type RepositoryBuilder struct {
	*testkit.BaseBuilder
	group         string
	name          string
	defaultBranch string
	isPrivate     bool
	providerName  string
}

// NewRepositoryBuilder creates a new repository builder with sensible defaults.
func NewRepositoryBuilder() *RepositoryBuilder {
	return &RepositoryBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		group:         "arlac77",
		name:          "sync-test-repository",
		defaultBranch: "master",
		providerName:  "bitbucket",
	}
}

// WithGroup sets the owning group.
func (b *RepositoryBuilder) WithGroup(group string) *RepositoryBuilder {
	b.group = group
	return b
}

// WithName sets the repository slug.
func (b *RepositoryBuilder) WithName(name string) *RepositoryBuilder {
	b.name = name
	return b
}

// WithDefaultBranch sets the main branch name.
func (b *RepositoryBuilder) WithDefaultBranch(branch string) *RepositoryBuilder {
	b.defaultBranch = branch
	return b
}

// WithPrivate marks the repository private.
func (b *RepositoryBuilder) WithPrivate(isPrivate bool) *RepositoryBuilder {
	b.isPrivate = isPrivate
	return b
}

// WithProviderName sets the provider the repository belongs to.
func (b *RepositoryBuilder) WithProviderName(name string) *RepositoryBuilder {
	b.providerName = name
	return b
}

// Build creates the repository (satisfies testkit.Builder interface).
func (b *RepositoryBuilder) Build() interface{} {
	return b.BuildRepository()
}

// BuildRepository creates the repository with a concrete return type.
func (b *RepositoryBuilder) BuildRepository() entities.Repository {
	return entities.Repository{
		Group:         b.group,
		Name:          b.name,
		DefaultBranch: b.defaultBranch,
		IsPrivate:     b.isPrivate,
		ProviderName:  b.providerName,
	}
}

// BuildBranch creates a branch of the repository.
func (b *RepositoryBuilder) BuildBranch(name, hash string) entities.Branch {
	return entities.Branch{Repository: b.BuildRepository(), Name: name, Hash: hash}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RepositoryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.group = "arlac77"
	b.name = "sync-test-repository"
	b.defaultBranch = "master"
	b.isPrivate = false
	b.providerName = "bitbucket"
	return b
}

// Clone creates a deep copy of the builder.
func (b *RepositoryBuilder) Clone() testkit.Builder {
	return &RepositoryBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		group:         b.group,
		name:          b.name,
		defaultBranch: b.defaultBranch,
		isPrivate:     b.isPrivate,
		providerName:  b.providerName,
	}
}
