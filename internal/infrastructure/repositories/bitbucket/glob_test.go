//go:build unit

package bitbucket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories/bitbucket"
)

func TestGlobMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		patterns []string
		expected bool
	}{
		{name: "should match everything without patterns", path: "a/b/c.txt", expected: true},
		{name: "should match a star inside one segment", path: "sync-test", patterns: []string{"sync-*"}, expected: true},
		{name: "should not cross segments with a star", path: "a/b.go", patterns: []string{"*.go"}, expected: false},
		{name: "should cross segments with a double star", path: "a/b/c.go", patterns: []string{"**/*.go"}, expected: true},
		{name: "should match top level files with a double star", path: "main.go", patterns: []string{"**/*.go"}, expected: true},
		{name: "should match a single character", path: "v1", patterns: []string{"v?"}, expected: true},
		{name: "should match any of several patterns", path: "go.mod", patterns: []string{"*.go", "go.mod"}, expected: true},
		{name: "should treat regexp characters literally", path: "a+b", patterns: []string{"a+b"}, expected: true},
		{name: "should match a character class", path: "ac", patterns: []string{"[ab]c"}, expected: true},
		{name: "should not match outside a character class", path: "cc", patterns: []string{"[ab]c"}, expected: false},
		{name: "should match an alternative", path: "a", patterns: []string{"{a,b}"}, expected: true},
		{name: "should match alternatives of file types", path: "src/main.ts", patterns: []string{"**/*.{js,ts}"}, expected: true},
		{name: "should ignore malformed patterns", path: "a", patterns: []string{"[a"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			matched := bitbucket.GlobMatch(tt.path, tt.patterns...)

			// then
			assert.Equal(t, tt.expected, matched)
		})
	}
}

func TestSortTagsDescending(t *testing.T) {
	t.Parallel()

	t.Run("should fall back to string order for non semantic versions", func(t *testing.T) {
		t.Parallel()

		// given
		tags := []entities.Tag{{Name: "alpha"}, {Name: "beta"}}

		// when
		bitbucket.SortTagsDescending(tags)

		// then
		assert.Equal(t, "beta", tags[0].Name)
		assert.Equal(t, "alpha", tags[1].Name)
	})
}
