package bitbucket

// SortTagsDescending exports sortTagsDescending for testing.
var SortTagsDescending = sortTagsDescending //nolint:gochecknoglobals // test export

// GlobMatch exports the glob matcher for testing.
func GlobMatch(name string, patterns ...string) bool {
	return newGlobMatcher(patterns...).Match(name)
}
