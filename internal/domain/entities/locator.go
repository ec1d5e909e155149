package entities

// NameHint tells the name resolver how to interpret a bare word.
type NameHint string

const (
	HintDefault    NameHint = ""
	HintGroup      NameHint = "group"
	HintRepository NameHint = "repository"
)

// RepositoryLocator holds the parsed components of a repository identifier.
// Branch is only meaningful when HasBranch is set: a "#" without a name
// yields an empty branch, no "#" at all yields HasBranch == false.
type RepositoryLocator struct {
	Base       string
	Group      string
	Repository string
	Branch     string
	HasBranch  bool
}

// FullName returns "group/repository".
func (l RepositoryLocator) FullName() string {
	return l.Group + "/" + l.Repository
}

// String renders the locator back into the shorthand form,
// e.g. "arlac77/sync-test-repository#aBranch".
func (l RepositoryLocator) String() string {
	name := l.Group
	if l.Repository != "" {
		if name != "" {
			name += "/"
		}
		name += l.Repository
	}
	if l.HasBranch {
		name += "#" + l.Branch
	}
	return name
}
