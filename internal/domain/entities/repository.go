package entities

import "strings"

// Group is the namespace owning repositories (a Bitbucket workspace,
// user or Server project).
type Group struct {
	ID          string
	Name        string
	DisplayName string
	AvatarURL   string
	HomePageURL string
	IsPrivate   bool
}

// Repository represents a repository hosted by a provider.
type Repository struct {
	ID            string
	Name          string
	Group         string
	Description   string
	HomePageURL   string
	Language      string
	DefaultBranch string
	IsPrivate     bool
	Size          int64
	CloneURLs     []string
	ProviderName  string
}

// FullName returns the "group/name" slug of the repository.
func (r Repository) FullName() string {
	return r.Group + "/" + r.Name
}

// Branch is a named head inside a repository.
type Branch struct {
	Repository Repository
	Name       string
	Hash       string
}

// FullName returns the "group/repository#branch" identifier.
func (b Branch) FullName() string {
	return b.Repository.FullName() + "#" + b.Name
}

// Equals reports whether both branches point at the same repository and name.
func (b Branch) Equals(other Branch) bool {
	return b.Repository.FullName() == other.Repository.FullName() && b.Name == other.Name
}

// Tag is a named, immutable ref inside a repository.
type Tag struct {
	Repository Repository
	Name       string
	Hash       string
}

// Hook is a webhook registered on a repository.
type Hook struct {
	ID          string
	Name        string
	URL         string
	Description string
	Active      bool
	Events      []string
}

// HasEvent reports whether the hook fires on the given event.
func (h Hook) HasEvent(event string) bool {
	for _, e := range h.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Entry is a file or directory inside a branch.
type Entry struct {
	Path    string
	IsDir   bool
	Content []byte
}

// Name returns the last path segment of the entry.
func (e Entry) Name() string {
	trimmed := strings.TrimSuffix(e.Path, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
