package bitbucket

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

const defaultBase = "https://bitbucket.org/"

var (
	bareWordPattern = regexp.MustCompile(`^\w+$`)
	schemePattern   = regexp.MustCompile(`^[\w+]+:`)
	// scp-like remotes: git@host:group/repo, git+ssh@host:group/repo, git@host/group/repo
	scpPattern = regexp.MustCompile(`^([\w.+-]+)@([^:/@]+)([:/])(.*)$`)
	stashHost  = regexp.MustCompile(`(^|\.)stash\.`)
)

// browseMarkers start the part of a web URL that points inside a repository.
var browseMarkers = map[string]bool{
	"src":           true,
	"browse":        true,
	"commits":       true,
	"branch":        true,
	"branches":      true,
	"pull-requests": true,
	"overview":      true,
}

// NameResolver parses repository identifiers relative to a provider base URL.
// It holds no mutable state and is safe for concurrent use.
type NameResolver struct {
	base     *url.URL
	basePath []string
}

// NewNameResolver creates a resolver whose shorthand names ("group/repo")
// are relative to baseURL. An empty or invalid baseURL falls back to Bitbucket Cloud.
func NewNameResolver(baseURL string) *NameResolver {
	if baseURL == "" {
		baseURL = defaultBase
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		base, _ = url.Parse(defaultBase)
	}
	base.User = nil
	base.Fragment = ""
	base.RawQuery = ""
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &NameResolver{base: base, basePath: splitPath(base.Path)}
}

// ResolveName parses input with the Bitbucket Cloud resolver.
func ResolveName(input string, hint entities.NameHint) *entities.RepositoryLocator {
	return cloudResolver.Resolve(input, hint)
}

var cloudResolver = NewNameResolver(defaultBase) //nolint:gochecknoglobals // stateless

// Base returns the normalized base URL, always ending with "/".
func (r *NameResolver) Base() string {
	return r.base.String()
}

// Host returns the host of the base URL.
func (r *NameResolver) Host() string {
	return r.base.Host
}

// Resolve turns a URL or shorthand into a locator. It returns nil when no
// group/repository structure can be found; it never panics on malformed input.
func (r *NameResolver) Resolve(input string, hint entities.NameHint) *entities.RepositoryLocator {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if bareWordPattern.MatchString(input) {
		if hint == entities.HintRepository {
			return &entities.RepositoryLocator{Repository: input}
		}
		return &entities.RepositoryLocator{Group: input}
	}

	raw, base := r.normalize(input)

	raw, fragment, hasBranch := strings.Cut(raw, "#")

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil
	}

	segments := splitPath(u.Path)
	if strings.EqualFold(u.Host, r.base.Host) && hasPrefix(segments, r.basePath) {
		segments = segments[len(r.basePath):]
		if base == "" && u.Scheme == r.base.Scheme {
			base = r.Base()
		}
	}
	if base == "" {
		base = schemeBase(u)
	}

	group, repository, ok := selectGroupAndRepository(segments)
	if !ok {
		return nil
	}

	locator := &entities.RepositoryLocator{
		Base:       base,
		Group:      group,
		Repository: repository,
		HasBranch:  hasBranch,
	}
	if hasBranch {
		locator.Branch = fragment
		if unescaped, unescapeErr := url.PathUnescape(fragment); unescapeErr == nil {
			locator.Branch = unescaped
		}
	}
	return locator
}

// HostOf returns the host a name refers to, or "" when it cannot be parsed.
// Shorthand names refer to the resolver's own host.
func (r *NameResolver) HostOf(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	raw, _ := r.normalize(input)
	raw, _, _ = strings.Cut(raw, "#")
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// normalize rewrites scp-like and git+ prefixed remotes into plain URLs and
// expands shorthand names. The returned base is non-empty when the input
// form already determines it.
func (r *NameResolver) normalize(input string) (string, string) {
	if m := scpPattern.FindStringSubmatch(input); m != nil {
		user, host, separator, rest := m[1], m[2], m[3], m[4]
		return "https://" + host + "/" + rest, user + "@" + host + separator
	}

	raw := strings.TrimPrefix(input, "git+")
	if !schemePattern.MatchString(raw) {
		return r.Base() + strings.TrimPrefix(raw, "/"), r.Base()
	}
	return raw, ""
}

func schemeBase(u *url.URL) string {
	if u.Scheme == "ssh" {
		return "ssh://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/"
}

// selectGroupAndRepository picks group and repository out of the path
// segments: Server style ".../projects/KEY/repos/slug/...", otherwise the
// last two segments before any browse marker.
func selectGroupAndRepository(segments []string) (string, string, bool) {
	for i := 0; i+3 < len(segments); i++ {
		if segments[i] == "projects" && segments[i+2] == "repos" {
			return segments[i+1], strings.TrimSuffix(segments[i+3], ".git"), true
		}
	}

	for i := 2; i < len(segments); i++ {
		if browseMarkers[segments[i]] {
			segments = segments[:i]
			break
		}
	}

	if len(segments) < 2 { //nolint:mnd // group + repository
		return "", "", false
	}

	group := segments[len(segments)-2]
	repository := strings.TrimSuffix(segments[len(segments)-1], ".git")
	if group == "" || repository == "" {
		return "", "", false
	}
	return group, repository, true
}

// APIEndpoint selects the REST API base for the host of a repository URL:
// Bitbucket Server ("stash.*" hosts) uses https://host/rest/api/1.0,
// everything else the Cloud layout https://api.<host>/2.0.
// It returns "" when no host can be determined.
func APIEndpoint(rawURL string) string {
	host := cloudResolver.HostOf(rawURL)
	if host == "" {
		return ""
	}
	if stashHost.MatchString(host) {
		return "https://" + host + "/rest/api/1.0"
	}
	if !strings.HasPrefix(host, "api.") {
		host = "api." + host
	}
	return "https://" + host + "/2.0"
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func hasPrefix(segments, prefix []string) bool {
	if len(prefix) == 0 || len(segments) < len(prefix) {
		return false
	}
	for i := range prefix {
		if segments[i] != prefix[i] {
			return false
		}
	}
	return true
}
