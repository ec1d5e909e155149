package bitbucket

import (
	"github.com/bmatcuk/doublestar/v4"
	logger "github.com/sirupsen/logrus"
)

// globMatcher matches slash separated names against shell style patterns:
// "*" and "?" stay inside one segment, "**" spans segments, "[...]" and
// "{a,b}" work as in the shell.
type globMatcher struct {
	patterns   []string
	restricted bool
}

func newGlobMatcher(patterns ...string) *globMatcher {
	matcher := &globMatcher{patterns: make([]string, 0, len(patterns))}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		matcher.restricted = true
		if !doublestar.ValidatePattern(pattern) {
			logger.Warnf("Ignoring malformed glob pattern %q", pattern)
			continue
		}
		matcher.patterns = append(matcher.patterns, pattern)
	}
	return matcher
}

// Match reports whether name matches any pattern; no patterns match everything.
func (m *globMatcher) Match(name string) bool {
	if !m.restricted {
		return true
	}
	for _, pattern := range m.patterns {
		if doublestar.MatchUnvalidated(pattern, name) {
			return true
		}
	}
	return false
}
