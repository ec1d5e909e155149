package bitbucket

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// sortTagsDescending sorts tags newest version first. Names that are not
// semantic versions fall back to string comparison.
func sortTagsDescending(tags []entities.Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		v1 := normalizeVersion(tags[i].Name)
		v2 := normalizeVersion(tags[j].Name)

		if semver.IsValid(v1) && semver.IsValid(v2) {
			return semver.Compare(v1, v2) > 0
		}

		return tags[i].Name > tags[j].Name
	})
}

// normalizeVersion ensures version has 'v' prefix for semver compatibility
func normalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
