package bitbucket

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

//nolint:gochecknoglobals // immutable translation tables
var (
	groupMappings = entities.AttributeMappings{
		{External: "uuid", Internal: "id"},
		{External: "slug", Internal: "name"},
		{External: "username", Internal: "name"},
		{External: "nickname", Internal: "name"},
		{External: "display_name", Internal: "displayName"},
		{External: "name", Internal: "displayName"},
		{External: "links.avatar.href", Internal: "avatarURL"},
		{External: "website", Internal: "homePageURL"},
		{External: "links.html.href", Internal: "homePageURL"},
		{External: "is_private", Internal: "isPrivate"},
	}

	repositoryMappings = entities.AttributeMappings{
		{External: "uuid", Internal: "id"},
		{External: "slug", Internal: "name"},
		{External: "name", Internal: "name"},
		{External: "full_name", Internal: "fullName"},
		{External: "workspace.slug", Internal: "group"},
		{External: "owner.username", Internal: "group"},
		{External: "owner.nickname", Internal: "group"},
		{External: "description", Internal: "description"},
		{External: "website", Internal: "homePageURL"},
		{External: "links.html.href", Internal: "homePageURL"},
		{External: "language", Internal: "language"},
		{External: "mainbranch.name", Internal: "defaultBranch"},
		{External: "is_private", Internal: "isPrivate"},
		{External: "size", Internal: "size"},
		{External: "links.clone", Internal: "clone"},
	}

	hookMappings = entities.AttributeMappings{
		{External: "uuid", Internal: "id"},
		{External: "description", Internal: "description"},
		{External: "url", Internal: "url"},
		{External: "active", Internal: "active"},
		{External: "events", Internal: "events"},
	}

	pullRequestMappings = entities.AttributeMappings{
		{External: "id", Internal: "number"},
		{External: "title", Internal: "title"},
		{External: "description", Internal: "description"},
		{External: "summary.raw", Internal: "description"},
		{External: "state", Internal: "state"},
		{External: "links.html.href", Internal: "url"},
		{External: "close_source_branch", Internal: "closeSourceBranch"},
		{External: "task_count", Internal: "taskCount"},
		{External: "source.branch.name", Internal: "sourceBranch"},
		{External: "source.commit.hash", Internal: "sourceHash"},
		{External: "source.repository.full_name", Internal: "sourceRepository"},
		{External: "destination.branch.name", Internal: "destinationBranch"},
		{External: "destination.commit.hash", Internal: "destinationHash"},
		{External: "destination.repository.full_name", Internal: "destinationRepository"},
	}

	refMappings = entities.AttributeMappings{
		{External: "name", Internal: "name"},
		{External: "target.hash", Internal: "hash"},
	}

	entryMappings = entities.AttributeMappings{
		{External: "path", Internal: "path"},
		{External: "type", Internal: "type"},
	}
)

const directoryEntryType = "commit_directory"

func decodeAttributes(table entities.AttributeMappings, raw json.RawMessage) (entities.Attributes, error) {
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return table.Apply(object), nil
}

func toGroup(attrs entities.Attributes) entities.Group {
	return entities.Group{
		ID:          attrs.UUID("id"),
		Name:        attrs.String("name"),
		DisplayName: attrs.String("displayName"),
		AvatarURL:   attrs.String("avatarURL"),
		HomePageURL: attrs.String("homePageURL"),
		IsPrivate:   attrs.Bool("isPrivate"),
	}
}

func toRepository(attrs entities.Attributes, providerName string) entities.Repository {
	repo := entities.Repository{
		ID:            attrs.UUID("id"),
		Name:          attrs.String("name"),
		Group:         attrs.String("group"),
		Description:   attrs.String("description"),
		HomePageURL:   attrs.String("homePageURL"),
		Language:      attrs.String("language"),
		DefaultBranch: attrs.String("defaultBranch"),
		IsPrivate:     attrs.Bool("isPrivate"),
		Size:          attrs.Int("size"),
		CloneURLs:     cloneURLs(attrs["clone"]),
		ProviderName:  providerName,
	}
	if group, name, ok := strings.Cut(attrs.String("fullName"), "/"); ok {
		repo.Group, repo.Name = group, name
	}
	return repo
}

// cloneURLs extracts the hrefs of links.clone ([{name, href}, ...]).
func cloneURLs(value any) []string {
	list, _ := value.([]any)
	urls := make([]string, 0, len(list))
	for _, item := range list {
		link, _ := item.(map[string]any)
		if href, ok := link["href"].(string); ok && href != "" {
			urls = append(urls, href)
		}
	}
	return urls
}

func toHook(attrs entities.Attributes) entities.Hook {
	id := attrs.UUID("id")
	return entities.Hook{
		ID:          id,
		Name:        id,
		URL:         attrs.String("url"),
		Description: attrs.String("description"),
		Active:      attrs.Bool("active"),
		Events:      attrs.Strings("events"),
	}
}

func toPullRequest(attrs entities.Attributes, repo entities.Repository) entities.PullRequest {
	return entities.PullRequest{
		Number:            int(attrs.Int("number")),
		Title:             attrs.String("title"),
		Description:       attrs.String("description"),
		State:             attrs.String("state"),
		URL:               attrs.String("url"),
		CloseSourceBranch: attrs.Bool("closeSourceBranch"),
		TaskCount:         int(attrs.Int("taskCount")),
		Source: entities.Branch{
			Repository: repositoryFromFullName(attrs.String("sourceRepository"), repo),
			Name:       attrs.String("sourceBranch"),
			Hash:       attrs.String("sourceHash"),
		},
		Destination: entities.Branch{
			Repository: repositoryFromFullName(attrs.String("destinationRepository"), repo),
			Name:       attrs.String("destinationBranch"),
			Hash:       attrs.String("destinationHash"),
		},
	}
}

// repositoryFromFullName returns fallback unless fullName names another
// repository (pull requests from forks).
func repositoryFromFullName(fullName string, fallback entities.Repository) entities.Repository {
	group, name, ok := strings.Cut(fullName, "/")
	if !ok || fullName == fallback.FullName() {
		return fallback
	}
	return entities.Repository{Group: group, Name: name, ProviderName: fallback.ProviderName}
}

func toBranch(attrs entities.Attributes, repo entities.Repository) entities.Branch {
	return entities.Branch{Repository: repo, Name: attrs.String("name"), Hash: attrs.String("hash")}
}

func toTag(attrs entities.Attributes, repo entities.Repository) entities.Tag {
	return entities.Tag{Repository: repo, Name: attrs.String("name"), Hash: attrs.String("hash")}
}

func toEntry(attrs entities.Attributes) entities.Entry {
	return entities.Entry{Path: attrs.String("path"), IsDir: attrs.String("type") == directoryEntryType}
}

// mapRecords translates a raw record sequence, stopping at the first failure.
func mapRecords[T any](
	records iter.Seq2[json.RawMessage, error],
	table entities.AttributeMappings,
	convert func(entities.Attributes) T,
) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for raw, err := range records {
			if err != nil {
				yield(zero, err)
				return
			}
			attrs, decodeErr := decodeAttributes(table, raw)
			if decodeErr != nil {
				yield(zero, decodeErr)
				return
			}
			if !yield(convert(attrs), nil) {
				return
			}
		}
	}
}
