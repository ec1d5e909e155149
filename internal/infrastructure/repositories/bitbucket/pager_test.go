//go:build unit

package bitbucket_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/infrastructure/repositories/bitbucket"
	"github.com/rios0rios0/bitbucket-provider/test/domain/entitybuilders"
	"github.com/rios0rios0/bitbucket-provider/test/infrastructure/repositorydoubles"
)

const apiBase = "https://api.bitbucket.org/2.0"

func newPagerFixture(script ...repositorydoubles.StubResponse) (
	*bitbucket.PaginatedFetcher,
	*repositorydoubles.StubFetcher,
	*repositorydoubles.SpyCredentialProvider,
) {
	fetcher := &repositorydoubles.StubFetcher{Script: script}
	credentials := &repositorydoubles.SpyCredentialProvider{
		Initial:   entities.Credentials{Token: "old-token"},
		Refreshed: []entities.Credentials{{Token: "new-token"}},
	}
	return bitbucket.NewPaginatedFetcher(fetcher, credentials, apiBase), fetcher, credentials
}

func collectNames(t *testing.T, pager *bitbucket.PaginatedFetcher, url string) ([]string, error) {
	t.Helper()
	var names []string
	for raw, err := range pager.Records(context.Background(), url) {
		if err != nil {
			return names, err
		}
		var record struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(raw, &record))
		names = append(names, record.Name)
	}
	return names, nil
}

func TestPaginatedFetcherRecords(t *testing.T) {
	t.Parallel()

	t.Run("should follow next links and keep the record order", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, _ := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithValues(map[string]any{"name": "a"}, map[string]any{"name": "b"}).
				WithNext(apiBase + "/repositories/arlac77?page=2").BuildJSON()},
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithValues(map[string]any{"name": "c"}).
				WithNext(apiBase + "/repositories/arlac77?page=3").BuildJSON()},
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithValues(map[string]any{"name": "d"}).BuildJSON()},
		)

		// when
		names, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, names)
		assert.Equal(t, []string{
			apiBase + "/repositories/arlac77",
			apiBase + "/repositories/arlac77?page=2",
			apiBase + "/repositories/arlac77?page=3",
		}, fetcher.URLs())
	})

	t.Run("should stop requesting when the consumer stops pulling", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, _ := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithValues(map[string]any{"name": "a"}, map[string]any{"name": "b"}).
				WithNext(apiBase + "/next").BuildJSON()},
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithValues(map[string]any{"name": "c"}).BuildJSON()},
		)

		// when
		for range pager.Records(context.Background(), "repositories/arlac77") {
			break
		}

		// then
		assert.Equal(t, 1, fetcher.Calls())
	})

	t.Run("should not request anything before iteration starts", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, credentials := newPagerFixture()

		// when
		_ = pager.Records(context.Background(), "repositories/arlac77")

		// then
		assert.Equal(t, 0, fetcher.Calls())
		assert.Equal(t, 0, credentials.CredentialsCalls)
	})

	t.Run("should finish without records for an empty page", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, _ := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().BuildJSON()},
		)

		// when
		names, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.NoError(t, err)
		assert.Empty(t, names)
		assert.Equal(t, 1, fetcher.Calls())
	})

	t.Run("should fail with the message of an error envelope", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, _ := newPagerFixture(
			repositorydoubles.StubResponse{
				StatusCode: http.StatusOK,
				Body:       `{"type":"error","error":{"message":"X"},"next":"` + apiBase + `/repositories/arlac77?page=2"}`,
			},
			repositorydoubles.StubResponse{
				StatusCode: http.StatusOK,
				Body:       entitybuilders.NewPageBuilder().WithValues(map[string]any{"name": "late"}).BuildJSON(),
			},
		)

		// when
		names, err := collectNames(t, pager, "repositories/arlac77")

		// then
		var payloadErr *entities.PayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Equal(t, "X", payloadErr.Message)
		assert.Empty(t, names)
		assert.Equal(t, 1, fetcher.Calls())
	})

	t.Run("should yield earlier records before a failing page", func(t *testing.T) {
		t.Parallel()

		// given
		pager, _, _ := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithValues(map[string]any{"name": "a"}).
				WithNext(apiBase + "/next").BuildJSON()},
			repositorydoubles.StubResponse{StatusCode: http.StatusInternalServerError},
		)

		// when
		names, err := collectNames(t, pager, "repositories/arlac77")

		// then
		assert.Equal(t, []string{"a"}, names)
		var httpErr *entities.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
		assert.Equal(t, "Internal Server Error", httpErr.Status)
	})
}

func TestPaginatedFetcherAuthentication(t *testing.T) {
	t.Parallel()

	t.Run("should refresh credentials once after a 401 and retry", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, credentials := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusUnauthorized},
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithValues(map[string]any{"name": "a"}).BuildJSON()},
		)

		// when
		names, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, names)
		assert.Equal(t, 1, credentials.RefreshCalls)
		require.Len(t, fetcher.Requests, 2)
		assert.Equal(t, "Bearer old-token", fetcher.Requests[0].Header.Get("Authorization"))
		assert.Equal(t, "Bearer new-token", fetcher.Requests[1].Header.Get("Authorization"))
	})

	t.Run("should fail with unauthorized after a second 401", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, credentials := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusUnauthorized},
			repositorydoubles.StubResponse{StatusCode: http.StatusUnauthorized},
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().BuildJSON()},
		)

		// when
		_, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.ErrorIs(t, err, entities.ErrUnauthorized)
		assert.Equal(t, 2, fetcher.Calls())
		assert.Equal(t, 1, credentials.RefreshCalls)
	})

	t.Run("should fail without retry when no fresh credentials exist", func(t *testing.T) {
		t.Parallel()

		// given
		fetcher := &repositorydoubles.StubFetcher{Script: []repositorydoubles.StubResponse{
			{StatusCode: http.StatusUnauthorized},
		}}
		credentials := &repositorydoubles.SpyCredentialProvider{Initial: entities.Credentials{Token: "t"}}
		pager := bitbucket.NewPaginatedFetcher(fetcher, credentials, apiBase)

		// when
		_, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.ErrorIs(t, err, entities.ErrUnauthorized)
		assert.Equal(t, 1, fetcher.Calls())
		assert.Equal(t, 1, credentials.RefreshCalls)
	})

	t.Run("should request credentials only once for many requests", func(t *testing.T) {
		t.Parallel()

		// given
		pager, _, credentials := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().
				WithNext(apiBase + "/next").BuildJSON()},
			repositorydoubles.StubResponse{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().BuildJSON()},
		)

		// when
		_, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, credentials.CredentialsCalls)
	})

	t.Run("should send basic authentication when a username is present", func(t *testing.T) {
		t.Parallel()

		// given
		fetcher := &repositorydoubles.StubFetcher{Script: []repositorydoubles.StubResponse{
			{StatusCode: http.StatusOK, Body: entitybuilders.NewPageBuilder().BuildJSON()},
		}}
		credentials := &repositorydoubles.SpyCredentialProvider{
			Initial: entities.Credentials{Username: "user", Password: "pass", Token: "ignored"},
		}
		pager := bitbucket.NewPaginatedFetcher(fetcher, credentials, apiBase)

		// when
		_, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Basic dXNlcjpwYXNz", fetcher.Requests[0].Header.Get("Authorization"))
	})

	t.Run("should fail before any request without credentials", func(t *testing.T) {
		t.Parallel()

		// given
		fetcher := &repositorydoubles.StubFetcher{}
		credentials := &repositorydoubles.SpyCredentialProvider{}
		pager := bitbucket.NewPaginatedFetcher(fetcher, credentials, apiBase)

		// when
		_, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.ErrorIs(t, err, entities.ErrMissingCredentials)
		assert.Equal(t, 0, fetcher.Calls())
	})

	t.Run("should report credential provider failures", func(t *testing.T) {
		t.Parallel()

		// given
		fetcher := &repositorydoubles.StubFetcher{}
		credentials := &repositorydoubles.SpyCredentialProvider{InitialErr: errors.New("vault sealed")}
		pager := bitbucket.NewPaginatedFetcher(fetcher, credentials, apiBase)

		// when
		_, err := collectNames(t, pager, "repositories/arlac77")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault sealed")
		assert.Equal(t, 0, fetcher.Calls())
	})
}

func TestPaginatedFetcherFetchJSON(t *testing.T) {
	t.Parallel()

	t.Run("should send the body as json and decode the response", func(t *testing.T) {
		t.Parallel()

		// given
		pager, fetcher, _ := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusCreated, Body: `{"name":"feature"}`},
		)
		var out struct {
			Name string `json:"name"`
		}

		// when
		err := pager.FetchJSON(
			context.Background(), http.MethodPost, "repositories/a/b/refs/branches", map[string]string{"name": "feature"}, &out,
		)

		// then
		require.NoError(t, err)
		assert.Equal(t, "feature", out.Name)
		assert.Equal(t, http.MethodPost, fetcher.Requests[0].Method)
		assert.Equal(t, "application/json", fetcher.Requests[0].Header.Get("Content-Type"))
		assert.JSONEq(t, `{"name":"feature"}`, string(fetcher.Requests[0].Body))
	})

	t.Run("should accept an empty response body", func(t *testing.T) {
		t.Parallel()

		// given
		pager, _, _ := newPagerFixture(repositorydoubles.StubResponse{StatusCode: http.StatusNoContent})

		// when
		err := pager.FetchJSON(context.Background(), http.MethodDelete, "repositories/a/b/refs/branches/x", nil, nil)

		// then
		require.NoError(t, err)
	})

	t.Run("should report a 404 as not found", func(t *testing.T) {
		t.Parallel()

		// given
		pager, _, _ := newPagerFixture(repositorydoubles.StubResponse{StatusCode: http.StatusNotFound})

		// when
		err := pager.FetchJSON(context.Background(), http.MethodGet, "repositories/a/b", nil, &map[string]any{})

		// then
		assert.True(t, entities.IsNotFound(err))
	})

	t.Run("should report transport failures without a status code", func(t *testing.T) {
		t.Parallel()

		// given
		cause := errors.New("connection refused")
		pager, _, _ := newPagerFixture(repositorydoubles.StubResponse{Err: cause})

		// when
		err := pager.FetchJSON(context.Background(), http.MethodGet, "repositories/a/b", nil, nil)

		// then
		var httpErr *entities.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 0, httpErr.StatusCode)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("should never expose credentials in errors", func(t *testing.T) {
		t.Parallel()

		// given
		pager, _, _ := newPagerFixture(
			repositorydoubles.StubResponse{StatusCode: http.StatusUnauthorized},
			repositorydoubles.StubResponse{StatusCode: http.StatusUnauthorized},
		)

		// when
		err := pager.FetchJSON(context.Background(), http.MethodGet, "repositories/a/b", nil, nil)

		// then
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "old-token")
		assert.NotContains(t, err.Error(), "new-token")
	})
}
