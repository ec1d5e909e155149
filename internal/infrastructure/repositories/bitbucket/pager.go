package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

// Page is one decoded response of a paginated listing.
type Page struct {
	Values  []json.RawMessage `json:"values"`
	Next    string            `json:"next,omitempty"`
	Page    int               `json:"page,omitempty"`
	PageLen int               `json:"pagelen,omitempty"`
	Size    int               `json:"size,omitempty"`
}

type errorEnvelope struct {
	Type  string `json:"type"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// PaginatedFetcher issues authenticated requests against the Bitbucket API
// and follows "next" links lazily. Credentials are requested from the
// provider once, on the first request, and replaced only after a 401.
type PaginatedFetcher struct {
	fetcher     repositories.Fetcher
	credentials repositories.CredentialProvider
	apiBase     string

	mu      sync.Mutex
	current *entities.Credentials
}

// NewPaginatedFetcher creates a fetcher resolving relative URLs against apiBase.
func NewPaginatedFetcher(
	fetcher repositories.Fetcher,
	credentials repositories.CredentialProvider,
	apiBase string,
) *PaginatedFetcher {
	return &PaginatedFetcher{
		fetcher:     fetcher,
		credentials: credentials,
		apiBase:     strings.TrimSuffix(apiBase, "/"),
	}
}

// APIBase returns the base relative URLs are resolved against.
func (f *PaginatedFetcher) APIBase() string {
	return f.apiBase
}

// Pages yields every page starting at url. The sequence stops after the
// first error, which is yielded as the last element. A page is requested
// only when the consumer asks for it.
func (f *PaginatedFetcher) Pages(ctx context.Context, url string) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		next := url
		for next != "" {
			var page Page
			if err := f.FetchJSON(ctx, http.MethodGet, next, nil, &page); err != nil {
				yield(Page{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			next = page.Next
		}
	}
}

// Records flattens the "values" of every page, preserving page order and
// the order inside each page.
func (f *PaginatedFetcher) Records(ctx context.Context, url string) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		for page, err := range f.Pages(ctx, url) {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, value := range page.Values {
				if !yield(value, nil) {
					return
				}
			}
		}
	}
}

// FetchJSON performs a single request. A non-nil body is sent as JSON and a
// non-nil out receives the decoded response.
func (f *PaginatedFetcher) FetchJSON(ctx context.Context, method, url string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	resp, err := f.do(ctx, method, url, payload)
	if err != nil {
		return err
	}

	if err = checkErrorEnvelope(resp.Body); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err = json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, f.resolveURL(url), err)
	}
	return nil
}

// FetchRaw performs a GET and returns the undecoded body, used for file contents.
func (f *PaginatedFetcher) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (f *PaginatedFetcher) do(
	ctx context.Context,
	method, url string,
	body []byte,
) (*repositories.FetchResponse, error) {
	url = f.resolveURL(url)

	creds, err := f.currentCredentials(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := f.send(ctx, method, url, body, creds)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		logger.Debugf("%s %s rejected with 401, refreshing credentials", method, url)
		fresh, refreshed := f.refresh(ctx, creds)
		if !refreshed {
			return nil, entities.NewHTTPError(method, url, resp.StatusCode, resp.Status)
		}
		if resp, err = f.send(ctx, method, url, body, fresh); err != nil {
			return nil, err
		}
	}

	if !resp.OK() {
		return nil, entities.NewHTTPError(method, url, resp.StatusCode, resp.Status)
	}
	return resp, nil
}

func (f *PaginatedFetcher) send(
	ctx context.Context,
	method, url string,
	body []byte,
	creds entities.Credentials,
) (*repositories.FetchResponse, error) {
	authorization, err := AuthorizationHeader(creds)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", authorization)
	header.Set("Accept", "application/json")
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	resp, err := f.fetcher.Fetch(ctx, repositories.FetchRequest{
		Method: method,
		URL:    url,
		Header: header,
		Body:   body,
	})
	if err != nil {
		var httpErr *entities.HTTPError
		if errors.As(err, &httpErr) {
			return nil, err
		}
		return nil, entities.NewTransportError(method, url, "request failed", err)
	}
	return resp, nil
}

func (f *PaginatedFetcher) currentCredentials(ctx context.Context) (entities.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		return *f.current, nil
	}
	creds, err := f.credentials.Credentials(ctx)
	if err != nil {
		return entities.Credentials{}, fmt.Errorf("failed to obtain credentials: %w", err)
	}
	if creds.IsEmpty() {
		return entities.Credentials{}, entities.ErrMissingCredentials
	}
	f.current = &creds
	return creds, nil
}

// refresh asks for new credentials after a rejection. It reports false when
// the provider has nothing different to offer.
func (f *PaginatedFetcher) refresh(ctx context.Context, rejected entities.Credentials) (entities.Credentials, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// another request may already have replaced the rejected credentials
	if f.current != nil && !f.current.Equal(rejected) {
		return *f.current, true
	}

	fresh, err := f.credentials.Refresh(ctx, rejected)
	if err != nil {
		logger.Debugf("credential refresh failed: %v", err)
		return entities.Credentials{}, false
	}
	if fresh.IsEmpty() || fresh.Equal(rejected) {
		return entities.Credentials{}, false
	}
	f.current = &fresh
	return fresh, true
}

func (f *PaginatedFetcher) resolveURL(url string) string {
	if strings.Contains(url, "://") {
		return url
	}
	return f.apiBase + "/" + strings.TrimPrefix(url, "/")
}

func checkErrorEnvelope(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil || envelope.Type != "error" {
		return nil //nolint:nilerr // not an envelope, decoded by the caller
	}
	message := "unknown error"
	if envelope.Error != nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	return &entities.PayloadError{Message: message}
}
