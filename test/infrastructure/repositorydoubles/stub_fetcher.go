//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"net/http"
	"sync"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

// StubResponse is one scripted answer of a StubFetcher.
type StubResponse struct {
	StatusCode int
	Body       string
	Err        error
}

// StubFetcher implements repositories.Fetcher. It answers from Script in
// order first, then from Routes keyed by URL; anything else is a 404.
type StubFetcher struct {
	Script []StubResponse
	Routes map[string]StubResponse

	mu       sync.Mutex
	Requests []repositories.FetchRequest
}

var _ repositories.Fetcher = (*StubFetcher)(nil)

func (f *StubFetcher) Fetch(_ context.Context, req repositories.FetchRequest) (*repositories.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)

	var answer StubResponse
	switch {
	case len(f.Script) > 0:
		answer = f.Script[0]
		f.Script = f.Script[1:]
	case f.Routes != nil:
		route, ok := f.Routes[req.Method+" "+req.URL]
		if !ok {
			route, ok = f.Routes[req.URL]
		}
		if !ok {
			route = StubResponse{StatusCode: http.StatusNotFound}
		}
		answer = route
	default:
		answer = StubResponse{StatusCode: http.StatusNotFound}
	}

	if answer.Err != nil {
		return nil, answer.Err
	}
	return &repositories.FetchResponse{
		StatusCode: answer.StatusCode,
		Status:     http.StatusText(answer.StatusCode),
		Header:     http.Header{},
		Body:       []byte(answer.Body),
	}, nil
}

// Calls returns the number of requests received so far.
func (f *StubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// URLs returns the requested URLs in order.
func (f *StubFetcher) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := make([]string, 0, len(f.Requests))
	for _, req := range f.Requests {
		urls = append(urls, req.URL)
	}
	return urls
}
