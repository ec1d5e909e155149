package repositories

import (
	"context"
	"net/http"
)

// FetchRequest is a single HTTP exchange handed to a Fetcher.
type FetchRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// FetchResponse is the buffered result of a FetchRequest.
type FetchResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *FetchResponse) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Fetcher is the network capability. Implementations bound every call by
// their request timeout and never retry on their own except for rate limiting.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}
