package bitbucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/repositories"
)

// HTTPFetcher is the network capability backed by a pooled client. Every
// call is bounded by the request timeout; only 429 responses are retried.
type HTTPFetcher struct {
	client *retryablehttp.Client
}

// NewHTTPFetcher creates a fetcher with the given timeout and rate-limit retry budget.
func NewHTTPFetcher(timeout time.Duration, rateLimitRetries int) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.HTTPClient = cleanhttp.DefaultPooledClient()
	client.HTTPClient.Timeout = timeout
	client.RetryMax = rateLimitRetries
	client.CheckRetry = retryOnRateLimit
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = &leveledLogger{entry: logger.WithField("component", "bitbucket-http")}
	return &HTTPFetcher{client: client}
}

// Fetch performs the request and buffers the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, req repositories.FetchRequest) (*repositories.FetchResponse, error) {
	var body any
	if req.Body != nil {
		body = req.Body
	}

	request, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, entities.NewTransportError(req.Method, req.URL, "invalid request", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}

	resp, err := f.client.Do(request)
	if err != nil {
		return nil, entities.NewTransportError(req.Method, req.URL, transportStatus(err), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, entities.NewTransportError(req.Method, req.URL, "failed to read response", err)
	}

	return &repositories.FetchResponse{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// retryOnRateLimit retries 429 responses only. Transport failures and
// timeouts are surfaced to the caller unchanged.
func retryOnRateLimit(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusTooManyRequests, nil
}

func transportStatus(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "request timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	return "request failed"
}

// statusText strips the numeric prefix net/http puts in front of the reason phrase.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// leveledLogger routes retryablehttp messages through logrus.
type leveledLogger struct {
	entry *logger.Entry
}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.with(keysAndValues).Error(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.with(keysAndValues).Debug(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.with(keysAndValues).Debug(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.with(keysAndValues).Warn(msg)
}

func (l *leveledLogger) with(keysAndValues []any) *logger.Entry {
	fields := logger.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}
