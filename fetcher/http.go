package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/krisalay/fetchcache/types"
)

var _ types.Fetcher = (*HTTPFetcher)(nil)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d (%s)", e.StatusCode, e.URL)
}

// HTTPFetcher GETs JSON documents over http(s).
type HTTPFetcher struct {
	client *retryablehttp.Client
}

type Option func(*retryablehttp.Client)

// WithMaxRetries sets how many times the transport retries connection
// errors and 5xx responses before giving up. Defaults to 0: retry policy
// belongs to the cache.
func WithMaxRetries(maxRetries int) Option {
	return func(client *retryablehttp.Client) {
		client.RetryMax = maxRetries
	}
}

// WithRetryWait sets the backoff bounds between transport retries.
func WithRetryWait(waitMin, waitMax time.Duration) Option {
	return func(client *retryablehttp.Client) {
		client.RetryWaitMin = waitMin
		client.RetryWaitMax = waitMax
	}
}

// WithTimeout bounds a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(client *retryablehttp.Client) {
		client.HTTPClient.Timeout = timeout
	}
}

// WithTransport sets a custom transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(client *retryablehttp.Client) {
		client.HTTPClient.Transport = transport
	}
}

// WithLogger routes the transport's retry logging to logger.
func WithLogger(logger log.Interface) Option {
	return func(client *retryablehttp.Client) {
		client.Logger = retryablehttp.LeveledLogger(leveledApex{inner: logger})
	}
}

func NewHTTPFetcher(options ...Option) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = retryablehttp.LeveledLogger(leveledApex{inner: log.Log})
	// hand the last response back so non-2xx becomes a StatusError
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	for _, option := range options {
		option(client)
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (any, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return decodeJSON(resp.Body)
}

// leveledApex adapts apex/log to retryablehttp.LeveledLogger. Transport
// errors are logged at WARN because the cache decides what is fatal.
type leveledApex struct {
	inner log.Interface
}

func (l leveledApex) Error(msg string, keysAndValues ...any) {
	l.inner.WithFields(fields(keysAndValues)).Warn(msg)
}

func (l leveledApex) Warn(msg string, keysAndValues ...any) {
	l.inner.WithFields(fields(keysAndValues)).Warn(msg)
}

func (l leveledApex) Info(msg string, keysAndValues ...any) {
	l.inner.WithFields(fields(keysAndValues)).Info(msg)
}

func (l leveledApex) Debug(msg string, keysAndValues ...any) {
	l.inner.WithFields(fields(keysAndValues)).Debug(msg)
}

func fields(kv []any) log.Fields {
	f := make(log.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
