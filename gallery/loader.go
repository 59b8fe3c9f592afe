package gallery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/estatly/mediasign/httpclient"
)

// Loader checks that a display URL actually loads.
type Loader interface {
	Load(ctx context.Context, url string) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) error

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, url string) error { return f(ctx, url) }

// HTTPLoader probes URLs with HEAD, falling back to a one-byte ranged GET
// when the server refuses HEAD. Presigned GET URLs usually do, since the
// signature covers the method.
type HTTPLoader struct {
	client *httpclient.Client
}

// NewHTTPLoader creates a loader whose probes time out after timeout.
func NewHTTPLoader(timeout time.Duration) (*HTTPLoader, error) {
	c, err := httpclient.New(httpclient.Config{Timeout: timeout, MaxResponseBytes: 64 << 10})
	if err != nil {
		return nil, err
	}
	return &HTTPLoader{client: c}, nil
}

// NewHTTPLoaderWithClient creates a loader on an existing client.
func NewHTTPLoaderWithClient(c *httpclient.Client) *HTTPLoader {
	return &HTTPLoader{client: c}
}

// Load returns nil when url answers 2xx.
func (l *HTTPLoader) Load(ctx context.Context, url string) error {
	_, err := l.client.Do(ctx, httpclient.Request{Method: http.MethodHead, Path: url})
	if err == nil {
		return nil
	}
	switch httpclient.StatusCode(err) {
	case http.StatusForbidden, http.StatusMethodNotAllowed, http.StatusNotImplemented:
	default:
		return fmt.Errorf("probe %s: %w", url, err)
	}

	_, err = l.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    url,
		Headers: map[string]string{"Range": "bytes=0-0"},
	})
	if err != nil && !httpclient.IsTooLarge(err) {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	return nil
}
