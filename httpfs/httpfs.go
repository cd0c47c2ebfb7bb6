// Package httpfs serves asset content fetched over HTTP.
//
// Keys are joined onto a base URL and fetched with GET. Any response other
// than 200, and any transport failure, resolves to not-found: the contract
// never distinguishes "missing" from "unreachable" at the read boundary.
package httpfs

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	platformerrors "github.com/mieweb/a3t/errors"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// Backend is an HTTP-fetch content backend.
type Backend struct {
	base   *url.URL
	client *http.Client
}

// Option configures a Backend.
type Option func(*Backend)

// WithClient substitutes the HTTP client, e.g. to adjust the timeout or
// inject a transport in tests.
func WithClient(client *http.Client) Option {
	return func(b *Backend) {
		b.client = client
	}
}

// New creates a content backend fetching from the given base URL.
// An unparseable or relative base URL is a configuration error.
func New(baseURL string, opts ...Option) (*Backend, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "invalid base URL")
	}
	if !parsed.IsAbs() {
		return nil, platformerrors.Newf(platformerrors.CodeInvalidConfig, "base URL %q is not absolute", baseURL)
	}

	b := &Backend{
		base:   parsed,
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ReadText fetches the named asset as a string, or found=false when the
// server does not serve it.
func (b *Backend) ReadText(ctx context.Context, key string) (string, bool, error) {
	data, ok, err := b.ReadBinary(ctx, key)
	return string(data), ok, err
}

// ReadBinary fetches the named asset's raw bytes, or found=false on any
// non-200 response or transport failure.
func (b *Backend) ReadBinary(ctx context.Context, key string) ([]byte, bool, error) {
	// JoinPath normalizes dot segments, so a key must not be able to climb
	// out of the base path. Escapes resolve to not-found like everywhere
	// else.
	target := b.base.JoinPath(key)
	if !underBase(b.base.Path, target.Path) {
		return nil, false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, false, nil
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, nil
	}
	return data, true, nil
}

// underBase reports whether the joined request path is still inside the base
// URL's path.
func underBase(base, target string) bool {
	base = strings.TrimSuffix(base, "/")
	return target == base || strings.HasPrefix(target, base+"/")
}
