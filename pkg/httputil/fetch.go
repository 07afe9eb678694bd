package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/heatmap/pkg/buildinfo"
	"github.com/matzehuels/heatmap/pkg/errors"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond

	// DefaultMaxBytes caps a downloaded body.
	DefaultMaxBytes = 64 << 20
)

// IsURL reports whether s names an http or https resource rather than a
// local path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetcher downloads remote inputs.
type Fetcher struct {
	client   *http.Client
	cache    *Cache
	attempts int
	delay    time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithRetry sets the number of attempts and the first backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) { f.attempts, f.delay = attempts, delay }
}

// WithMaxBytes caps response bodies at n bytes.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// NewFetcher creates a Fetcher. A nil cache disables caching.
func NewFetcher(cache *Cache, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: defaultTimeout},
		cache:    cache,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the body at rawURL. Fresh cache entries are served without a
// request unless refresh is set. When the download fails and a stale entry
// exists, the stale entry is returned instead.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, refresh bool) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "not an http(s) URL: %q", rawURL)
	}

	var stale []byte
	if f.cache != nil && !refresh {
		data, hit, err := f.cache.Get(rawURL)
		if hit {
			return data, nil
		}
		if err == ErrExpired {
			stale = data
		}
	}

	var body []byte
	err = Retry(ctx, f.attempts, f.delay, func() error {
		var err error
		body, err = f.get(ctx, rawURL)
		return err
	})
	if err != nil {
		if stale != nil && ctx.Err() == nil && !errors.Is(err, errors.ErrCodeNotFound) {
			return stale, nil
		}
		return nil, err
	}

	if f.cache != nil {
		_ = f.cache.Set(rawURL, body)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("fetch %s: %w", rawURL, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(rawURL, resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("read %s: %w", rawURL, err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is larger than %d bytes", rawURL, f.maxBytes)
	}
	return data, nil
}

func checkStatus(rawURL string, resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: not found", rawURL)
	case code == http.StatusTooManyRequests:
		return &RetryableError{
			Err:   fmt.Errorf("fetch %s: status %d", rawURL, code),
			After: retryAfter(resp.Header),
		}
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("fetch %s: status %d", rawURL, code)}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "fetch %s: status %d", rawURL, code)
	}
}
