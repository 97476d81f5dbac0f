// Package fetch is the HTTP transport for dereferencing linked-data
// documents: JSON-only GETs with a redirect cap, a body size cap, a
// layered document cache, per-host rate limiting, and optional robots.txt
// politeness for hosts outside the registry.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/credpub/credpub/internal/cache"
	"github.com/credpub/credpub/internal/model"
)

// Client fetches and parses linked-data documents
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	cache   cache.Cache     // nil disables caching
	limiter *HostLimiter    // nil disables throttling
	robots  *Robots         // nil disables politeness
	exempt  map[string]bool // hosts never subject to robots.txt
}

// Option configures a Client
type Option func(*Client)

// WithCache caches fetched documents
func WithCache(c cache.Cache) Option {
	return func(f *Client) { f.cache = c }
}

// WithLimiter throttles requests per host
func WithLimiter(l *HostLimiter) Option {
	return func(f *Client) { f.limiter = l }
}

// WithRobots enables robots.txt politeness for hosts other than the
// exempt ones (typically the registry itself)
func WithRobots(r *Robots, exemptHosts ...string) Option {
	return func(f *Client) {
		f.robots = r
		for _, h := range exemptHosts {
			f.exempt[h] = true
		}
	}
}

// New returns a Client with the given transport settings
func New(timeout time.Duration, userAgent string, maxBytes int64, opts ...Option) *Client {
	f := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		exempt:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchDocument retrieves and parses the document at rawURL
func (f *Client) FetchDocument(ctx context.Context, rawURL string) (*model.Document, error) {
	body, err := f.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return model.ParseDocument(body)
}

func (f *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.Key(rawURL)
	if f.cache != nil {
		if body, ok := f.cache.Get(key); ok {
			return body, nil
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if f.robots != nil {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse URL: %w", err)
		}
		if !f.exempt[parsed.Host] {
			allowed, err := f.robots.Allowed(ctx, rawURL)
			if err != nil {
				return nil, err
			}
			if !allowed {
				return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.cache != nil {
		_ = f.cache.Set(key, body, 0)
	}
	return body, nil
}
