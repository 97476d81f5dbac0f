package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Robots answers whether a third-party host allows dereferencing a given
// path. Registry hosts are never consulted; this only applies when a
// reference points outside the registry and politeness is enabled.
type Robots struct {
	mu        sync.RWMutex
	byHost    map[string]*robotstxt.RobotsData
	client    *http.Client
	userAgent string
}

// NewRobots returns a robots.txt checker with a per-host cache
func NewRobots(userAgent string, timeout time.Duration) *Robots {
	return &Robots{
		byHost:    make(map[string]*robotstxt.RobotsData),
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Allowed reports whether rawURL may be dereferenced. An unreachable
// robots.txt allows by default.
func (r *Robots) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.hostData(ctx, parsed)
	if err != nil {
		return true, nil
	}
	return data.TestAgent(parsed.Path, r.userAgent), nil
}

func (r *Robots) hostData(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.byHost[u.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.byHost[u.Host] = data
	r.mu.Unlock()
	return data, nil
}
