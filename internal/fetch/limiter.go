package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter throttles dereferences per host so recursive reference
// resolution does not hammer a single registry or publisher site
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter returns a limiter allowing requestsPerSecond per host
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the host of rawURL has request budget or the context
// is cancelled
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(parsed.Host).Wait(ctx)
}

func (l *HostLimiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.perHost, l.burst)
	l.limiters[host] = lim
	return lim
}
