package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per remote host so a slow or busy
// instance cannot starve the others.
type HostLimiter struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	groups map[string]*rate.Limiter
}

// NewHostLimiter allows rps requests per second per host with the given
// burst. A non-positive rps disables limiting.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{limit: limit, burst: burst, groups: make(map[string]*rate.Limiter)}
}

func (l *HostLimiter) get(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.groups[host]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.groups[host] = lim
	}
	return lim
}

// Wait blocks until host may be called or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.get(host).Wait(ctx)
}

// Allow reports whether host may be called now without waiting.
func (l *HostLimiter) Allow(host string) bool {
	return l.get(host).Allow()
}
