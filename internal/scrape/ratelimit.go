package scrape

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// RateLimiter is consulted before every outbound fetch.
type RateLimiter interface {
	Wait(ctx context.Context, host string) error
}

// NopLimiter never waits.
type NopLimiter struct{}

// Wait implements RateLimiter.
func (NopLimiter) Wait(context.Context, string) error { return nil }

// HostLimiter keeps one token bucket per host.
type HostLimiter struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewHostLimiter creates a limiter allowing rps requests per second per host
// with the given burst. A non-positive rps disables limiting.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		rps:      limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if err := h.get(host).Wait(ctx); err != nil {
		return eris.Wrapf(err, "scrape: rate limit wait for %s", host)
	}
	return nil
}

func (h *HostLimiter) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.rps, h.burst)
		h.limiters[host] = l
	}
	return l
}
