package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobalert/internal/model"
)

// SiteRateLimiter enforces a minimum delay between scrapes of the same site.
type SiteRateLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: site name, earliest start of the next scrape
	minDelay time.Duration
}

// NewSiteRateLimiter creates a limiter that spaces consecutive scrapes of
// one site at least minDelay apart.
func NewSiteRateLimiter(minDelay time.Duration) *SiteRateLimiter {
	return &SiteRateLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the site may be scraped again. Concurrent callers for the
// same site are queued one minDelay apart. Returns an error if ctx is
// cancelled while waiting.
func (r *SiteRateLimiter) Wait(ctx context.Context, site string) error {
	r.mu.Lock()
	now := time.Now()
	start := r.next[site]
	if start.Before(now) {
		start = now
	}
	r.next[site] = start.Add(r.minDelay)
	r.mu.Unlock()

	remaining := time.Until(start)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", site, ctx.Err())
	case <-time.After(remaining):
		return nil
	}
}

// RateLimitedSource is a decorator that enforces site-level rate limiting
// before delegating to the wrapped ListingSource.
type RateLimitedSource struct {
	inner   model.ListingSource
	limiter *SiteRateLimiter
	site    string
}

// NewRateLimitedSource wraps a ListingSource with site-level rate limiting.
// All sources targeting the same site should share the same limiter instance.
func NewRateLimitedSource(inner model.ListingSource, limiter *SiteRateLimiter, site string) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
		site:    site,
	}
}

// Scrape waits for the limiter, then delegates to the wrapped source.
func (s *RateLimitedSource) Scrape(ctx context.Context, q model.Query) ([]model.Posting, error) {
	if err := s.limiter.Wait(ctx, s.site); err != nil {
		return nil, err
	}
	return s.inner.Scrape(ctx, q)
}
