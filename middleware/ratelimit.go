package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	webkit "github.com/letswire/webkit"
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	// ClientHeader names the request header used to identify a client
	// (e.g. "x-api-key"). Requests without it share a single bucket
	// keyed by the empty string.
	ClientHeader string
	// Limit is the number of requests allowed per Window.
	Limit int
	// Window is the sliding window over which Limit applies.
	Window time.Duration
	// EvictSchedule is a cron expression controlling how often expired
	// per-client buckets are swept from memory. Defaults to "@every 1m".
	EvictSchedule string
}

type bucket struct {
	mu        sync.Mutex
	hits      []time.Time
	lastTouch time.Time
}

// rateLimiter holds the in-memory token-bucket state shared across
// requests and swept periodically by a cron schedule.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     RateLimitConfig
	cron    *cron.Cron
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.EvictSchedule == "" {
		cfg.EvictSchedule = "@every 1m"
	}
	rl := &rateLimiter{buckets: map[string]*bucket{}, cfg: cfg}
	c := cron.New()
	_, _ = c.AddFunc(cfg.EvictSchedule, rl.evict)
	c.Start()
	rl.cron = c
	return rl
}

// Stop halts the background eviction sweep. RateLimit does not expose its
// limiter, so the sweep it starts runs for the life of the process.
func (rl *rateLimiter) Stop() {
	rl.cron.Stop()
}

func (rl *rateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-rl.cfg.Window * 10)
	for key, b := range rl.buckets {
		b.mu.Lock()
		stale := b.lastTouch.Before(cutoff)
		b.mu.Unlock()
		if stale {
			delete(rl.buckets, key)
		}
	}
}

func (rl *rateLimiter) bucketFor(key string) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{}
		rl.buckets[key] = b
	}
	return b
}

// allow drops timestamps older than the window, then reports whether the
// request is permitted and how many seconds to wait if not.
func (b *bucket) allow(limit int, window time.Duration) (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.lastTouch = now
	cutoff := now.Add(-window)
	kept := b.hits[:0]
	for _, t := range b.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.hits = kept
	if len(b.hits) >= limit {
		retryAfter := int(window.Seconds())
		if len(b.hits) > 0 {
			oldest := b.hits[0]
			retryAfter = int(window.Seconds() - now.Sub(oldest).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
		}
		return false, retryAfter
	}
	b.hits = append(b.hits, now)
	return true, 0
}

// RateLimit returns a Middleware enforcing a per-client token bucket keyed
// by cfg.ClientHeader, rejecting with 429 and a retry-after header once
// exceeded. Expired buckets are swept on cfg.EvictSchedule via a
// background cron job.
func RateLimit(cfg RateLimitConfig) webkit.Middleware {
	rl := newRateLimiter(cfg)
	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			key, _ := req.Header(cfg.ClientHeader)
			b := rl.bucketFor(key)
			ok, retryAfter := b.allow(cfg.Limit, cfg.Window)
			if !ok {
				resp := jsonError(429, "rate limit exceeded")
				return resp.WithHeader("retry-after", fmt.Sprintf("%d", retryAfter)), nil
			}
			return next(req)
		}
	}
}
