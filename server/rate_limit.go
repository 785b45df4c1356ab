package server

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL     = 10 * time.Minute
	limiterSweepAtSize = 10000
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	nowFunc  func() time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		nowFunc:  time.Now,
	}
}

// Allow reports whether a request from remoteAddr may proceed now.
func (rl *RateLimiter) Allow(remoteAddr string) bool {
	key := remoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		key = host
	}
	now := rl.nowFunc()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) >= limiterSweepAtSize {
		rl.sweep(now)
	}
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
}
