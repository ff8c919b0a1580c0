// Package ratelimit holds the per-user request limiter.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/skylog-app/skylog/internal/metrics"
)

// PerUser hands out one token bucket per user id. Buckets live for the
// process lifetime; the active user set is small relative to memory.
type PerUser struct {
	mu     sync.Mutex
	users  map[string]*rate.Limiter
	perMin int
	burst  int
}

// NewPerUser builds a limiter allowing perMinute requests per user with the
// given burst. perMinute <= 0 disables limiting.
func NewPerUser(perMinute, burst int) *PerUser {
	return &PerUser{
		users:  make(map[string]*rate.Limiter),
		perMin: perMinute,
		burst:  burst,
	}
}

func (p *PerUser) limiter(userID string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.users[userID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(float64(p.perMin)/60.0), p.burst)
		p.users[userID] = l
	}
	return l
}

// Allow reports whether the user may proceed, consuming one token if so.
func (p *PerUser) Allow(userID string) bool {
	if p.perMin <= 0 {
		return true
	}
	if p.limiter(userID).Allow() {
		return true
	}
	metrics.RateLimitedTotal.Inc()
	return false
}
