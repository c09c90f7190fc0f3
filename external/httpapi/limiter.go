package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// userRateLimiter keeps one token bucket per user. Entries live for
// the process lifetime; the user population is small (one clinic).
type userRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newUserRateLimiter(perMinute, burst int) *userRateLimiter {
	return &userRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (l *userRateLimiter) allow(userID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
