package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitError tells the caller how long to wait before retrying.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

// Limiter keeps one token bucket per key. A non-positive perMinute disables
// limiting.
type Limiter struct {
	now       func() time.Time
	perMinute int
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(perMinute int, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		now:       func() time.Time { return time.Now().UTC() },
		perMinute: perMinute,
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Allow consumes one token for key. When denied it returns the whole number of
// seconds until a token is available.
func (l *Limiter) Allow(key string) (bool, int) {
	if l == nil || l.perMinute <= 0 {
		return true, 0
	}
	now := l.now()
	lim := l.limiterFor(key)
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, 60
	}
	delay := res.DelayFrom(now)
	if delay <= 0 {
		return true, 0
	}
	res.CancelAt(now)
	retry := int(math.Ceil(delay.Seconds()))
	if retry < 1 {
		retry = 1
	}
	return false, retry
}

// Check is Allow returning a *RateLimitError on denial.
func (l *Limiter) Check(key string) error {
	if ok, retry := l.Allow(key); !ok {
		return &RateLimitError{RetryAfterSeconds: retry}
	}
	return nil
}

func (l *Limiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.burst)
		l.limiters[key] = lim
	}
	return lim
}
