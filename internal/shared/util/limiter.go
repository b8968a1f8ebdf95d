package util

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter for the search endpoint.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket limiter refilled at r tokens per second
// holding at most b tokens. A non-positive r disables limiting.
func NewLimiter(r float64, b int) *Limiter {
	limit := rate.Limit(r)
	if r <= 0 {
		limit = rate.Inf
	}
	if b <= 0 {
		b = 1
	}
	return &Limiter{
		inner: rate.NewLimiter(limit, b),
	}
}

// Allow reports whether n events may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}
