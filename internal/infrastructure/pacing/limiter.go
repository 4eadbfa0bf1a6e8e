package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"NewsDesk/internal/ports"
)

// DefaultRequestsPerMinute is the AI call budget when none is configured.
const DefaultRequestsPerMinute = 30

var _ ports.Pacer = (*Limiter)(nil)

// Limiter is a token-bucket pacer for outbound provider calls.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter allows perMinute calls per minute with the given burst.
// A non-positive perMinute disables pacing.
func NewLimiter(perMinute, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if perMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, burst)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)}
}

// Wait blocks until a call is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval is the steady-state spacing between calls.
func (l *Limiter) Interval() time.Duration {
	if l.limiter.Limit() == rate.Inf {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(l.limiter.Limit()))
}
