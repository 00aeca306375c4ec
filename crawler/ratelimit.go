package crawler

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter gates outbound connections at a fixed global rate. A nil Limiter
// admits immediately, so callers never branch on whether limiting is on.
// The rate is fixed rather than adaptive: each host is contacted at most
// once, so there is no per-server response-time signal to adapt to.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter admitting rps connections per second, with a
// burst of the same size. rps <= 0 disables limiting.
func NewLimiter(rps int) *Limiter {
	if rps <= 0 {
		return nil
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), rps)}
}

// Wait blocks until the limiter admits the next connection or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Rate returns the configured rate, 0 when disabled.
func (l *Limiter) Rate() int {
	if l == nil {
		return 0
	}
	return int(l.limiter.Limit())
}
