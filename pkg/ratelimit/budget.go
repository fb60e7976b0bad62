// Package ratelimit wraps a token bucket used to bound how many input
// packets a host accepts per connection, so a single reconnecting or
// flooding peer cannot monopolize a host tick. The per-tick drain itself is
// bounded separately by pkg/predict's MaxInputsPerTick counter, and
// outbound state sends are not throttled by this package.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TickBudget wraps a token bucket sized in events-per-second with a burst
// ceiling. logic/session.Session.AllowInput consults one per connection
// before an input packet is decoded.
type TickBudget struct {
	limiter *rate.Limiter
}

// NewTickBudget constructs a budget allowing up to burst events
// immediately and refilling at eventsPerSecond thereafter.
func NewTickBudget(eventsPerSecond float64, burst int) *TickBudget {
	if burst < 1 {
		burst = 1
	}
	return &TickBudget{limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

// Allow reports whether one event may proceed right now, consuming a
// token if so. Non-blocking, matching the core's fire-and-forget
// send/drain style (spec.md §5).
func (b *TickBudget) Allow() bool {
	return b.limiter.Allow()
}

// AllowN reports whether n events may proceed right now.
func (b *TickBudget) AllowN(n int) bool {
	return b.limiter.AllowN(time.Now(), n)
}

// Wait blocks until an event is permitted or ctx is done.
func (b *TickBudget) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// SetLimit adjusts the refill rate, e.g. when a session's tunables change.
func (b *TickBudget) SetLimit(eventsPerSecond float64) {
	b.limiter.SetLimit(rate.Limit(eventsPerSecond))
}
