// Package providers defines the provider contract and the shared fetch
// machinery (rate gating, retries, health tracking) used by every
// bibliographic source adapter.
package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateGate enforces a minimum interval between requests to one provider.
// It wraps a token bucket sized for exactly one request per interval, so
// consecutive releases from Wait are separated by at least the interval.
// It is safe for concurrent use; concurrent callers serialize.
type RateGate struct {
	limiter *rate.Limiter

	mu          sync.Mutex
	lastRelease time.Time
}

// NewRateGate creates a gate with the given minimum inter-request
// interval. A non-positive interval disables pacing.
func NewRateGate(minInterval time.Duration) *RateGate {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &RateGate{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the minimum interval since the previous release has
// elapsed, or the context is done. On success it records the release time.
func (g *RateGate) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	g.lastRelease = time.Now()
	g.mu.Unlock()
	return nil
}

// LastRequestTime returns the time of the most recent release, or the
// zero time when no request has gone through yet.
func (g *RateGate) LastRequestTime() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRelease
}

// SetInterval updates the minimum inter-request interval. Used to slow a
// provider down after repeated 429 responses.
func (g *RateGate) SetInterval(minInterval time.Duration) {
	if minInterval <= 0 {
		g.limiter.SetLimit(rate.Inf)
		return
	}
	g.limiter.SetLimit(rate.Every(minInterval))
}
