package fetcher

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	growthFactor  = 1.2
	backoffFactor = 0.5
)

// AdaptiveLimiter is a rate.Limiter that speeds up on success and halves on
// HTTP 429. The rate stays within [initial/4, initial*2].
type AdaptiveLimiter struct {
	lim *rate.Limiter

	mu      sync.Mutex
	current rate.Limit
	floor   rate.Limit
	ceiling rate.Limit
}

// NewAdaptiveLimiter starts at initial events per second.
func NewAdaptiveLimiter(initial rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		lim:     rate.NewLimiter(initial, burst),
		current: initial,
		floor:   initial / 4,
		ceiling: initial * 2,
	}
}

func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.lim.Wait(ctx)
}

// OnSuccess raises the rate by a fifth.
func (a *AdaptiveLimiter) OnSuccess() {
	a.adjust(growthFactor)
}

// OnRateLimit halves the rate.
func (a *AdaptiveLimiter) OnRateLimit() {
	r := a.adjust(backoffFactor)
	zap.L().Warn("fetcher: throttled, lowering rate", zap.Float64("rate", float64(r)))
}

func (a *AdaptiveLimiter) adjust(factor float64) rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = min(max(a.current*rate.Limit(factor), a.floor), a.ceiling)
	a.lim.SetLimit(a.current)
	return a.current
}

// Limit reports the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}
