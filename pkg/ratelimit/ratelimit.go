package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter spaces successive operations at least one interval apart, with
// optional jitter. The first Wait never blocks. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	last     time.Time
	now      func() time.Time
	float    func() float64
}

// NewLimiter creates a limiter allowing rps operations per second. A jitter
// of j stretches each gap by a random amount in [0, j*interval). If rps <= 0
// the limiter never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	l := &Limiter{
		jitter: jitter,
		now:    time.Now,
		float:  rand.Float64,
	}
	if rps > 0 {
		l.interval = time.Duration(float64(time.Second) / rps)
	}
	return l
}

// Wait blocks until the next operation may run or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	delay := l.reserve()
	l.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve claims the next slot and returns how long the caller must wait
// for it. Must be called with the lock held.
func (l *Limiter) reserve() time.Duration {
	now := l.now()
	if l.last.IsZero() {
		l.last = now
		return 0
	}

	gap := l.interval
	if l.jitter > 0 {
		gap += time.Duration(float64(l.interval) * l.jitter * l.float())
	}

	slot := l.last.Add(gap)
	if slot.Before(now) {
		slot = now
	}
	l.last = slot
	return slot.Sub(now)
}

// Interval returns the configured base spacing.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}
