// Package steamapi is the rate-limited gateway to the Steam Web API.
package steamapi

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limiter spaces call starts at least interval apart, process-wide.
// Waiters are admitted in arrival order.
type Limiter struct {
	interval time.Duration
	clock    clockwork.Clock

	// turn is a one-slot channel; blocked senders are queued FIFO by the runtime.
	turn chan struct{}

	mu       sync.Mutex
	lastCall time.Time
}

// NewLimiter creates a limiter on the real clock.
func NewLimiter(interval time.Duration) *Limiter {
	return NewLimiterWithClock(interval, clockwork.NewRealClock())
}

// NewLimiterWithClock creates a limiter that reads and sleeps on clock.
func NewLimiterWithClock(interval time.Duration, clock clockwork.Clock) *Limiter {
	return &Limiter{
		interval: interval,
		clock:    clock,
		turn:     make(chan struct{}, 1),
	}
}

// Interval returns the minimum spacing between call starts.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// LastCall returns the start instant of the most recent admitted call.
func (l *Limiter) LastCall() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastCall
}

// Wait blocks until the caller may start a call and returns its start instant.
// A cancelled wait does not consume a slot.
func (l *Limiter) Wait(ctx context.Context) (time.Time, error) {
	select {
	case l.turn <- struct{}{}:
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
	defer func() { <-l.turn }()

	l.mu.Lock()
	last := l.lastCall
	l.mu.Unlock()

	if !last.IsZero() {
		if wait := l.interval - l.clock.Since(last); wait > 0 {
			timer := l.clock.NewTimer(wait)
			select {
			case <-timer.Chan():
			case <-ctx.Done():
				timer.Stop()
				return time.Time{}, ctx.Err()
			}
		}
	}

	start := l.clock.Now()
	l.mu.Lock()
	l.lastCall = start
	l.mu.Unlock()
	return start, nil
}
