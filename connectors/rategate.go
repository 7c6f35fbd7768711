package connectors

import (
	"context"
	"sync"
	"time"
)

// RateGate serializes requests to a quota-enforcing source. It allows a
// single in-flight request at a time and enforces a minimum interval
// between consecutive request starts. The clock and sleep functions are
// injectable so the gate can be tested without real time passing.
type RateGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRateGate creates a gate with the given minimum inter-request interval.
func NewRateGate(interval time.Duration) *RateGate {
	return &RateGate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until the minimum interval since the previous request start
// has elapsed, then records a new request start. Holding the gate's lock
// while sleeping is intentional: it keeps requests strictly serialized.
func (g *RateGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if wait := g.interval - g.now().Sub(g.last); wait > 0 {
			if err := g.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	g.last = g.now()
	return nil
}

// Pause blocks all callers for d, used for the 429 cool-down. The next
// request start is pushed past the pause.
func (g *RateGate) Pause(ctx context.Context, d time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.sleep(ctx, d); err != nil {
		return err
	}
	g.last = g.now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
