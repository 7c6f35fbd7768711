package connectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives a RateGate without real time passing: sleeping
// advances the clock and records the requested duration.
type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.current = c.current.Add(d)
	return nil
}

func newGateWithClock(interval time.Duration) (*RateGate, *fakeClock) {
	clock := newFakeClock()
	gate := NewRateGate(interval)
	gate.now = clock.now
	gate.sleep = clock.sleep
	return gate, clock
}

func TestRateGateFirstRequestDoesNotWait(t *testing.T) {
	gate, clock := newGateWithClock(1100 * time.Millisecond)

	require.NoError(t, gate.Wait(context.Background()))

	assert.Empty(t, clock.slept)
}

func TestRateGateEnforcesMinimumSpacing(t *testing.T) {
	interval := 1100 * time.Millisecond
	gate, clock := newGateWithClock(interval)

	starts := make([]time.Time, 0, 5)
	for i := 0; i < 5; i++ {
		require.NoError(t, gate.Wait(context.Background()))
		starts = append(starts, clock.current)
	}

	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, interval, "gap between request %d and %d", i-1, i)
	}
}

func TestRateGateSkipsSleepWhenIntervalAlreadyElapsed(t *testing.T) {
	gate, clock := newGateWithClock(time.Second)

	require.NoError(t, gate.Wait(context.Background()))
	clock.current = clock.current.Add(5 * time.Second)
	require.NoError(t, gate.Wait(context.Background()))

	assert.Empty(t, clock.slept)
}

func TestRateGatePausePushesNextRequest(t *testing.T) {
	interval := time.Second
	gate, clock := newGateWithClock(interval)

	require.NoError(t, gate.Wait(context.Background()))
	require.NoError(t, gate.Pause(context.Background(), time.Minute))
	pauseEnd := clock.current

	require.NoError(t, gate.Wait(context.Background()))

	assert.GreaterOrEqual(t, clock.current.Sub(pauseEnd), interval)
}

func TestRateGateWaitHonorsCancellation(t *testing.T) {
	gate, _ := newGateWithClock(time.Second)

	require.NoError(t, gate.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := gate.Wait(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
