package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// steppedClock advances one interval per reading, making the emitted
// sequence deterministic regardless of scheduling.
func steppedClock(base time.Time, interval time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		t := base.Add(time.Duration(calls) * interval)
		calls++
		return t
	}
}

func TestCountdown_CountsDownToZeroAndCloses(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	interval := time.Millisecond

	ch := countdown(context.Background(), base.Add(3*interval), interval, steppedClock(base, interval))

	var got []int
	for v := range ch {
		got = append(got, v)
	}
	require.Equal(t, []int{3, 2, 1, 0}, got)
}

func TestCountdown_AlreadyExpired(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	interval := time.Millisecond

	ch := countdown(context.Background(), base.Add(-time.Hour), interval, steppedClock(base, interval))

	var got []int
	for v := range ch {
		got = append(got, v)
	}
	require.Equal(t, []int{0}, got)
}

func TestCountdown_CancellationTearsDown(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	interval := 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	ch := countdown(ctx, base.Add(time.Hour), interval, steppedClock(base, interval))

	first, ok := <-ch
	require.True(t, ok)
	require.Positive(t, first)

	cancel()
	for {
		if _, ok := <-ch; !ok {
			return // closed without draining the full countdown
		}
	}
}
