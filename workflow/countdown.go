package workflow

import (
	"context"
	"time"
)

// Countdown emits the remaining whole seconds until expiresAt on a
// one-second tick, ending with a final 0. The channel closes when the
// countdown finishes or ctx is canceled.
func Countdown(ctx context.Context, expiresAt time.Time) <-chan int {
	return countdown(ctx, expiresAt, time.Second, time.Now)
}

func countdown(ctx context.Context, expiresAt time.Time, interval time.Duration, now func() time.Time) <-chan int {
	ch := make(chan int)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			remaining := expiresAt.Sub(now())
			steps := int((remaining + interval - 1) / interval)
			if steps < 0 {
				steps = 0
			}
			select {
			case ch <- steps:
			case <-ctx.Done():
				return
			}
			if steps == 0 {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
