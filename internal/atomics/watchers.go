// Helper functions that deal with atomic variables and their values
package atomics

import (
	"context"
	"time"
)

// Polls probe until it reports 0 on three consecutive reads, the timeout expires or ctx ends.
// Used to wait for queues to drain before shutdown.
func WaitUntilZero(ctx context.Context, probe func() uint64, timeout time.Duration) (reachedZero bool, lastValue uint64) {
	const successfulStreakCount = 3
	const maxBackoff = 250 * time.Millisecond

	backoff := 10 * time.Millisecond
	deadline := time.Now().Add(timeout)
	zeroStreak := 0

	for {
		lastValue = probe()
		if lastValue == 0 {
			zeroStreak++
			if zeroStreak >= successfulStreakCount {
				reachedZero = true
				return
			}
		} else {
			zeroStreak = 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}

		sleep := min(backoff, remaining)
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}
