package atomics

import (
	"sync/atomic"
	"time"
)

// Tries to subtract value from the atomic source, flooring at 0. Success if already 0.
// Retries up to maxRetries times with doubling backoff when the CAS loses a race.
func Subtract(source *atomic.Uint64, value uint64, maxRetries int) (success bool) {
	retryInterval := time.Microsecond * 10

	for range maxRetries {
		current := source.Load()
		if current == 0 {
			success = true
			return
		}

		newValue := uint64(0)
		if value < current {
			newValue = current - value
		}

		if source.CompareAndSwap(current, newValue) {
			success = true
			return
		}

		time.Sleep(retryInterval)
		retryInterval *= 2
	}
	return
}

// Raises target to value if value is larger (high watermark tracking)
func StoreMax(target *atomic.Uint64, value uint64) {
	for {
		current := target.Load()
		if value <= current || target.CompareAndSwap(current, value) {
			return
		}
	}
}
