// Bounded lock-free ring buffer queue (any capacity >= 2) with timed blocking push/pop
package queue

import (
	"context"
	"dblink/internal/atomics"
	"dblink/internal/global"
	"fmt"
	"runtime"
	"time"
)

// Waiters re-check the ring at this interval in case a wake signal went to another waiter
const pollInterval = 5 * time.Millisecond

// Creates a new queue. sizer may be nil when byte accounting is not needed.
func New[T any](namespace []string, capacity int, sizer func(T) int) (new *Queue[T], err error) {
	if capacity < 2 {
		err = fmt.Errorf("capacity must be greater than or equal to 2")
		return
	}

	buf := make([]cell[T], capacity)
	for i := range buf {
		buf[i].seq.Store(uint64(i))
	}

	ns := append(append([]string(nil), namespace...), global.NSQueue)
	new = &Queue[T]{
		Namespace: ns,
		Size:      capacity,
		buf:       buf,
		notEmpty:  make(chan struct{}, 1),
		notFull:   make(chan struct{}, 1),
		sizer:     sizer,
		Metrics:   &MetricStorage{},
	}
	return
}

// Attempts to write an element without waiting (non success = queue full).
// Safe to call from latency critical contexts such as driver callbacks.
func (queue *Queue[T]) TryPush(value T) (success bool) {
	queue.Metrics.PushAttempts.Add(1)

	capacity := uint64(queue.Size)
	var pos, seq uint64
	var slot *cell[T]

	for {
		pos = queue.tail.Load()
		slot = &queue.buf[pos%capacity]
		seq = slot.seq.Load()

		if seq == pos {
			if queue.tail.CompareAndSwap(pos, pos+1) {
				break
			}
			queue.Metrics.PushCASRetries.Add(1)
		} else if seq < pos {
			queue.Metrics.PushFull.Add(1)
			return
		} else {
			// Another producer claimed this slot, reload tail
			runtime.Gosched()
		}
	}

	slot.data = value
	slot.seq.Store(pos + 1)

	queue.Metrics.PushSuccess.Add(1)
	atomics.StoreMax(&queue.Metrics.HighWater, queue.Metrics.Depth.Add(1))
	if queue.sizer != nil {
		queue.Metrics.Bytes.Add(uint64(queue.sizer(value)))
	}

	signal(queue.notEmpty)
	success = true
	return
}

// Attempts to read an element without waiting. Returns false if empty.
func (queue *Queue[T]) TryPop() (out T, success bool) {
	queue.Metrics.PopAttempts.Add(1)

	capacity := uint64(queue.Size)
	var pos, seq uint64
	var slot *cell[T]

	for {
		pos = queue.head.Load()
		slot = &queue.buf[pos%capacity]
		seq = slot.seq.Load()
		readySeq := pos + 1

		if seq == readySeq {
			if queue.head.CompareAndSwap(pos, pos+1) {
				break
			}
			queue.Metrics.PopCASRetries.Add(1)
		} else if seq < readySeq {
			queue.Metrics.PopEmpty.Add(1)
			return
		} else {
			runtime.Gosched()
		}
	}

	out = slot.data
	var zero T
	slot.data = zero // drop reference so the slot does not keep buffers alive
	slot.seq.Store(pos + capacity)

	queue.Metrics.PopSuccess.Add(1)
	atomics.Subtract(&queue.Metrics.Depth, 1, 4)
	if queue.sizer != nil {
		atomics.Subtract(&queue.Metrics.Bytes, uint64(queue.sizer(out)), 4)
	}

	signal(queue.notFull)
	success = true
	return
}

// Writes value, waiting up to timeout for room.
// Returns ErrBackpressure when the queue stayed full, or the context error on cancellation.
func (queue *Queue[T]) Push(ctx context.Context, value T, timeout time.Duration) (err error) {
	if queue.TryPush(value) {
		return
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-deadline.C:
			// Last chance before reporting backpressure
			if queue.TryPush(value) {
				return
			}
			queue.Metrics.Backpressure.Add(1)
			err = fmt.Errorf("%w after %s", ErrBackpressure, timeout)
			return
		case <-queue.notFull:
		case <-poll.C:
		}

		if queue.TryPush(value) {
			return
		}
	}
}

// Reads the oldest value, waiting up to timeout for one to arrive.
// Returns ErrEmpty when nothing arrived, or the context error on cancellation.
func (queue *Queue[T]) Pop(ctx context.Context, timeout time.Duration) (out T, err error) {
	var ok bool
	out, ok = queue.TryPop()
	if ok {
		return
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-deadline.C:
			out, ok = queue.TryPop()
			if ok {
				return
			}
			err = ErrEmpty
			return
		case <-queue.notEmpty:
			queue.Metrics.PopWaitSignals.Add(1)
		case <-poll.C:
		}

		out, ok = queue.TryPop()
		if ok {
			return
		}
	}
}

// Current number of queued items
func (queue *Queue[T]) Len() (depth int) {
	tail := queue.tail.Load()
	head := queue.head.Load()
	if tail > head {
		depth = int(tail - head)
	}
	return
}

// Removes every queued item, passing each to release
func (queue *Queue[T]) Drain(release func(T)) (count int) {
	for {
		item, ok := queue.TryPop()
		if !ok {
			return
		}
		if release != nil {
			release(item)
		}
		count++
	}
}

// Non-blocking wake of one waiter
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
