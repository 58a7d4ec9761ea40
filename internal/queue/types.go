package queue

import (
	"errors"
	"sync/atomic"
)

var (
	ErrBackpressure = errors.New("queue full: backpressure")
	ErrEmpty        = errors.New("queue empty")
)

type cell[T any] struct {
	seq  atomic.Uint64
	data T
}

// Bounded multi-producer multi-consumer FIFO
type Queue[T any] struct {
	Namespace []string
	Size      int
	buf       []cell[T]
	head      atomic.Uint64
	tail      atomic.Uint64
	notEmpty  chan struct{} // wakes one waiting consumer
	notFull   chan struct{} // wakes one waiting producer
	sizer     func(T) int   // optional byte accounting
	Metrics   *MetricStorage
}
