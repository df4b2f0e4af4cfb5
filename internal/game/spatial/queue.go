package spatial

// Bounded MPSC ring buffer (Vyukov). Each slot carries a sequence number so
// a consumer never observes a slot whose payload has not been published.
//
// Producers: HTTP handlers, WebSocket readers, terminal input.
// Consumer: the engine loop, draining at tick boundaries.

import (
	"sync/atomic"
)

// CacheLineSize is the typical CPU cache line size (64 bytes on x86-64)
const CacheLineSize = 64

type pad [CacheLineSize]byte

type slot[T any] struct {
	seq  atomic.Uint64
	item T
}

// CommandQueue is a lock-free multi-producer single-consumer queue.
type CommandQueue[T any] struct {
	_     pad
	head  atomic.Uint64 // next write position
	_     pad
	tail  atomic.Uint64 // next read position (single consumer)
	_     pad
	mask  uint64
	slots []slot[T]
}

// NewCommandQueue creates a queue. capacity is rounded up to a power of two.
func NewCommandQueue[T any](capacity int) *CommandQueue[T] {
	size := 1
	for size < capacity {
		size <<= 1
	}
	q := &CommandQueue[T]{
		mask:  uint64(size - 1),
		slots: make([]slot[T], size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush enqueues item. Returns false when the queue is full.
func (q *CommandQueue[T]) TryPush(item T) bool {
	for {
		pos := q.head.Load()
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch {
		case seq == pos:
			if q.head.CompareAndSwap(pos, pos+1) {
				s.item = item
				s.seq.Store(pos + 1)
				return true
			}
		case seq < pos:
			return false
		}
	}
}

// TryPop dequeues one item. Only one goroutine may pop.
func (q *CommandQueue[T]) TryPop() (T, bool) {
	var zero T
	pos := q.tail.Load()
	s := &q.slots[pos&q.mask]
	if s.seq.Load() != pos+1 {
		return zero, false
	}
	item := s.item
	s.item = zero
	s.seq.Store(pos + q.mask + 1)
	q.tail.Store(pos + 1)
	return item, true
}

// DrainTo pops up to len(buf) items into buf and returns the count.
func (q *CommandQueue[T]) DrainTo(buf []T) int {
	n := 0
	for n < len(buf) {
		item, ok := q.TryPop()
		if !ok {
			break
		}
		buf[n] = item
		n++
	}
	return n
}

// Len returns an approximate number of queued items.
func (q *CommandQueue[T]) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

// Cap returns the queue capacity.
func (q *CommandQueue[T]) Cap() int {
	return len(q.slots)
}
