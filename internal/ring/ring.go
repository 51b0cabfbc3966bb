// Package ring implements a fixed-capacity, power-of-two, lock-free SPSC
// (single-producer, single-consumer) queue. It is the hand-off between the
// session goroutine (producer) and the book worker goroutine (consumer).
//
// Grounded on the padded-counter, acquire/release discipline used by
// loki's orderbook.RetireRing and the masked atomic head/tail pattern from
// finalex's order ring buffer: head and tail live on separate cache lines,
// and usable capacity is Capacity-1 so head==tail unambiguously means empty.
package ring

import "sync/atomic"

// cacheLinePad reserves the rest of a 64-byte cache line after a uint64
// counter, so the producer's head and the consumer's tail never share a
// line and thrash each other's cache.
type cacheLinePad [56]byte

// Ring is a bounded SPSC queue of T. Capacity must be a power of two;
// NewRing panics otherwise. Only one goroutine may call the producer
// methods (TryEmplace) and only one goroutine may call the consumer
// methods (TryPop) concurrently.
type Ring[T any] struct {
	head uint64
	_    cacheLinePad
	tail uint64
	_    cacheLinePad

	mask uint64
	buf  []T
}

// NewRing allocates a ring with the given power-of-two capacity.
func NewRing[T any](capacity uint64) *Ring[T] {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a power of two")
	}
	return &Ring[T]{
		mask: capacity - 1,
		buf:  make([]T, capacity),
	}
}

// TryEmplace constructs msg into the next producer slot. Returns false
// without writing anything if the ring is full (usable capacity is
// Capacity-1, one slot reserved to disambiguate full from empty).
func (r *Ring[T]) TryEmplace(msg T) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head-tail >= uint64(len(r.buf))-1 {
		return false
	}
	r.buf[head&r.mask] = msg
	atomic.StoreUint64(&r.head, head+1)
	return true
}

// TryPop moves the front message into *out. Returns false, leaving *out
// untouched, if the ring is empty.
func (r *Ring[T]) TryPop(out *T) bool {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	if tail == head {
		return false
	}
	idx := tail & r.mask
	*out = r.buf[idx]
	var zero T
	r.buf[idx] = zero
	atomic.StoreUint64(&r.tail, tail+1)
	return true
}

// Size returns the number of messages currently queued. Consistent from
// the caller's own side only (producer and consumer may observe slightly
// different values of the other side's cursor).
func (r *Ring[T]) Size() int {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	return int(head - tail)
}

// Empty reports whether the ring currently holds no messages.
func (r *Ring[T]) Empty() bool {
	return atomic.LoadUint64(&r.head) == atomic.LoadUint64(&r.tail)
}

// Capacity returns the usable capacity (Capacity-1 slots of the backing array).
func (r *Ring[T]) Capacity() int {
	return len(r.buf) - 1
}
