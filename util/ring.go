// util/ring.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
)

var ErrRingQueueFull = errors.New("Ring queue is full")

///////////////////////////////////////////////////////////////////////////
// RingQueue

// RingQueue is a fixed-capacity FIFO queue stored in a circular buffer.
// The buffer size must be a power of two so that the head and tail
// indices can be wrapped with a mask; one slot is always left empty so
// that a full queue can be distinguished from an empty one. A full
// RingQueue rejects new items rather than discarding old ones.
//
// RingQueue is not safe for concurrent use.
type RingQueue[T any] struct {
	buf        []T
	mask       int
	head, tail int
}

// NewRingQueue returns a RingQueue with the given buffer size, which must
// be a power of two no smaller than 2. It is able to hold capacity-1
// items.
func NewRingQueue[T any](capacity int) *RingQueue[T] {
	if !IsPowerOfTwo(capacity) || capacity < 2 {
		panic(fmt.Sprintf("%d: ring queue capacity must be a power of two >= 2", capacity))
	}
	return &RingQueue[T]{
		buf:  make([]T, capacity),
		mask: capacity - 1,
	}
}

// IsPowerOfTwo returns true if n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Push adds an item at the tail of the queue. If the queue is full, the
// item is not added and ErrRingQueueFull is returned.
func (q *RingQueue[T]) Push(item T) error {
	if q.Size() == q.mask {
		return ErrRingQueueFull
	}
	q.buf[q.tail] = item
	q.tail = (q.tail + 1) & q.mask
	return nil
}

// Pop removes the item at the head of the queue; it does nothing if the
// queue is empty.
func (q *RingQueue[T]) Pop() {
	if q.head == q.tail {
		return
	}
	var zero T
	q.buf[q.head] = zero
	q.head = (q.head + 1) & q.mask
}

// Front returns the item at the head of the queue without removing it.
// The returned Boolean is false if the queue is empty.
func (q *RingQueue[T]) Front() (T, bool) {
	if q.head == q.tail {
		var zero T
		return zero, false
	}
	return q.buf[q.head], true
}

// Size returns the number of items currently in the queue.
func (q *RingQueue[T]) Size() int {
	return (q.tail - q.head) & q.mask
}

// Cap returns the maximum number of items the queue can hold.
func (q *RingQueue[T]) Cap() int {
	return q.mask
}

// Items returns a copy of the queue's items, from head to tail.
func (q *RingQueue[T]) Items() []T {
	items := make([]T, 0, q.Size())
	for i := q.head; i != q.tail; i = (i + 1) & q.mask {
		items = append(items, q.buf[i])
	}
	return items
}
