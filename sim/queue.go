// sim/queue.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/atsim/atsim/util"
)

// QueueType identifies one of an airport's two runway queues.
type QueueType int

const (
	DepartureQueue QueueType = iota
	ArrivalQueue
	NumQueueTypes
)

// Opposite returns the other queue type.
func (q QueueType) Opposite() QueueType {
	if q == DepartureQueue {
		return ArrivalQueue
	}
	return DepartureQueue
}

func (q QueueType) String() string {
	switch q {
	case DepartureQueue:
		return "departure"
	case ArrivalQueue:
		return "arrival"
	default:
		return fmt.Sprintf("QueueType(%d)", int(q))
	}
}

// FlightQueue is a bounded FIFO of flights waiting for a runway. All
// methods may be called concurrently.
type FlightQueue struct {
	mu   sync.Mutex
	q    *util.RingQueue[FlightID]
	peak int
}

// NewFlightQueue returns a queue backed by a ring buffer with the given
// capacity, which must be a power of two; capacity-1 flights can be
// queued at once.
func NewFlightQueue(capacity int) *FlightQueue {
	return &FlightQueue{q: util.NewRingQueue[FlightID](capacity)}
}

// Push appends a flight to the back of the queue. It returns an error
// wrapping util.ErrRingQueueFull if the queue is full.
func (fq *FlightQueue) Push(id FlightID) error {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	if err := fq.q.Push(id); err != nil {
		return fmt.Errorf("flight %d: %w", id, err)
	}
	fq.peak = max(fq.peak, fq.q.Size())
	return nil
}

// Front returns the flight at the front of the queue without removing it.
func (fq *FlightQueue) Front() (FlightID, bool) {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	return fq.q.Front()
}

// TakeFront removes and returns the flight at the front of the queue.
func (fq *FlightQueue) TakeFront() (FlightID, bool) {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	id, ok := fq.q.Front()
	if ok {
		fq.q.Pop()
	}
	return id, ok
}

func (fq *FlightQueue) Len() int {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	return fq.q.Size()
}

// Peak returns the largest number of flights that have been in the queue
// at once.
func (fq *FlightQueue) Peak() int {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	return fq.peak
}

// Flights returns the queued flights, front first.
func (fq *FlightQueue) Flights() []FlightID {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	return fq.q.Items()
}

func (fq *FlightQueue) LogValue() slog.Value {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	return slog.GroupValue(
		slog.Int("len", fq.q.Size()),
		slog.Int("cap", fq.q.Cap()),
		slog.Int("peak", fq.peak))
}
