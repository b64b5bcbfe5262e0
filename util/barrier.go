// util/barrier.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"log/slog"
	"sync"
	"time"

	"github.com/atsim/atsim/log"
)

// Barrier is a reusable rendezvous point for a fixed number of
// goroutines: each call to Wait blocks until all parties have called it,
// after which all are released and the barrier resets for the next round.
type Barrier struct {
	name    string
	parties int

	mu         sync.Mutex
	cond       *sync.Cond
	waiting    int
	generation uint64

	// If non-zero, a goroutine that has been waiting longer than this
	// logs a warning along with the current system load.
	StallWarning time.Duration

	lg *log.Logger
}

func NewBarrier(name string, parties int, lg *log.Logger) *Barrier {
	if parties < 1 {
		panic("barrier must have at least one party")
	}
	b := &Barrier{
		name:    name,
		parties: parties,
		lg:      lg,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Parties returns the number of goroutines that must call Wait before
// any of them are released.
func (b *Barrier) Parties() int {
	return b.parties
}

// Wait blocks until all parties have called Wait for the current round.
func (b *Barrier) Wait() {
	b.mu.Lock()
	gen := b.generation
	b.waiting++

	if b.waiting == b.parties {
		// Last one in; release everyone and start the next round.
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}

	var stall *time.Timer
	if d := b.stallThreshold(); d > 0 {
		start := time.Now()
		stall = time.AfterFunc(d, func() {
			b.lg.Warn("stalled waiting at barrier", slog.String("barrier", b.name),
				slog.Int("parties", b.parties), slog.Duration("waited", time.Since(start)))
			LogSystemLoad(b.lg)
		})
	}

	for gen == b.generation {
		b.cond.Wait()
	}
	b.mu.Unlock()

	if stall != nil {
		stall.Stop()
	}
}

func (b *Barrier) stallThreshold() time.Duration {
	if b.StallWarning == 0 || DebuggerIsRunning() {
		return 0
	}
	if log.RaceEnabled {
		// Everything is much slower under the race detector.
		return 10 * b.StallWarning
	}
	return b.StallWarning
}

func (b *Barrier) LogValue() slog.Value {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slog.GroupValue(
		slog.String("name", b.name),
		slog.Int("parties", b.parties),
		slog.Int("waiting", b.waiting),
		slog.Uint64("generation", b.generation))
}
