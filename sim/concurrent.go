// sim/concurrent.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"log/slog"
	"time"

	"github.com/atsim/atsim/log"
	"github.com/atsim/atsim/util"

	"golang.org/x/sync/errgroup"
)

// concurrentRunways runs each airport's ManageRunway on its own
// long-lived goroutine. Every tick, the driver and all of the workers
// meet at the start barrier, the workers manage their runways, and then
// everyone meets again at the end barrier, so no worker runs ahead of or
// behind the simulation clock.
type concurrentRunways struct {
	w          *World
	start, end *util.Barrier
	eg         errgroup.Group

	// now and stop are written by the driver before it waits at the
	// start barrier and read by the workers after it; errs is written by
	// each worker before the end barrier and read by the driver after
	// it. The barriers' mutex orders these accesses.
	now  SimTime
	stop bool
	errs []error

	lg *log.Logger
}

func newConcurrentRunways(w *World, stall time.Duration, lg *log.Logger) *concurrentRunways {
	n := len(w.Airports)
	c := &concurrentRunways{
		w:     w,
		start: util.NewBarrier("runway start", n+1, lg),
		end:   util.NewBarrier("runway end", n+1, lg),
		errs:  make([]error, n),
		lg:    lg,
	}
	c.start.StallWarning = stall
	c.end.StallWarning = stall

	for i, ap := range w.Airports {
		c.eg.Go(func() error {
			c.work(i, ap)
			return nil
		})
	}
	lg.Info("started runway workers", slog.Int("airports", n))

	return c
}

func (c *concurrentRunways) work(i int, ap *Airport) {
	lg := c.lg.With(slog.String("airport", ap.Code))
	for {
		c.start.Wait()
		if c.stop {
			lg.Debug("runway worker exiting")
			return
		}

		_, _, c.errs[i] = ap.ManageRunway(c.now, c.w)

		c.end.Wait()
	}
}

// ManageRunways releases the workers for the given minute and waits for
// all of them to finish. Errors from all airports are joined.
func (c *concurrentRunways) ManageRunways(now SimTime) error {
	c.now = now
	c.start.Wait()
	c.end.Wait()

	err := errors.Join(c.errs...)
	clear(c.errs)
	return err
}

// Close stops the workers and waits for them to exit.
func (c *concurrentRunways) Close() error {
	c.stop = true
	c.start.Wait()
	return c.eg.Wait()
}

func (c *concurrentRunways) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("start", c.start),
		slog.Any("end", c.end),
		slog.String("now", c.now.String()))
}
