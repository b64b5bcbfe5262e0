// sim/sim_test.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	av "github.com/atsim/atsim/aviation"
	"github.com/atsim/atsim/log"
	"github.com/atsim/atsim/rand"
	"github.com/atsim/atsim/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWriter(io.Discard, "info")
}

func newTestSim(t *testing.T, config Config, schedule string) *Sim {
	t.Helper()

	var e util.ErrorLogger
	recs := av.ReadSchedule(strings.NewReader(schedule), &e)
	require.False(t, e.HaveErrors(), e.String())

	s, err := NewSim(config, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.AddFlights(recs))
	t.Cleanup(s.Destroy)

	return s
}

// checkPlaneUse reports whether every busy plane is held by exactly one
// flight that is between its gate departure and its arrival, and every
// such flight's plane is busy.
func checkPlaneUse(t *testing.T, snap Snapshot) bool {
	t.Helper()

	holders := make([]int, len(snap.Planes))
	for _, fl := range snap.Flights {
		if fl.State >= DepartureTaxi && fl.State <= ArrivalTaxi {
			holders[fl.Plane]++
		}
	}

	ok := true
	for i, p := range snap.Planes {
		if holders[i] > 1 || p.Busy != (holders[i] == 1) {
			t.Errorf("%s: plane %s busy=%v but held by %d flights", snap.Clock, p.ID, p.Busy, holders[i])
			ok = false
		}
	}
	return ok
}

func states(fl Flight) []FlightState {
	st := []FlightState{StandBy}
	for _, h := range fl.History {
		st = append(st, h.To)
	}
	return st
}

func TestSingleFlight(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "AC 101 7 YYZ 08:00 60 YUL\nend\n")
	require.Equal(t, av.SimTimeFromHM(8, 0), s.Clock)

	r, err := s.Run(nil)
	require.NoError(t, err)

	require.Len(t, r.Completed, 1)
	assert.Empty(t, r.Incomplete)
	assert.False(t, r.CeilingReached)

	l := r.Completed[0]
	assert.Equal(t, 0, l.Delay())
	assert.Equal(t, av.SimTimeFromHM(9, 20), l.Arrival)
	assert.Equal(t, "[09:20] AC 101 from YYZ to YUL, departed 08:00, delay 0.", l.String())

	// One extra tick is needed to observe that the flight is complete.
	assert.Equal(t, av.SimTimeFromHM(9, 22), r.FinalClock)

	fl := s.Snapshot().Flights[0]
	assert.Equal(t, []FlightState{StandBy, DepartureTaxi, WaitToTakeoff, EnRoute, WaitToLand, ArrivalTaxi,
		Complete}, states(fl))
	assert.Equal(t, av.SimTimeFromHM(8, 0), fl.Times.Gate)
	assert.Equal(t, av.SimTimeFromHM(8, 10), fl.Times.Departure)
	assert.Equal(t, av.SimTimeFromHM(9, 10), fl.Times.Land)
}

func TestSharedPlaneWaitsForGrooming(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), `
AC 101 7 YYZ 08:00 60 YUL
AC 102 7 YUL 08:30 45 YYZ
end`)

	r, err := s.Run(nil)
	require.NoError(t, err)
	require.Len(t, r.Completed, 2)

	snap := s.Snapshot()
	first, second := snap.Flights[0], snap.Flights[1]

	assert.Equal(t, []FlightState{StandBy, WaitForPlane, DepartureTaxi, WaitToTakeoff, EnRoute, WaitToLand,
		ArrivalTaxi, Complete}, states(second))

	// The plane reaches the YUL gate at 09:20 and is then groomed for 30
	// minutes.
	assert.Equal(t, av.SimTimeFromHM(9, 20), first.Times.Arrival)
	assert.Equal(t, first.Times.Arrival.Add(av.GroomDuration), second.Times.Gate)

	l := r.Completed[1]
	assert.Equal(t, "AC102", l.Callsign())
	assert.Equal(t, av.SimTimeFromHM(10, 55), l.Arrival)
	assert.Equal(t, 80, l.Delay())

	p, err := s.Plane("7")
	require.NoError(t, err)
	ps := p.State()
	yyz, err := s.Airport("YYZ")
	require.NoError(t, err)
	assert.Equal(t, AtAirport(yyz.ID), ps.Location)
	assert.False(t, ps.Busy)
}

func TestSimultaneousDepartures(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), `
AC 1 A YYZ 08:00 60 YUL
AC 2 B YYZ 08:00 60 YOW
end`)

	r, err := s.Run(nil)
	require.NoError(t, err)
	require.Len(t, r.Completed, 2)

	snap := s.Snapshot()
	assert.Equal(t, av.SimTimeFromHM(8, 10), snap.Flights[0].Times.Departure)
	assert.Equal(t, av.SimTimeFromHM(8, 11), snap.Flights[1].Times.Departure)

	assert.Equal(t, 0, r.Completed[0].Delay())
	assert.Equal(t, 1, r.Completed[1].Delay())
}

func TestCeiling(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "AC 9 1 YYZ 23:59 120 YVR\n")
	sub := s.Subscribe()
	defer sub.Unsubscribe()

	r, err := s.Run(nil)
	require.NoError(t, err)

	assert.True(t, r.CeilingReached)
	assert.Equal(t, av.MinutesPerDay, r.FinalClock)
	assert.Empty(t, r.Completed)
	require.Len(t, r.Incomplete, 1)
	assert.Equal(t, DepartureTaxi, r.Incomplete[0].State)
	assert.Equal(t, "AC 9 from YYZ to YVR: DepartureTaxi", r.Incomplete[0].String())

	events := sub.Get()
	require.NotEmpty(t, events)
	assert.Equal(t, CeilingReachedEvent, events[len(events)-1].Type)
}

func TestNoFlights(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "end\n")

	r, err := s.Run(nil)
	require.NoError(t, err)
	assert.Empty(t, r.Completed)
	assert.Empty(t, r.Incomplete)
}

func TestPlaneNeverArrives(t *testing.T) {
	// Plane 3 starts at YYZ, so the YUL flight waits for it forever.
	s := newTestSim(t, DefaultConfig(), `
AC 1 3 YYZ 08:00 60 YOW
AC 2 3 YUL 08:00 60 YYZ
end`)

	r, err := s.Run(nil)
	require.NoError(t, err)
	assert.True(t, r.CeilingReached)
	require.Len(t, r.Completed, 1)
	require.Len(t, r.Incomplete, 1)
	assert.Equal(t, WaitForPlane, r.Incomplete[0].State)

	assert.Equal(t, []string{"AC2"}, s.FlightsInState(WaitForPlane))
}

func TestQueueOverflow(t *testing.T) {
	config := DefaultConfig()
	config.QueueCapacity = 2 // one usable slot

	s := newTestSim(t, config, `
AC 1 A YYZ 08:00 60 YUL
AC 2 B YYZ 08:00 60 YUL
end`)

	_, err := s.Run(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrRingQueueFull), "%v", err)
	assert.Contains(t, err.Error(), "08:10")
}

func TestAddFlightAfterStart(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "AC 1 A YYZ 08:00 60 YUL\n")
	_, err := s.Step()
	require.NoError(t, err)

	rec, err := av.ParseFlightRecord("AC 2 B YYZ 09:00 60 YUL")
	require.NoError(t, err)
	_, err = s.AddFlight(rec)
	assert.ErrorIs(t, err, ErrSimRunning)
}

func TestInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Ceiling = 0
	config.QueueCapacity = 12

	_, err := NewSim(config, testLogger())
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "ceiling")
	assert.Contains(t, err.Error(), "12")
}

func TestStartClockIsEarliestScheduled(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), `
AC 1 A YYZ 10:00 60 YUL
WS 5 B YUL 06:15 60 YYZ
end`)
	assert.Equal(t, av.SimTimeFromHM(6, 15), s.Clock)
}

func TestFlightDisplayState(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "AC 101 7 YYZ 08:00 60 YUL\n")
	for range 15 {
		_, err := s.Step()
		require.NoError(t, err)
	}

	ds, err := s.GetFlightDisplayState("ac101")
	require.NoError(t, err)
	assert.Equal(t, "AC101 YYZ-YUL en route, departed 08:10, due 09:10", ds.Summary)
	assert.Contains(t, ds.Spew, "AC")

	_, err = s.GetFlightDisplayState("XX1")
	assert.ErrorIs(t, err, ErrNoMatchingFlight)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "AC 101 7 YYZ 08:00 60 YUL\n")
	_, err := s.Step()
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Flights[0].History, 1)

	_, err = s.Run(nil)
	require.NoError(t, err)

	assert.Len(t, snap.Flights[0].History, 1)
	assert.Equal(t, DepartureTaxi, snap.Flights[0].State)
	assert.True(t, snap.Planes[0].Busy)
	assert.Equal(t, 1, snap.CountByState()[DepartureTaxi])
}

func TestRunObserverStops(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "AC 101 7 YYZ 08:00 60 YUL\n")

	ticks := 0
	r, err := s.Run(func(*Sim) bool {
		ticks++
		return ticks < 5
	})
	require.NoError(t, err)
	assert.Equal(t, 5, ticks)
	assert.Len(t, r.Incomplete, 1)
	assert.Equal(t, av.SimTimeFromHM(8, 5), r.FinalClock)
}

func TestEvents(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), `
AC 101 7 YYZ 08:00 60 YUL
AC 102 7 YUL 08:30 45 YYZ
end`)
	sub := s.Subscribe()
	defer sub.Unsubscribe()

	r, err := s.Run(nil)
	require.NoError(t, err)

	counts := make(map[EventType]int)
	var logs []av.FlightLog
	for _, e := range sub.Get() {
		counts[e.Type]++
		if e.Type == FlightCompletedEvent {
			require.NotNil(t, e.Log)
			logs = append(logs, *e.Log)
		}
	}
	assert.Equal(t, 4, counts[RunwayAdmissionEvent])
	assert.Equal(t, 4, counts[FlightQueuedEvent])
	assert.Equal(t, 1, counts[PlaneUnavailableEvent])
	assert.Equal(t, r.Completed, logs)
}

func TestConcurrentMatchesSequential(t *testing.T) {
	gc := DefaultGeneratorConfig()
	gc.Flights = 300
	gc.Airports = 6
	gc.Planes = 25
	recs := GenerateSchedule(gc, rand.NewSeeded(1234))

	run := func(mode Mode) *Result {
		config := DefaultConfig()
		config.Mode = mode
		config.Ceiling = 4 * av.MinutesPerDay

		s, err := NewSim(config, testLogger())
		require.NoError(t, err)
		defer s.Destroy()
		require.NoError(t, s.AddFlights(recs))

		ticks := 0
		r, err := s.Run(func(s *Sim) bool {
			ticks++
			return checkPlaneUse(t, s.Snapshot())
		})
		require.NoError(t, err)
		require.Positive(t, ticks)

		for _, l := range r.Completed {
			assert.GreaterOrEqual(t, l.Delay(), 0, l.String())
		}
		for _, fl := range s.Snapshot().Flights {
			prev := StandBy
			for _, h := range fl.History {
				assert.Equal(t, prev, h.From)
				assert.True(t, LegalTransition(h.From, h.To), "%s: %s -> %s", fl.Callsign(), h.From, h.To)
				prev = h.To
			}
		}
		return r
	}

	seq := run(Sequential)
	conc := run(Concurrent)

	assert.Len(t, seq.Completed, len(recs))
	assert.Empty(t, seq.Incomplete)
	assert.Equal(t, seq, conc)
}

func TestConcurrentQueueOverflow(t *testing.T) {
	config := DefaultConfig()
	config.Mode = Concurrent
	config.QueueCapacity = 2

	s := newTestSim(t, config, `
AC 1 A YYZ 08:00 60 YUL
AC 2 B YOW 08:00 60 YUL
end`)

	_, err := s.Run(nil)
	require.ErrorIs(t, err, util.ErrRingQueueFull)
}

func TestResultArchive(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), `
AC 101 7 YYZ 08:00 60 YUL
AC 102 7 YUL 08:30 45 YYZ
AC 103 8 YVR 23:00 240 YYZ
end`)
	r, err := s.Run(nil)
	require.NoError(t, err)

	fn := filepath.Join(t.TempDir(), "result.msgpack.zst")
	require.NoError(t, util.WriteArchive(fn, r))

	var r2 Result
	require.NoError(t, util.ReadArchive(fn, &r2))
	assert.Equal(t, *r, r2)
}

func TestPlaneStartsAtFirstMentionedOrigin(t *testing.T) {
	// WS 5 sorts after AC 1 but is listed first, so plane P starts at
	// YUL and both flights can leave on time.
	s := newTestSim(t, DefaultConfig(), `
WS 5 P YUL 06:00 60 YYZ
AC 1 P YYZ 10:00 60 YUL
end`)

	p, err := s.Plane("P")
	require.NoError(t, err)
	yul, err := s.Airport("YUL")
	require.NoError(t, err)
	assert.Equal(t, AtAirport(yul.ID), p.Location())

	// Flights are still updated in carrier and number order.
	assert.Equal(t, "AC1", s.Flights[0].Callsign())
	assert.Equal(t, "WS5", s.Flights[1].Callsign())

	r, err := s.Run(func(s *Sim) bool { return checkPlaneUse(t, s.Snapshot()) })
	require.NoError(t, err)
	require.Len(t, r.Completed, 2)
	assert.Equal(t, "[07:20] WS 5 from YUL to YYZ, departed 06:00, delay 0.", r.Completed[0].String())
	assert.Equal(t, "[11:20] AC 1 from YYZ to YUL, departed 10:00, delay 0.", r.Completed[1].String())
}

func TestAddFlightsRejectsInvalidSchedule(t *testing.T) {
	s, err := NewSim(DefaultConfig(), testLogger())
	require.NoError(t, err)
	defer s.Destroy()

	recs := []av.FlightRecord{
		{Carrier: "AC", Number: 1, Plane: "A", Origin: "YYZ", Scheduled: 480, Duration: 60, Destination: "YUL"},
		{Carrier: "AC", Number: 2, Plane: "B", Origin: "YYZ", Scheduled: 480, Duration: 0, Destination: "YUL"},
	}
	err = s.AddFlights(recs)
	require.ErrorIs(t, err, av.ErrInvalidDuration)
	assert.Contains(t, err.Error(), "AC2")
	assert.Empty(t, s.Flights)
	assert.Empty(t, s.Planes)
	assert.Empty(t, s.Airports)
}

func TestRunObservesFinalTick(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), "AC 101 7 YYZ 08:00 60 YUL\n")

	var last SimTime
	var complete bool
	r, err := s.Run(func(s *Sim) bool {
		snap := s.Snapshot()
		last = snap.Clock
		complete = snap.Flights[0].State == Complete
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, r.FinalClock, last)
	assert.True(t, complete)
}
