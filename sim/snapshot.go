// sim/snapshot.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"github.com/atsim/atsim/util"

	"github.com/brunoga/deep"
)

// Snapshot is a copy of the simulation state at the end of a tick. It
// shares no memory with the simulation, so it may be inspected while the
// simulation continues to run.
type Snapshot struct {
	Clock    SimTime
	Flights  []Flight
	Airports []AirportState
	Planes   []PlaneState
}

func (s *Sim) Snapshot() Snapshot {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	snap := Snapshot{
		Clock:    s.Clock,
		Flights:  make([]Flight, len(s.Flights)),
		Airports: make([]AirportState, len(s.Airports)),
		Planes:   make([]PlaneState, len(s.Planes)),
	}
	for i, fl := range s.Flights {
		snap.Flights[i] = deep.MustCopy(*fl)
	}
	for i, ap := range s.Airports {
		snap.Airports[i] = ap.State()
	}
	for i, p := range s.Planes {
		snap.Planes[i] = p.State()
	}
	return snap
}

// Callsigns returns the callsigns of the given flights.
func (snap *Snapshot) Callsigns(ids []FlightID) []string {
	return util.MapSlice(ids, func(id FlightID) string { return snap.Flights[id].Callsign() })
}

// CountByState returns the number of flights in each state.
func (snap *Snapshot) CountByState() [NumFlightStates]int {
	var counts [NumFlightStates]int
	for _, fl := range snap.Flights {
		counts[fl.State]++
	}
	return counts
}
