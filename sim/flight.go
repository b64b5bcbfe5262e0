// sim/flight.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"

	av "github.com/atsim/atsim/aviation"
)

// FlightID is the index of a flight in the simulation's flight arena.
type FlightID int

type FlightState int

const (
	StandBy FlightState = iota
	WaitForPlane
	DepartureTaxi
	WaitToTakeoff
	EnRoute
	WaitToLand
	ArrivalTaxi
	Complete
	NumFlightStates
)

var flightStateNames = [NumFlightStates]string{"StandBy", "WaitForPlane", "DepartureTaxi", "WaitToTakeoff",
	"EnRoute", "WaitToLand", "ArrivalTaxi", "Complete"}

func (s FlightState) String() string {
	if s < 0 || s >= NumFlightStates {
		return fmt.Sprintf("FlightState(%d)", int(s))
	}
	return flightStateNames[s]
}

// legalTransitions gives the states that a flight may move to from each
// state.
var legalTransitions = [NumFlightStates][]FlightState{
	StandBy:       {WaitForPlane, DepartureTaxi},
	WaitForPlane:  {DepartureTaxi},
	DepartureTaxi: {WaitToTakeoff},
	WaitToTakeoff: {EnRoute},
	EnRoute:       {WaitToLand},
	WaitToLand:    {ArrivalTaxi},
	ArrivalTaxi:   {Complete},
}

// LegalTransition returns true if a flight may go directly from state
// from to state to.
func LegalTransition(from, to FlightState) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FlightTimes records the times of the milestones in a flight's life.
// Times for milestones that haven't happened yet are zero.
type FlightTimes struct {
	Scheduled SimTime
	Gate      SimTime // plane claimed at the gate
	Departure SimTime // takeoff
	Land      SimTime
	Arrival   SimTime // at the destination gate
	Duration  int     // minutes in the air
}

type SimTime = av.SimTime

// StateChange records a single transition in a flight's state.
type StateChange struct {
	Time     SimTime
	From, To FlightState
}

type Flight struct {
	ID          FlightID
	Carrier     string
	Number      int
	Origin      AirportID
	Destination AirportID
	Plane       PlaneID
	State       FlightState
	Times       FlightTimes
	History     []StateChange
}

func (fl *Flight) Callsign() string {
	return av.Callsign(fl.Carrier, fl.Number)
}

func (fl *Flight) transition(now SimTime, to FlightState) {
	fl.History = append(fl.History, StateChange{Time: now, From: fl.State, To: to})
	fl.State = to
}

// Update advances the flight's state machine for the minute now. Flights
// waiting for a runway are advanced by their airport's ManageRunway, not
// by Update. It returns false only if the flight was already complete
// when it was called; a flight that completes during this call still
// reports that it needed the update.
func (fl *Flight) Update(now SimTime, w *World) (bool, error) {
	switch fl.State {
	case StandBy:
		if now < fl.Times.Scheduled {
			break
		}
		if w.Planes[fl.Plane].ClaimFor(fl.Origin) {
			fl.claimPlane(now)
		} else {
			fl.transition(now, WaitForPlane)
			w.post(Event{Type: PlaneUnavailableEvent, Time: now, Flight: fl.ID, Callsign: fl.Callsign(),
				Airport: w.Airports[fl.Origin].Code, Plane: w.Planes[fl.Plane].ID})
		}

	case WaitForPlane:
		if w.Planes[fl.Plane].ClaimFor(fl.Origin) {
			fl.claimPlane(now)
		}

	case DepartureTaxi:
		if now >= fl.Times.Gate.Add(av.TaxiDuration) {
			ap := w.Airports[fl.Origin]
			if err := ap.Enqueue(DepartureQueue, fl.ID); err != nil {
				return true, err
			}
			fl.transition(now, WaitToTakeoff)
			w.post(Event{Type: FlightQueuedEvent, Time: now, Flight: fl.ID, Callsign: fl.Callsign(),
				Airport: ap.Code, Queue: DepartureQueue})
		}

	case EnRoute:
		if now >= fl.Times.Departure.Add(fl.Times.Duration) {
			ap := w.Airports[fl.Destination]
			if err := ap.Enqueue(ArrivalQueue, fl.ID); err != nil {
				return true, err
			}
			fl.transition(now, WaitToLand)
			w.post(Event{Type: FlightQueuedEvent, Time: now, Flight: fl.ID, Callsign: fl.Callsign(),
				Airport: ap.Code, Queue: ArrivalQueue})
		}

	case ArrivalTaxi:
		if now >= fl.Times.Land.Add(av.TaxiDuration) {
			if err := w.Planes[fl.Plane].Release(fl.Destination, w.groomDuration); err != nil {
				return true, err
			}
			fl.Times.Arrival = now
			fl.transition(now, Complete)

			log := fl.Log(w)
			w.lg.Info("flight complete", slog.Any("flight", log))
			w.post(Event{Type: FlightCompletedEvent, Time: now, Flight: fl.ID, Callsign: fl.Callsign(),
				Airport: log.Destination, Log: &log})
		}

	case Complete:
		return false, nil
	}

	return true, nil
}

func (fl *Flight) claimPlane(now SimTime) {
	fl.Times.Gate = now
	fl.transition(now, DepartureTaxi)
}

// Log returns the flight's log entry. It is only meaningful once the
// flight is complete.
func (fl *Flight) Log(w *World) av.FlightLog {
	return av.FlightLog{
		Carrier:     fl.Carrier,
		Number:      fl.Number,
		Origin:      w.Airports[fl.Origin].Code,
		Destination: w.Airports[fl.Destination].Code,
		Scheduled:   fl.Times.Scheduled,
		Arrival:     fl.Times.Arrival,
		Duration:    fl.Times.Duration,
	}
}

// Summary returns a one-line human-readable description of the flight's
// current state.
func (fl *Flight) Summary(w *World) string {
	route := w.Airports[fl.Origin].Code + "-" + w.Airports[fl.Destination].Code
	plane := w.Planes[fl.Plane].ID
	switch fl.State {
	case StandBy:
		return fmt.Sprintf("%s %s plane %s scheduled %s", fl.Callsign(), route, plane, fl.Times.Scheduled)
	case WaitForPlane:
		return fmt.Sprintf("%s %s waiting for plane %s since %s", fl.Callsign(), route, plane, fl.Times.Scheduled)
	case DepartureTaxi, WaitToTakeoff:
		return fmt.Sprintf("%s %s %s, at gate %s", fl.Callsign(), route, fl.State, fl.Times.Gate)
	case EnRoute:
		return fmt.Sprintf("%s %s en route, departed %s, due %s", fl.Callsign(), route, fl.Times.Departure,
			fl.Times.Departure.Add(fl.Times.Duration))
	case WaitToLand, ArrivalTaxi:
		return fmt.Sprintf("%s %s %s, departed %s", fl.Callsign(), route, fl.State, fl.Times.Departure)
	default:
		return fmt.Sprintf("%s %s complete at %s", fl.Callsign(), route, fl.Times.Arrival)
	}
}

func (fl *Flight) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("callsign", fl.Callsign()),
		slog.Int("id", int(fl.ID)),
		slog.String("state", fl.State.String()),
		slog.Int("origin", int(fl.Origin)),
		slog.Int("destination", int(fl.Destination)),
		slog.Int("plane", int(fl.Plane)),
		slog.String("scheduled", fl.Times.Scheduled.String()))
}
