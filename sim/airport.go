// sim/airport.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"

	"github.com/atsim/atsim/log"
)

// AirportID is the index of an airport in the simulation's airport arena.
type AirportID int

// Airport has a single runway shared by departures and arrivals. Each
// minute, ManageRunway admits at most one flight, alternating between
// the departure and arrival queues when both have flights waiting.
type Airport struct {
	ID   AirportID
	Code string

	queues        [NumQueueTypes]*FlightQueue
	lastQueueType QueueType
	admissions    [NumQueueTypes]int
	lg            *log.Logger
}

func NewAirport(id AirportID, code string, queueCapacity int, lg *log.Logger) *Airport {
	ap := &Airport{
		ID:   id,
		Code: code,
		// Arrivals get the runway first.
		lastQueueType: DepartureQueue,
		lg:            lg.With(slog.String("airport", code)),
	}
	for i := range ap.queues {
		ap.queues[i] = NewFlightQueue(queueCapacity)
	}
	return ap
}

// Enqueue adds a flight to the back of the given runway queue.
func (ap *Airport) Enqueue(q QueueType, id FlightID) error {
	if err := ap.queues[q].Push(id); err != nil {
		return fmt.Errorf("%s %s queue: %w", ap.Code, q, err)
	}
	return nil
}

func (ap *Airport) Queue(q QueueType) *FlightQueue {
	return ap.queues[q]
}

// Admissions returns the number of flights that have been given the
// runway from the given queue.
func (ap *Airport) Admissions(q QueueType) int {
	return ap.admissions[q]
}

func (ap *Airport) LastQueueType() QueueType {
	return ap.lastQueueType
}

// ManageRunway gives the runway to at most one waiting flight. It
// prefers the queue opposite to the one most recently served, falling
// back to the other queue if that one is empty. It returns the admitted
// flight, if any.
//
// ManageRunway only modifies the airport's own queues, the admitted
// flight, and that flight's plane, so different airports' ManageRunway
// methods may run concurrently.
func (ap *Airport) ManageRunway(now SimTime, w *World) (FlightID, bool, error) {
	qt := ap.lastQueueType.Opposite()
	id, ok := ap.queues[qt].TakeFront()
	if !ok {
		qt = qt.Opposite()
		if id, ok = ap.queues[qt].TakeFront(); !ok {
			return -1, false, nil
		}
	}

	if int(id) < 0 || int(id) >= len(w.Flights) {
		return id, false, fmt.Errorf("%s: flight %d: %w", ap.Code, id, ErrStaleAdmission)
	}
	fl := w.Flights[id]

	switch qt {
	case DepartureQueue:
		if fl.State != WaitToTakeoff || fl.Origin != ap.ID {
			return id, false, fmt.Errorf("%s: %s in state %s: %w", ap.Code, fl.Callsign(), fl.State,
				ErrStaleAdmission)
		}
		fl.Times.Departure = now
		w.Planes[fl.Plane].Depart()
		fl.transition(now, EnRoute)

	case ArrivalQueue:
		if fl.State != WaitToLand || fl.Destination != ap.ID {
			return id, false, fmt.Errorf("%s: %s in state %s: %w", ap.Code, fl.Callsign(), fl.State,
				ErrStaleAdmission)
		}
		fl.Times.Land = now
		fl.transition(now, ArrivalTaxi)
	}

	ap.lastQueueType = qt
	ap.admissions[qt]++

	ap.lg.Debug("runway admission", slog.String("queue", qt.String()), slog.Any("flight", fl),
		slog.String("time", now.String()))
	w.post(Event{Type: RunwayAdmissionEvent, Time: now, Flight: id, Callsign: fl.Callsign(),
		Airport: ap.Code, Queue: qt})

	return id, true, nil
}

// AirportState is a point-in-time copy of an airport's runway state.
type AirportState struct {
	ID            AirportID
	Code          string
	Departures    []FlightID
	Arrivals      []FlightID
	LastQueueType QueueType
	Admissions    [NumQueueTypes]int
	PeakQueue     [NumQueueTypes]int
}

func (ap *Airport) State() AirportState {
	return AirportState{
		ID:            ap.ID,
		Code:          ap.Code,
		Departures:    ap.queues[DepartureQueue].Flights(),
		Arrivals:      ap.queues[ArrivalQueue].Flights(),
		LastQueueType: ap.lastQueueType,
		Admissions:    ap.admissions,
		PeakQueue:     [NumQueueTypes]int{ap.queues[DepartureQueue].Peak(), ap.queues[ArrivalQueue].Peak()},
	}
}

func (ap *Airport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("code", ap.Code),
		slog.Any("departures", ap.queues[DepartureQueue]),
		slog.Any("arrivals", ap.queues[ArrivalQueue]),
		slog.String("last_queue", ap.lastQueueType.String()))
}
