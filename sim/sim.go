// sim/sim.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	av "github.com/atsim/atsim/aviation"
	"github.com/atsim/atsim/log"
	"github.com/atsim/atsim/util"

	"github.com/goforj/godump"
)

// World holds the flights, airports, and planes of a simulation. Flights
// refer to airports and planes, and airports' queues refer to flights,
// by their index in these slices.
type World struct {
	Flights  []*Flight
	Airports []*Airport
	Planes   []*Plane

	groomDuration int
	eventStream   *EventStream
	lg            *log.Logger
}

func (w *World) post(e Event) {
	w.eventStream.Post(e)
}

// runwayManager runs ManageRunway for all of the airports for a tick.
type runwayManager interface {
	ManageRunways(now SimTime) error
	Close() error
}

type sequentialRunways struct {
	w *World
}

func (s *sequentialRunways) ManageRunways(now SimTime) error {
	for _, ap := range s.w.Airports {
		if _, _, err := ap.ManageRunway(now, s.w); err != nil {
			return err
		}
	}
	return nil
}

func (s *sequentialRunways) Close() error { return nil }

type Sim struct {
	World

	Config Config
	Clock  SimTime

	mu util.LoggingMutex

	airportIndex map[string]AirportID
	planeIndex   map[string]PlaneID
	flightIndex  map[string]FlightID

	runways        runwayManager
	started        bool
	ceilingReached bool

	lg *log.Logger
}

// NewSim returns a simulation with no flights using the given
// configuration.
func NewSim(config Config, lg *log.Logger) (*Sim, error) {
	var e util.ErrorLogger
	config.Validate(&e)
	if e.HaveErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, e.Err())
	}

	s := &Sim{
		World: World{
			groomDuration: config.GroomDuration,
			eventStream:   NewEventStream(lg),
			lg:            lg,
		},
		Config:       config,
		airportIndex: make(map[string]AirportID),
		planeIndex:   make(map[string]PlaneID),
		flightIndex:  make(map[string]FlightID),
		lg:           lg,
	}
	lg.Info("created sim", slog.Any("config", config))
	return s, nil
}

// Destroy stops the simulation's runway workers, if any, and releases
// its event stream.
func (s *Sim) Destroy() {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if err := s.closeRunways(); err != nil {
		s.lg.Error("closing runway workers", slog.Any("error", err))
	}
	s.eventStream.Destroy()
}

func (s *Sim) closeRunways() error {
	if s.runways == nil {
		return nil
	}
	err := s.runways.Close()
	s.runways = nil
	return err
}

func (s *Sim) Subscribe() *EventsSubscription {
	return s.eventStream.Subscribe()
}

// AddFlight adds a flight from the schedule to the simulation, creating
// its airports and plane if they haven't been seen before. A newly seen
// plane starts out at the origin of the first flight that uses it.
// Flights are updated in the order they are added.
func (s *Sim) AddFlight(rec av.FlightRecord) (FlightID, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if s.started {
		return -1, ErrSimRunning
	}
	if err := rec.Validate(); err != nil {
		return -1, fmt.Errorf("%s: %w", rec.Callsign(), err)
	}

	origin, dest := s.airportID(rec.Origin), s.airportID(rec.Destination)
	id := FlightID(len(s.Flights))
	fl := &Flight{
		ID:          id,
		Carrier:     rec.Carrier,
		Number:      rec.Number,
		Origin:      origin,
		Destination: dest,
		Plane:       s.planeID(rec.Plane, origin),
		State:       StandBy,
		Times: FlightTimes{
			Scheduled: rec.Scheduled,
			Duration:  rec.Duration,
		},
	}

	if len(s.Flights) == 0 || rec.Scheduled < s.Clock {
		s.Clock = rec.Scheduled
	}
	s.Flights = append(s.Flights, fl)
	if _, ok := s.flightIndex[fl.Callsign()]; ok {
		s.lg.Warn("duplicate flight", slog.String("callsign", fl.Callsign()))
	} else {
		s.flightIndex[fl.Callsign()] = id
	}

	s.lg.Debug("added flight", slog.Any("flight", fl))
	return id, nil
}

// AddFlights adds a schedule's worth of records. Airports and planes are
// created in the order the records mention them, so each plane starts at
// the origin of the first record in recs that uses it. The flights are
// then added sorted by carrier and flight number, which is the order in
// which they are updated each tick. Nothing is added if any record is
// invalid.
func (s *Sim) AddFlights(recs []av.FlightRecord) error {
	var errs []error
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rec.Callsign(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.mu.Lock(s.lg)
	if s.started {
		s.mu.Unlock(s.lg)
		return ErrSimRunning
	}
	for _, rec := range recs {
		origin := s.airportID(rec.Origin)
		s.airportID(rec.Destination)
		s.planeID(rec.Plane, origin)
	}
	s.mu.Unlock(s.lg)

	sorted := slices.Clone(recs)
	av.SortFlightRecords(sorted)
	for _, rec := range sorted {
		if _, err := s.AddFlight(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sim) airportID(code string) AirportID {
	if id, ok := s.airportIndex[code]; ok {
		return id
	}
	id := AirportID(len(s.Airports))
	s.Airports = append(s.Airports, NewAirport(id, code, s.Config.QueueCapacity, s.lg))
	s.airportIndex[code] = id
	return id
}

func (s *Sim) planeID(name string, loc AirportID) PlaneID {
	if id, ok := s.planeIndex[name]; ok {
		return id
	}
	id := PlaneID(len(s.Planes))
	s.Planes = append(s.Planes, NewPlane(name, AtAirport(loc)))
	s.planeIndex[name] = id
	return id
}

// Airport returns the airport with the given code.
func (s *Sim) Airport(code string) (*Airport, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if id, ok := s.airportIndex[code]; ok {
		return s.Airports[id], nil
	}
	return nil, fmt.Errorf("%s: %w", code, ErrUnknownAirport)
}

// Plane returns the plane with the given identifier.
func (s *Sim) Plane(name string) (*Plane, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if id, ok := s.planeIndex[name]; ok {
		return s.Planes[id], nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnknownPlane)
}

///////////////////////////////////////////////////////////////////////////
// Simulation

// Step runs a single tick of the simulation at the current clock value:
// grooming planes are advanced, every flight is updated in the order it
// was added, each airport admits at most one flight to its runway, and
// then the clock advances by a minute. It returns false if no flight
// needed updating, in which case the simulation is finished.
func (s *Sim) Step() (bool, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if !util.DebuggerIsRunning() {
		start := time.Now()
		defer func() {
			if d := time.Since(start); d > 200*time.Millisecond {
				s.lg.Warn("unexpectedly long Sim Step() call", slog.Duration("duration", d),
					slog.String("clock", s.Clock.String()))
			}
		}()
	}

	return s.step()
}

func (s *Sim) step() (bool, error) {
	s.started = true
	if s.runways == nil {
		s.runways = s.makeRunwayManager()
	}

	now := s.Clock

	for _, p := range s.Planes {
		p.TickGroom()
	}

	pending := false
	for _, fl := range s.Flights {
		updated, err := fl.Update(now, &s.World)
		if err != nil {
			s.lg.Error("flight update failed", slog.Any("flight", fl), slog.Any("error", err))
			return false, fmt.Errorf("%s: %s: %w", now, fl.Callsign(), err)
		}
		pending = pending || updated
	}

	if err := s.runways.ManageRunways(now); err != nil {
		s.lg.Error("runway management failed", slog.String("clock", now.String()), slog.Any("error", err))
		return false, fmt.Errorf("%s: %w", now, err)
	}

	s.Clock++
	return pending, nil
}

func (s *Sim) makeRunwayManager() runwayManager {
	if s.Config.Mode == Concurrent {
		return newConcurrentRunways(&s.World, time.Duration(s.Config.StallWarning), s.lg)
	}
	return &sequentialRunways{w: &s.World}
}

// Run steps the simulation until no flight needs further updates or the
// clock reaches the configured ceiling. If observe is non-nil, it is
// called after each tick, including the last one; the run stops early if
// it returns false.
func (s *Sim) Run(observe func(*Sim) bool) (*Result, error) {
	s.lg.Info("starting run", slog.Int("flights", len(s.Flights)), slog.Int("airports", len(s.Airports)),
		slog.Int("planes", len(s.Planes)), slog.String("clock", s.Clock.String()))

	for {
		if s.Clock >= s.Config.Ceiling {
			s.mu.Lock(s.lg)
			s.ceilingReached = true
			s.mu.Unlock(s.lg)

			s.lg.Warn("clock ceiling reached", slog.String("ceiling", s.Config.Ceiling.String()))
			s.post(Event{Type: CeilingReachedEvent, Time: s.Clock})
			break
		}

		pending, err := s.Step()
		if err != nil {
			s.mu.Lock(s.lg)
			if cerr := s.closeRunways(); cerr != nil {
				s.lg.Error("closing runway workers", slog.Any("error", cerr))
			}
			s.mu.Unlock(s.lg)
			return nil, err
		}
		if observe != nil && !observe(s) {
			break
		}
		if !pending {
			break
		}
	}

	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if err := s.closeRunways(); err != nil {
		return nil, err
	}

	r := s.result()
	s.lg.Info("run finished", slog.String("clock", s.Clock.String()), slog.Int("completed", len(r.Completed)),
		slog.Int("incomplete", len(r.Incomplete)))
	return r, nil
}

///////////////////////////////////////////////////////////////////////////
// Results

// IncompleteFlight describes a flight that had not reached its
// destination gate when the run ended.
type IncompleteFlight struct {
	Carrier     string      `json:"carrier" msgpack:"carrier"`
	Number      int         `json:"number" msgpack:"number"`
	Origin      string      `json:"origin" msgpack:"origin"`
	Destination string      `json:"destination" msgpack:"destination"`
	State       FlightState `json:"state" msgpack:"state"`
}

func (f IncompleteFlight) String() string {
	return fmt.Sprintf("%s %d from %s to %s: %s", f.Carrier, f.Number, f.Origin, f.Destination, f.State)
}

type Result struct {
	Completed      []av.FlightLog     `json:"completed" msgpack:"completed"`
	Incomplete     []IncompleteFlight `json:"incomplete" msgpack:"incomplete"`
	FinalClock     SimTime            `json:"final_clock" msgpack:"final_clock"`
	CeilingReached bool               `json:"ceiling_reached" msgpack:"ceiling_reached"`
	Report         Report             `json:"report" msgpack:"report"`
}

// Result returns the flight logs and summary statistics for the
// simulation as it currently stands.
func (s *Sim) Result() *Result {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.result()
}

func (s *Sim) result() *Result {
	r := &Result{
		FinalClock:     s.Clock,
		CeilingReached: s.ceilingReached,
	}

	for _, fl := range s.Flights {
		if fl.State == Complete {
			r.Completed = append(r.Completed, fl.Log(&s.World))
		} else {
			r.Incomplete = append(r.Incomplete, IncompleteFlight{
				Carrier:     fl.Carrier,
				Number:      fl.Number,
				Origin:      s.Airports[fl.Origin].Code,
				Destination: s.Airports[fl.Destination].Code,
				State:       fl.State,
			})
		}
	}
	av.SortFlightLogs(r.Completed)

	r.Report = makeReport(&s.World, r)
	return r
}

///////////////////////////////////////////////////////////////////////////
// Inspection

type FlightDisplayState struct {
	Spew    string // for debugging
	Summary string
}

// GetFlightDisplayState returns a description of the flight with the
// given callsign, e.g. "AC101".
func (s *Sim) GetFlightDisplayState(callsign string) (FlightDisplayState, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	id, ok := s.flightIndex[strings.ToUpper(callsign)]
	if !ok {
		return FlightDisplayState{}, fmt.Errorf("%s: %w", callsign, ErrNoMatchingFlight)
	}
	fl := s.Flights[id]
	return FlightDisplayState{
		Spew:    godump.DumpStr(fl),
		Summary: fl.Summary(&s.World),
	}, nil
}

// FlightsInState returns the callsigns of the flights currently in the
// given state, in the order they were added.
func (s *Sim) FlightsInState(state FlightState) []string {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	var cs []string
	for _, fl := range s.Flights {
		if fl.State == state {
			cs = append(cs, fl.Callsign())
		}
	}
	return cs
}

func (s *Sim) LogValue() slog.Value {
	counts := make([]int, NumFlightStates)
	for _, fl := range s.Flights {
		counts[fl.State]++
	}
	attrs := []slog.Attr{
		slog.String("clock", s.Clock.String()),
		slog.Any("config", s.Config),
		slog.Int("airports", len(s.Airports)),
		slog.Int("planes", len(s.Planes)),
	}
	for st, n := range counts {
		if n > 0 {
			attrs = append(attrs, slog.Int(FlightState(st).String(), n))
		}
	}
	return slog.GroupValue(attrs...)
}
