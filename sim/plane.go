// sim/plane.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"sync"
)

// PlaneID is the index of a plane in the simulation's plane arena.
type PlaneID int

// Location is where a plane is: either on the ground at an airport or in
// the air.
type Location struct {
	Airport  AirportID
	InFlight bool
}

func AtAirport(id AirportID) Location {
	return Location{Airport: id}
}

var Airborne = Location{Airport: -1, InFlight: true}

func (l Location) String() string {
	if l.InFlight {
		return "in flight"
	}
	return fmt.Sprintf("airport %d", l.Airport)
}

// Plane is a physical aircraft shared by one or more flights. A plane can
// only be used by one flight at a time and must be groomed between
// flights.
type Plane struct {
	ID string

	mu       sync.Mutex
	location Location
	busy     bool
	groom    int
}

func NewPlane(id string, loc Location) *Plane {
	return &Plane{ID: id, location: loc}
}

// ClaimFor atomically checks that the plane is available at the given
// airport and, if so, marks it busy. It returns true if the plane was
// claimed.
func (p *Plane) ClaimFor(origin AirportID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy || p.groom > 0 || p.location.InFlight || p.location.Airport != origin {
		return false
	}
	p.busy = true
	return true
}

// Depart records that the plane has taken off.
func (p *Plane) Depart() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.location = Airborne
}

// Release frees a busy plane after its flight has reached the gate at
// dest; the plane is unavailable until it has been groomed for the given
// number of minutes.
func (p *Plane) Release(dest AirportID, groom int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.busy {
		return fmt.Errorf("%s: %w", p.ID, ErrPlaneNotHeld)
	}
	p.busy = false
	p.location = AtAirport(dest)
	p.groom = groom
	return nil
}

// TickGroom advances the plane's grooming by one minute.
func (p *Plane) TickGroom() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.groom > 0 {
		p.groom--
	}
}

func (p *Plane) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.busy
}

func (p *Plane) Location() Location {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.location
}

// Groom returns the number of minutes of grooming remaining.
func (p *Plane) Groom() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.groom
}

// PlaneState is a point-in-time copy of a plane's state.
type PlaneState struct {
	ID       string
	Location Location
	Busy     bool
	Groom    int
}

func (p *Plane) State() PlaneState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PlaneState{ID: p.ID, Location: p.location, Busy: p.busy, Groom: p.groom}
}

// Available returns true if the plane could be claimed at its current
// location.
func (ps PlaneState) Available() bool {
	return !ps.Busy && ps.Groom == 0 && !ps.Location.InFlight
}

func (p *Plane) LogValue() slog.Value {
	s := p.State()
	return slog.GroupValue(
		slog.String("id", s.ID),
		slog.String("location", s.Location.String()),
		slog.Bool("busy", s.Busy),
		slog.Int("groom", s.Groom))
}
