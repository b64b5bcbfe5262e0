// sim/errors.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
)

var (
	ErrInvalidConfig    = errors.New("Invalid simulation configuration")
	ErrNoMatchingFlight = errors.New("No matching flight")
	ErrPlaneNotHeld     = errors.New("Plane released by a flight that does not hold it")
	ErrSimRunning       = errors.New("Flights cannot be added after the simulation has started")
	ErrStaleAdmission   = errors.New("Admitted flight is not waiting for this runway")
	ErrUnknownAirport   = errors.New("Unknown airport")
	ErrUnknownPlane     = errors.New("Unknown plane")
)
