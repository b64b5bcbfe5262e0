// aviation/aviation.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// TaxiDuration is the number of minutes a flight spends taxiing
	// before takeoff and again after landing.
	TaxiDuration = 10
	// GroomDuration is the number of minutes an aircraft must spend on
	// the ground after a flight before it can be used for another one.
	GroomDuration = 30

	MinutesPerDay SimTime = 24 * 60
)

var ErrInvalidTime = errors.New("Invalid time")

// SimTime is the simulation clock: a count of minutes since midnight of
// the simulated day. Keeping it as a plain integer means that all timing
// checks are integer comparisons with no calendar arithmetic.
type SimTime int

// SimTimeFromHM returns the SimTime corresponding to the given hour and
// minute.
func SimTimeFromHM(hour, minute int) SimTime {
	return SimTime(hour*60 + minute)
}

// HourMinute returns the hour and minute corresponding to t. Hours are
// not wrapped, so times past the end of the day have hour >= 24.
func (t SimTime) HourMinute() (hour, minute int) {
	return int(t) / 60, int(t) % 60
}

func (t SimTime) String() string {
	h, m := t.HourMinute()
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Add returns the time that is the given number of minutes after t.
func (t SimTime) Add(minutes int) SimTime {
	return t + SimTime(minutes)
}

// ParseSimTime parses a time of day of the form HH:MM.
func ParseSimTime(s string) (SimTime, error) {
	hs, ms, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%q: %w: expected HH:MM", s, ErrInvalidTime)
	}

	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%q: %w: hour must be between 0 and 23", s, ErrInvalidTime)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 || len(ms) != 2 {
		return 0, fmt.Errorf("%q: %w: minute must be between 00 and 59", s, ErrInvalidTime)
	}

	return SimTimeFromHM(h, m), nil
}

// Callsign returns the combined carrier and flight number, e.g. "AC101".
func Callsign(carrier string, number int) string {
	return carrier + strconv.Itoa(number)
}
