// aviation/schedule.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/atsim/atsim/util"
)

var (
	ErrMalformedRecord   = errors.New("Malformed flight record")
	ErrInvalidCarrier    = errors.New("Carrier code must be 2 or 3 letters or digits")
	ErrInvalidAirport    = errors.New("Airport code must be 3 letters")
	ErrInvalidDuration   = errors.New("Flight duration must be a positive number of minutes")
	ErrInvalidFlightNo   = errors.New("Flight number must be a positive integer")
	ErrSameOriginAndDest = errors.New("Origin and destination airports are the same")
)

// EndOfSchedule is the line that terminates a flight schedule.
const EndOfSchedule = "end"

// FlightRecord is a single scheduled flight as it appears in the input
// schedule.
type FlightRecord struct {
	Carrier     string  `json:"carrier"`
	Number      int     `json:"number"`
	Plane       string  `json:"plane"`
	Origin      string  `json:"origin"`
	Scheduled   SimTime `json:"scheduled"`
	Duration    int     `json:"duration"` // minutes in the air
	Destination string  `json:"destination"`
}

func (r FlightRecord) Callsign() string {
	return Callsign(r.Carrier, r.Number)
}

// String returns the record in the schedule input format, so that
// ParseFlightRecord(r.String()) == r.
func (r FlightRecord) String() string {
	return fmt.Sprintf("%s %d %s %s %s %d %s", r.Carrier, r.Number, r.Plane, r.Origin,
		r.Scheduled, r.Duration, r.Destination)
}

// ParseFlightRecord parses a line of the form
//
//	CARRIER NUMBER PLANE ORIGIN HH:MM DURATION DESTINATION
//
// for example "AC 101 7 YYZ 08:30 75 YUL".
func ParseFlightRecord(line string) (FlightRecord, error) {
	f := strings.Fields(line)
	if len(f) != 7 {
		return FlightRecord{}, fmt.Errorf("%w: expected 7 fields, got %d", ErrMalformedRecord, len(f))
	}

	rec := FlightRecord{
		Carrier:     strings.ToUpper(f[0]),
		Plane:       f[2],
		Origin:      strings.ToUpper(f[3]),
		Destination: strings.ToUpper(f[6]),
	}

	var err error
	if rec.Number, err = strconv.Atoi(f[1]); err != nil || rec.Number <= 0 {
		return FlightRecord{}, fmt.Errorf("%q: %w", f[1], ErrInvalidFlightNo)
	}
	if rec.Scheduled, err = ParseSimTime(f[4]); err != nil {
		return FlightRecord{}, err
	}
	if rec.Duration, err = strconv.Atoi(f[5]); err != nil || rec.Duration <= 0 {
		return FlightRecord{}, fmt.Errorf("%q: %w", f[5], ErrInvalidDuration)
	}

	return rec, rec.Validate()
}

// Validate checks the record's identifiers and timing.
func (r FlightRecord) Validate() error {
	if n := len(r.Carrier); n < 2 || n > 3 || !util.IsAlphanumeric(r.Carrier) {
		return fmt.Errorf("%q: %w", r.Carrier, ErrInvalidCarrier)
	}
	if r.Number <= 0 {
		return fmt.Errorf("%d: %w", r.Number, ErrInvalidFlightNo)
	}
	if r.Plane == "" {
		return fmt.Errorf("%w: missing plane identifier", ErrMalformedRecord)
	}
	for _, code := range []string{r.Origin, r.Destination} {
		if !IsAirportCode(code) {
			return fmt.Errorf("%q: %w", code, ErrInvalidAirport)
		}
	}
	if r.Origin == r.Destination {
		return fmt.Errorf("%s: %w", r.Origin, ErrSameOriginAndDest)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%d: %w", r.Duration, ErrInvalidDuration)
	}
	if r.Scheduled < 0 || r.Scheduled >= MinutesPerDay {
		return fmt.Errorf("%s: %w", r.Scheduled, ErrInvalidTime)
	}
	return nil
}

// IsAirportCode returns true if code is a three-letter airport code.
func IsAirportCode(code string) bool {
	return len(code) == 3 && util.IsAllLetters(code)
}

// ReadSchedule reads flight records from r, one per line, until either
// EOF or a line consisting of "end". Blank lines and lines starting with
// '#' are ignored. Errors are accumulated in e, prefixed with the line
// number, and the records from all of the valid lines are returned.
func ReadSchedule(r io.Reader, e *util.ErrorLogger) []FlightRecord {
	var recs []FlightRecord

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.EqualFold(line, EndOfSchedule) {
			break
		}

		e.Push(fmt.Sprintf("line %d", lineno))
		if rec, err := ParseFlightRecord(line); err != nil {
			e.Error(err)
		} else {
			recs = append(recs, rec)
		}
		e.Pop()
	}
	if err := scanner.Err(); err != nil {
		e.Error(err)
	}

	return recs
}

// SortFlightRecords sorts the records by carrier and then flight number.
// Flights are loaded into the simulation in this order, which determines
// which of several flights claims a shared plane first.
func SortFlightRecords(recs []FlightRecord) {
	slices.SortStableFunc(recs, func(a, b FlightRecord) int {
		return cmp.Or(strings.Compare(a.Carrier, b.Carrier), cmp.Compare(a.Number, b.Number))
	})
}
