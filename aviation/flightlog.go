// aviation/flightlog.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// FlightLog records the outcome of a completed flight.
type FlightLog struct {
	Carrier     string  `json:"carrier" msgpack:"carrier"`
	Number      int     `json:"number" msgpack:"number"`
	Origin      string  `json:"origin" msgpack:"origin"`
	Destination string  `json:"destination" msgpack:"destination"`
	Scheduled   SimTime `json:"scheduled" msgpack:"scheduled"`
	Arrival     SimTime `json:"arrival" msgpack:"arrival"`
	Duration    int     `json:"duration" msgpack:"duration"`
}

// Delay returns the number of minutes the flight arrived later than it
// would have with no waiting for its plane or for runways.
func (l FlightLog) Delay() int {
	return int(l.Arrival-l.Scheduled) - l.Duration - 2*TaxiDuration
}

func (l FlightLog) Callsign() string {
	return Callsign(l.Carrier, l.Number)
}

// String formats the log entry as, for example,
//
//	[10:15] AC 101 from YYZ to YUL, departed 08:30, delay 0.
func (l FlightLog) String() string {
	return fmt.Sprintf("[%s] %s %d from %s to %s, departed %s, delay %d.", l.Arrival, l.Carrier,
		l.Number, l.Origin, l.Destination, l.Scheduled, l.Delay())
}

func (l FlightLog) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("callsign", l.Callsign()),
		slog.String("origin", l.Origin),
		slog.String("destination", l.Destination),
		slog.String("scheduled", l.Scheduled.String()),
		slog.String("arrival", l.Arrival.String()),
		slog.Int("delay", l.Delay()))
}

// SortFlightLogs sorts logs by arrival time, then carrier, then flight
// number.
func SortFlightLogs(logs []FlightLog) {
	slices.SortStableFunc(logs, func(a, b FlightLog) int {
		return cmp.Or(cmp.Compare(a.Arrival, b.Arrival), strings.Compare(a.Carrier, b.Carrier),
			cmp.Compare(a.Number, b.Number))
	})
}
