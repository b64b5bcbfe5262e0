// sim/report.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atsim/atsim/util"

	"github.com/iancoleman/orderedmap"
)

// AirportReport summarizes an airport's runway usage over a run.
type AirportReport struct {
	Code       string             `msgpack:"code"`
	Departures int                `msgpack:"departures"`
	Arrivals   int                `msgpack:"arrivals"`
	PeakQueue  [NumQueueTypes]int `msgpack:"peak_queue"`
}

// Report holds summary statistics for a run.
type Report struct {
	FinalClock SimTime         `msgpack:"final_clock"`
	Completed  int             `msgpack:"completed"`
	Incomplete int             `msgpack:"incomplete"`
	TotalDelay int             `msgpack:"total_delay"`
	MaxDelay   int             `msgpack:"max_delay"`
	MaxDelayed string          `msgpack:"max_delayed"` // callsign of the most-delayed flight
	Airports   []AirportReport `msgpack:"airports"`    // sorted by code
}

func makeReport(w *World, r *Result) Report {
	rep := Report{
		FinalClock: r.FinalClock,
		Completed:  len(r.Completed),
		Incomplete: len(r.Incomplete),
	}
	for _, l := range r.Completed {
		d := l.Delay()
		rep.TotalDelay += d
		if d > rep.MaxDelay || rep.MaxDelayed == "" {
			rep.MaxDelay, rep.MaxDelayed = d, l.Callsign()
		}
	}

	byCode := make(map[string]AirportReport)
	for _, ap := range w.Airports {
		byCode[ap.Code] = AirportReport{
			Code:       ap.Code,
			Departures: ap.Admissions(DepartureQueue),
			Arrivals:   ap.Admissions(ArrivalQueue),
			PeakQueue:  [NumQueueTypes]int{ap.Queue(DepartureQueue).Peak(), ap.Queue(ArrivalQueue).Peak()},
		}
	}
	for _, code := range util.SortedMapKeys(byCode) {
		rep.Airports = append(rep.Airports, byCode[code])
	}

	return rep
}

// AverageDelay returns the mean delay of the completed flights.
func (r Report) AverageDelay() float64 {
	if r.Completed == 0 {
		return 0
	}
	return float64(r.TotalDelay) / float64(r.Completed)
}

// MarshalJSON encodes the report with its fields in a fixed order and
// with airports keyed by code.
func (r Report) MarshalJSON() ([]byte, error) {
	o := orderedmap.New()
	o.Set("final_clock", r.FinalClock.String())
	o.Set("completed", r.Completed)
	o.Set("incomplete", r.Incomplete)
	o.Set("total_delay", r.TotalDelay)
	o.Set("average_delay", r.AverageDelay())
	o.Set("max_delay", r.MaxDelay)
	if r.MaxDelayed != "" {
		o.Set("max_delayed", r.MaxDelayed)
	}

	airports := orderedmap.New()
	for _, ap := range r.Airports {
		a := orderedmap.New()
		a.Set("departures", ap.Departures)
		a.Set("arrivals", ap.Arrivals)
		a.Set("peak_departure_queue", ap.PeakQueue[DepartureQueue])
		a.Set("peak_arrival_queue", ap.PeakQueue[ArrivalQueue])
		airports.Set(ap.Code, a)
	}
	o.Set("airports", airports)

	return json.Marshal(o)
}

// Write prints a human-readable version of the report.
func (r Report) Write(w io.Writer) {
	fmt.Fprintf(w, "Final clock %s: %d completed, %d incomplete\n", r.FinalClock, r.Completed, r.Incomplete)
	fmt.Fprintf(w, "Delay: total %d, average %.1f, max %d", r.TotalDelay, r.AverageDelay(), r.MaxDelay)
	if r.MaxDelayed != "" {
		fmt.Fprintf(w, " (%s)", r.MaxDelayed)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-5s %5s %5s %9s\n", "APT", "DEP", "ARR", "PEAK D/A")
	for _, ap := range r.Airports {
		peak := fmt.Sprintf("%d/%d", ap.PeakQueue[DepartureQueue], ap.PeakQueue[ArrivalQueue])
		fmt.Fprintf(w, "%-5s %5d %5d %9s\n", ap.Code, ap.Departures, ap.Arrivals, peak)
	}
	fmt.Fprintln(w, strings.Repeat("-", 27))
}
