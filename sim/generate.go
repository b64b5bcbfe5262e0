// sim/generate.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"

	av "github.com/atsim/atsim/aviation"
	"github.com/atsim/atsim/rand"
	"github.com/atsim/atsim/util"
)

// GeneratorConfig specifies the shape of a randomly generated schedule.
type GeneratorConfig struct {
	Flights     int
	Airports    int
	Planes      int
	Carriers    []string
	MinDuration int
	MaxDuration int
	// Flights are scheduled between Start and End.
	Start, End SimTime
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Flights:     100,
		Airports:    8,
		Planes:      20,
		Carriers:    []string{"AC", "WS", "PD", "TS"},
		MinDuration: 30,
		MaxDuration: 300,
		Start:       av.SimTimeFromHM(5, 0),
		End:         av.SimTimeFromHM(22, 0),
	}
}

// GeneratedAirportCode returns the code of the ith generated airport:
// AAA, AAB, ...
func GeneratedAirportCode(i int) string {
	var b [3]byte
	for j := 2; j >= 0; j-- {
		b[j] = byte('A' + i%26)
		i /= 26
	}
	return string(b[:])
}

// GenerateSchedule returns a random schedule. Each plane belongs to a
// single carrier and flies a chain of flights, each departing from the
// previous one's destination no earlier than the plane could be turned
// around. Records are returned in the order they were generated, so each
// plane's first record is the first flight of its chain and places it at
// that flight's origin. Flight numbers also increase along each chain, so
// when two of a plane's flights are waiting for it at the same airport,
// the earlier one is updated first and claims it. Lower-numbered
// airports are busier. The same seed always produces the same schedule.
func GenerateSchedule(config GeneratorConfig, r *rand.Rand) []av.FlightRecord {
	config.Airports = util.Clamp(config.Airports, 2, 26*26*26)
	config.Planes = max(config.Planes, 1)
	if len(config.Carriers) == 0 {
		config.Carriers = DefaultGeneratorConfig().Carriers
	}
	config.MinDuration = max(config.MinDuration, 1)
	config.MaxDuration = max(config.MaxDuration, config.MinDuration)
	config.End = util.Clamp(config.End, config.Start+1, av.MinutesPerDay)

	airports := make([]int, config.Airports)
	for i := range airports {
		airports[i] = i
	}
	weight := func(i int) int { return config.Airports - i }

	type plane struct {
		id      string
		carrier string
		at      int
		ready   SimTime
	}
	planes := make([]*plane, config.Planes)
	for i := range planes {
		planes[i] = &plane{
			id:      fmt.Sprintf("%d", i+1),
			carrier: rand.SampleSlice(r, config.Carriers),
			at:      rand.SampleWeighted(r, airports, weight),
			ready:   config.Start.Add(r.Intn(60)),
		}
	}

	nextNumber := make(map[string]int)
	var recs []av.FlightRecord
	for len(recs) < config.Flights {
		// Give up once no plane can fit another flight before the end.
		var avail []*plane
		for _, p := range planes {
			if p.ready < config.End {
				avail = append(avail, p)
			}
		}
		if len(avail) == 0 {
			break
		}
		p := rand.SampleSlice(r, avail)

		dest := rand.SampleWeighted(r, airports, func(i int) int {
			return util.Select(i == p.at, 0, weight(i))
		})
		carrier := p.carrier
		if nextNumber[carrier] == 0 {
			nextNumber[carrier] = 100
		}

		dur := config.MinDuration + r.Intn(config.MaxDuration-config.MinDuration+1)
		sched := p.ready.Add(r.Intn(90))
		if sched >= config.End {
			p.ready = config.End
			continue
		}

		recs = append(recs, av.FlightRecord{
			Carrier:     carrier,
			Number:      nextNumber[carrier],
			Plane:       p.id,
			Origin:      GeneratedAirportCode(p.at),
			Scheduled:   sched,
			Duration:    dur,
			Destination: GeneratedAirportCode(dest),
		})
		nextNumber[carrier]++

		p.at = dest
		p.ready = sched.Add(dur + 2*av.TaxiDuration + av.GroomDuration)
	}

	return recs
}
