// sim/config_test.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	av "github.com/atsim/atsim/aviation"
	"github.com/atsim/atsim/rand"
	"github.com/atsim/atsim/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(strings.NewReader(`{"mode": "concurrent", "queue_capacity": 64, "stall_warning": "250ms"}`))
	require.NoError(t, err)

	assert.Equal(t, Concurrent, c.Mode)
	assert.Equal(t, 64, c.QueueCapacity)
	assert.Equal(t, Duration(250*time.Millisecond), c.StallWarning)
	// Unspecified fields keep their defaults.
	assert.Equal(t, av.MinutesPerDay, c.Ceiling)
	assert.Equal(t, av.GroomDuration, c.GroomDuration)

	var e util.ErrorLogger
	c.Validate(&e)
	assert.False(t, e.HaveErrors(), e.String())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("{\n  \"mode\": 12\n}"))
	assert.Error(t, err)

	_, err = LoadConfig(strings.NewReader(`{"stall_warning": "soon"}`))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	c := Config{Mode: "parallel", Ceiling: -1, QueueCapacity: 1, GroomDuration: -5, StallWarning: -1}

	var e util.ErrorLogger
	c.Validate(&e)
	require.Len(t, e.Errors(), 5)
	for _, msg := range e.Errors() {
		assert.True(t, strings.HasPrefix(msg, "config: "), msg)
	}
}

func TestDurationJSON(t *testing.T) {
	b, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}

func TestGenerateSchedule(t *testing.T) {
	gc := DefaultGeneratorConfig()
	a := GenerateSchedule(gc, rand.NewSeeded(99))
	b := GenerateSchedule(gc, rand.NewSeeded(99))
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.LessOrEqual(t, len(a), gc.Flights)

	for _, rec := range a {
		require.NoError(t, rec.Validate(), rec.String())

		// Generated records survive a trip through the schedule format.
		parsed, err := av.ParseFlightRecord(rec.String())
		require.NoError(t, err)
		assert.Equal(t, rec, parsed)

		assert.GreaterOrEqual(t, rec.Scheduled, gc.Start)
		assert.Less(t, rec.Scheduled, gc.End)
	}
}

func TestGeneratedAirportCode(t *testing.T) {
	assert.Equal(t, "AAA", GeneratedAirportCode(0))
	assert.Equal(t, "AAZ", GeneratedAirportCode(25))
	assert.Equal(t, "ABA", GeneratedAirportCode(26))
}

func TestReportJSON(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), `
AC 101 7 YYZ 08:00 60 YUL
AC 102 7 YUL 08:30 45 YYZ
end`)
	r, err := s.Run(nil)
	require.NoError(t, err)

	rep := r.Report
	assert.Equal(t, 2, rep.Completed)
	assert.Equal(t, 80, rep.TotalDelay)
	assert.Equal(t, 80, rep.MaxDelay)
	assert.Equal(t, "AC102", rep.MaxDelayed)
	assert.InDelta(t, 40.0, rep.AverageDelay(), 1e-9)

	b, err := json.Marshal(rep)
	require.NoError(t, err)
	js := string(b)
	assert.True(t, strings.HasPrefix(js, `{"final_clock":"10:57","completed":2,"incomplete":0,`), js)
	// Airports are keyed by code, in sorted order.
	assert.Less(t, strings.Index(js, `"YUL"`), strings.Index(js, `"YYZ"`))
	assert.Contains(t, js, `"YYZ":{"departures":1,"arrivals":1,"peak_departure_queue":1,"peak_arrival_queue":1}`)

	var sb strings.Builder
	rep.Write(&sb)
	assert.Contains(t, sb.String(), "2 completed, 0 incomplete")
	assert.Contains(t, sb.String(), "(AC102)")
}
