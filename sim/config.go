// sim/config.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	av "github.com/atsim/atsim/aviation"
	"github.com/atsim/atsim/util"
)

type Mode string

const (
	// Sequential runs every airport's runway management on the driver's
	// goroutine.
	Sequential Mode = "sequential"
	// Concurrent runs each airport's runway management on its own
	// goroutine, synchronized with the driver at every tick.
	Concurrent Mode = "concurrent"
)

// Duration is a time.Duration that is represented in JSON as a string
// like "5s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	Mode Mode `json:"mode"`
	// Ceiling is the clock value at which the run stops even if flights
	// are still in progress.
	Ceiling SimTime `json:"ceiling"`
	// QueueCapacity is the size of each runway queue's ring buffer; it
	// must be a power of two.
	QueueCapacity int `json:"queue_capacity"`
	GroomDuration int `json:"groom_duration"`
	// StallWarning is how long a concurrent runway worker may wait at a
	// tick barrier before a warning is logged. Zero disables the warning.
	StallWarning Duration `json:"stall_warning"`
}

func DefaultConfig() Config {
	return Config{
		Mode:          Sequential,
		Ceiling:       av.MinutesPerDay,
		QueueCapacity: 256,
		GroomDuration: av.GroomDuration,
		StallWarning:  Duration(5 * time.Second),
	}
}

// LoadConfig reads a JSON configuration from r. Fields that are not
// present keep their default values.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	err := util.UnmarshalJSON(r, &c)
	return c, err
}

func (c Config) Validate(e *util.ErrorLogger) {
	e.Push("config")
	defer e.Pop()

	if c.Mode != Sequential && c.Mode != Concurrent {
		e.ErrorString("%q: mode must be %q or %q", c.Mode, Sequential, Concurrent)
	}
	if c.Ceiling <= 0 {
		e.ErrorString("ceiling must be positive")
	}
	if !util.IsPowerOfTwo(c.QueueCapacity) || c.QueueCapacity < 2 {
		e.ErrorString("%d: queue capacity must be a power of two no smaller than 2", c.QueueCapacity)
	}
	if c.GroomDuration < 0 {
		e.ErrorString("%d: groom duration cannot be negative", c.GroomDuration)
	}
	if c.StallWarning < 0 {
		e.ErrorString("stall warning cannot be negative")
	}
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", string(c.Mode)),
		slog.String("ceiling", c.Ceiling.String()),
		slog.Int("queue_capacity", c.QueueCapacity),
		slog.Int("groom_duration", c.GroomDuration),
		slog.Duration("stall_warning", time.Duration(c.StallWarning)))
}
