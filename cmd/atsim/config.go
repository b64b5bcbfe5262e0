// cmd/atsim/config.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	av "github.com/atsim/atsim/aviation"
	"github.com/atsim/atsim/log"
	"github.com/atsim/atsim/sim"
	"github.com/atsim/atsim/util"
)

// loadConfig returns the simulation configuration: the defaults,
// overridden by the JSON file given with -config, if any, overridden in
// turn by any command-line flags that were explicitly set.
func loadConfig(fs *flag.FlagSet, lg *log.Logger) (sim.Config, error) {
	config := sim.DefaultConfig()

	if *configFile != "" {
		f, err := os.Open(*configFile)
		if err != nil {
			return config, err
		}
		defer f.Close()

		if config, err = sim.LoadConfig(f); err != nil {
			return config, fmt.Errorf("%s: %w", *configFile, err)
		}
		lg.Infof("%s: loaded configuration", *configFile)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "concurrent":
			config.Mode = util.Select(*concurrent, sim.Concurrent, sim.Sequential)
		case "ceiling":
			config.Ceiling = av.SimTime(*ceiling)
		case "queuecap":
			config.QueueCapacity = *queueCapacity
		}
	})

	var e util.ErrorLogger
	config.Validate(&e)
	if e.HaveErrors() {
		e.PrintErrors(os.Stderr, lg)
		return config, sim.ErrInvalidConfig
	}

	lg.Info("configuration", slog.Any("config", config))
	return config, nil
}
