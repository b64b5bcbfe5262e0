// cmd/atsim/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// atsim reads a day's flight schedule and simulates the flights minute
// by minute, sharing planes between flights and runways between
// departures and arrivals, then prints a log line for each flight as it
// reaches its destination gate.

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	av "github.com/atsim/atsim/aviation"
	"github.com/atsim/atsim/log"
	"github.com/atsim/atsim/rand"
	"github.com/atsim/atsim/sim"
	"github.com/atsim/atsim/util"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"
)

var (
	cpuprofile    = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile    = flag.String("memprofile", "", "write memory profile to this file")
	logLevel      = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir        = flag.String("logdir", "", "log file directory")
	configFile    = flag.String("config", "", "JSON file with simulation configuration")
	concurrent    = flag.Bool("concurrent", false, "manage each airport's runway on its own goroutine")
	ceiling       = flag.Int("ceiling", int(av.MinutesPerDay), "stop the simulation when the clock reaches this many minutes")
	queueCapacity = flag.Int("queuecap", 256, "runway queue ring buffer size (power of two)")
	exportFile    = flag.String("export", "", "write the results to the given file as compressed msgpack")
	reportFormat  = flag.String("report", "", "print summary statistics to stderr: text or json")
	dumpState     = flag.Bool("dump", false, "dump the final simulation state to stderr")
	generate      = flag.Int("generate", 0, "write a random schedule with this many flights to stdout and exit")
	seed          = flag.Int64("seed", 0, "random seed for -generate (0: use the current time)")
	showBoard     = flag.Bool("board", false, "show a live terminal display of the runways")
	boardDelay    = flag.Duration("boarddelay", 50*time.Millisecond, "time between ticks when -board is given")
)

func setupSignalHandler(profiler *util.Profiler) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Caught signal, cleaning up...")
		profiler.Cleanup()
		fmt.Fprintln(os.Stderr, "Cleanup complete, exiting")
		os.Exit(0)
	}()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [schedule]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	// Initialize the logging system first and foremost.
	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	os.Exit(run(lg))
}

func run(lg *log.Logger) int {
	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	}
	defer profiler.Cleanup()

	if *cpuprofile != "" || *memprofile != "" {
		setupSignalHandler(&profiler)
	}

	if *generate > 0 {
		s := *seed
		if s == 0 {
			s = time.Now().UnixNano()
		}
		gc := sim.DefaultGeneratorConfig()
		gc.Flights = *generate
		recs := sim.GenerateSchedule(gc, rand.NewSeeded(s))
		lg.Info("generated schedule", "flights", len(recs), "seed", s)

		if err := writeSchedule(os.Stdout, recs); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	config, err := loadConfig(flag.CommandLine, lg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	recs, err := readSchedule(flag.Arg(0), lg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	s, err := sim.NewSim(config, lg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.Destroy()

	if err := s.AddFlights(recs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var result *sim.Result
	if *showBoard {
		result, err = runBoard(s, *boardDelay, lg)
	} else {
		result, err = s.Run(nil)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		return 1
	}

	for _, l := range result.Completed {
		fmt.Println(l)
	}
	if len(result.Incomplete) > 0 {
		fmt.Fprintf(os.Stderr, "%d flights did not complete by %s:\n", len(result.Incomplete), result.FinalClock)
		for _, f := range result.Incomplete {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
	}

	if err := writeReport(os.Stderr, *reportFormat, result.Report); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *exportFile != "" {
		if err := util.WriteArchive(*exportFile, result); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *exportFile, err)
			return 1
		}
		lg.Infof("%s: exported results", *exportFile)
	}

	if *dumpState {
		godump.Fdump(os.Stderr, s.Snapshot())
	}

	return 0
}

// readSchedule reads the schedule from the named file, or from standard
// input if filename is empty or "-".
func readSchedule(filename string, lg *log.Logger) ([]av.FlightRecord, error) {
	var r io.Reader = os.Stdin
	if filename != "" && filename != "-" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var e util.ErrorLogger
	if filename != "" {
		e.Push(filename)
	}
	recs := av.ReadSchedule(r, &e)
	if e.HaveErrors() {
		e.PrintErrors(os.Stderr, lg)
		return nil, fmt.Errorf("%d invalid flight records", len(e.Errors()))
	}

	lg.Infof("read %d flights", len(recs))
	return recs, nil
}

func writeSchedule(w io.Writer, recs []av.FlightRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		fmt.Fprintln(bw, rec)
	}
	fmt.Fprintln(bw, av.EndOfSchedule)
	return bw.Flush()
}

func writeReport(w io.Writer, format string, r sim.Report) error {
	switch format {
	case "":
		return nil
	case "text":
		r.Write(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("%s: unknown report format; expected \"text\" or \"json\"", format)
	}
}
