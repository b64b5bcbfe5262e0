// cmd/atsim/board.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atsim/atsim/log"
	"github.com/atsim/atsim/sim"

	"github.com/gdamore/tcell/v2"
)

// cellSetter is the subset of tcell.Screen that the board draws with.
type cellSetter interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

// board is a live terminal display of the runway queues at each airport
// and the most recently completed flights.
type board struct {
	quit      chan struct{}
	pause     chan struct{} // toggles pause
	paused    bool
	recent    []string
	maxRecent int
}

var (
	styleDefault = tcell.StyleDefault
	styleHeader  = tcell.StyleDefault.Bold(true).Reverse(true)
	styleAirport = tcell.StyleDefault.Foreground(tcell.ColorTeal).Bold(true)
	styleQueue   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHelp    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

func newBoard() *board {
	return &board{
		quit:      make(chan struct{}),
		pause:     make(chan struct{}, 1),
		maxRecent: 10,
	}
}

// runBoard runs the simulation while displaying its progress, sleeping
// for delay between ticks. Pressing q or Escape stops the run early and
// space pauses it.
func runBoard(s *sim.Sim, delay time.Duration, lg *log.Logger) (*sim.Result, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))

	b := newBoard()
	go b.pollEvents(screen)

	sub := s.Subscribe()
	defer sub.Unsubscribe()

	return s.Run(func(s *sim.Sim) bool {
		b.consumeEvents(sub.Get())

		snap := s.Snapshot()
		screen.Clear()
		width, height := screen.Size()
		b.render(screen, width, height, &snap)
		screen.Show()

		for {
			timeout := time.After(delay)
			select {
			case <-b.quit:
				lg.Info("run stopped from board", slog.String("clock", snap.Clock.String()))
				return false
			case <-b.pause:
				b.paused = !b.paused
				b.render(screen, width, height, &snap)
				screen.Show()
			case <-timeout:
				if !b.paused {
					return true
				}
			}
		}
	})
}

func (b *board) pollEvents(screen tcell.Screen) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			// Fini was called.
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()

		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q'):
				close(b.quit)
				return
			case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
				select {
				case b.pause <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *board) consumeEvents(events []sim.Event) {
	for _, e := range events {
		if e.Type == sim.FlightCompletedEvent && e.Log != nil {
			b.recent = append(b.recent, e.Log.String())
		}
	}
	if n := len(b.recent); n > b.maxRecent {
		b.recent = b.recent[n-b.maxRecent:]
	}
}

func (b *board) render(c cellSetter, width, height int, snap *sim.Snapshot) {
	counts := snap.CountByState()
	header := fmt.Sprintf(" %s  standby %d  waiting %d  en route %d  complete %d ", snap.Clock,
		counts[sim.StandBy]+counts[sim.WaitForPlane], counts[sim.WaitToTakeoff]+counts[sim.WaitToLand],
		counts[sim.EnRoute], counts[sim.Complete])
	drawText(c, 0, 0, width, styleHeader, header)

	y := 2
	for _, ap := range snap.Airports {
		if y >= height-b.maxRecent-3 {
			drawText(c, 0, y, width, styleHelp, "...")
			y++
			break
		}

		x := drawText(c, 0, y, 5, styleAirport, ap.Code)
		x = drawText(c, x, y, 24, styleDefault, fmt.Sprintf("dep %d/%d arr %d/%d",
			len(ap.Departures), ap.Admissions[sim.DepartureQueue], len(ap.Arrivals), ap.Admissions[sim.ArrivalQueue]))
		queued := "D: " + strings.Join(snap.Callsigns(ap.Departures), " ") +
			"  A: " + strings.Join(snap.Callsigns(ap.Arrivals), " ")
		drawText(c, x, y, max(0, width-x), styleQueue, queued)
		y++
	}

	y++
	drawText(c, 0, y, width, styleHeader, " Recent arrivals ")
	y++
	for _, r := range b.recent {
		if y >= height-1 {
			break
		}
		drawText(c, 0, y, width, styleDefault, r)
		y++
	}

	help := " [Space]=Pause  [q]=Quit "
	if b.paused {
		help = " PAUSED" + help
	}
	drawText(c, 0, height-1, width, styleHelp, help)
}

// drawText draws a string at the given position, padding it with spaces
// to maxWidth, and returns the x coordinate following it.
func drawText(c cellSetter, x, y, maxWidth int, style tcell.Style, text string) int {
	col := 0
	for _, r := range text {
		if col >= maxWidth {
			break
		}
		c.SetContent(x+col, y, r, nil, style)
		col++
	}
	for col < maxWidth {
		c.SetContent(x+col, y, ' ', nil, style)
		col++
	}
	return x + maxWidth
}
