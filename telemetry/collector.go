package telemetry

import (
	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/systems"
)

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int

	// Current window tracking
	windowStartTick int

	// Event counters for current window
	newInfections int
	deaths        int
	arrivals      int
	movesAccepted int
	movesRejected int
	movesBlocked  int
	movesSkipped  int
	resamples     int
	moveAttempts  int
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window spans
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowDurationTicks: windowTicks}
}

// RecordInfections records n new infections.
func (c *Collector) RecordInfections(n int) {
	c.newInfections += n
}

// RecordDeaths records n deaths.
func (c *Collector) RecordDeaths(n int) {
	c.deaths += n
}

// RecordArrival records an influx arrival.
func (c *Collector) RecordArrival() {
	c.arrivals++
}

// RecordMove records the outcome of a movement phase.
func (c *Collector) RecordMove(r systems.MoveReport) {
	switch r.Outcome {
	case systems.MoveAccepted:
		c.movesAccepted++
	case systems.MoveRejected:
		c.movesRejected++
	case systems.MoveBlocked:
		c.movesBlocked++
	default:
		c.movesSkipped++
		return
	}
	c.moveAttempts++
	c.resamples += r.Resamples
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Pending reports whether ticks after the last flush have not been
// flushed yet as of currentTick.
func (c *Collector) Pending(currentTick int) bool {
	return currentTick > c.windowStartTick
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - stats: the tracker snapshot at the current tick
// - population: agents currently held by the lattice
// - asym, sympt: current infectious agents by phase
func (c *Collector) Flush(stats PopulationStats, population, asym, sympt int) WindowStats {
	totals := stats.Totals()

	var acceptRate, meanResamples float64
	if c.moveAttempts > 0 {
		acceptRate = float64(c.movesAccepted) / float64(c.moveAttempts)
		meanResamples = float64(c.resamples) / float64(c.moveAttempts)
	}

	ws := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   stats.Tick,

		Population: population,
		Alive:      totals.Alive,
		Created:    totals.TotalCreated,
		Dead:       totals.Dead,

		Asymptomatic:       asym,
		Symptomatic:        sympt,
		CumulativeInfected: totals.CumulativeInfected,
		AttackRate:         stats.AttackRate(),

		AdultInfected:   stats.For(components.CategoryAdult).CurrentlyInfected(),
		ElderlyInfected: stats.For(components.CategoryElderly).CurrentlyInfected(),
		YouthInfected:   stats.For(components.CategoryYouth).CurrentlyInfected(),
		InfantInfected:  stats.For(components.CategoryInfant).CurrentlyInfected(),

		NewInfections: c.newInfections,
		Deaths:        c.deaths,
		Arrivals:      c.arrivals,

		MovesAccepted:  c.movesAccepted,
		MovesRejected:  c.movesRejected,
		MovesBlocked:   c.movesBlocked,
		MovesSkipped:   c.movesSkipped,
		MoveAcceptRate: acceptRate,
		MeanResamples:  meanResamples,
	}

	// Reset for next window
	c.windowStartTick = stats.Tick
	c.newInfections = 0
	c.deaths = 0
	c.arrivals = 0
	c.movesAccepted = 0
	c.movesRejected = 0
	c.movesBlocked = 0
	c.movesSkipped = 0
	c.resamples = 0
	c.moveAttempts = 0

	return ws
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int {
	return c.windowDurationTicks
}
