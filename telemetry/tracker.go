package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/contagion/components"
)

// CategoryStats holds the running counters for one age category.
type CategoryStats struct {
	TotalCreated       int `json:"total_created"`
	Alive              int `json:"alive"`
	Dead               int `json:"dead"`
	CumulativeInfected int `json:"cumulative_infected"`
}

// CurrentlyInfected returns cumulative infections minus deaths, the number
// of agents of this category that are infected right now.
func (c CategoryStats) CurrentlyInfected() int {
	return c.CumulativeInfected - c.Dead
}

// Tracker keeps per-category counters. It satisfies systems.Recorder.
type Tracker struct {
	cats [components.NumCategories]CategoryStats
}

// NewTracker creates a tracker with all counters at zero.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordCreated counts a new agent as created and alive.
func (t *Tracker) RecordCreated(c components.AgeCategory) {
	s := &t.cats[c.Index()]
	s.TotalCreated++
	s.Alive++
}

// RecordInfection counts a new infection.
func (t *Tracker) RecordInfection(c components.AgeCategory) {
	t.cats[c.Index()].CumulativeInfected++
}

// RecordDeath moves one agent from alive to dead.
func (t *Tracker) RecordDeath(c components.AgeCategory) {
	s := &t.cats[c.Index()]
	s.Alive--
	s.Dead++
}

// Snapshot returns an immutable copy of the counters at tick.
func (t *Tracker) Snapshot(tick int) PopulationStats {
	return PopulationStats{Tick: tick, Categories: t.cats}
}

// PopulationStats is a point-in-time copy of the tracker.
type PopulationStats struct {
	Tick       int                                     `json:"tick"`
	Categories [components.NumCategories]CategoryStats `json:"categories"`
}

// For returns the counters of one category.
func (p PopulationStats) For(c components.AgeCategory) CategoryStats {
	return p.Categories[c.Index()]
}

// Totals sums the counters across categories.
func (p PopulationStats) Totals() CategoryStats {
	var t CategoryStats
	for _, c := range p.Categories {
		t.TotalCreated += c.TotalCreated
		t.Alive += c.Alive
		t.Dead += c.Dead
		t.CumulativeInfected += c.CumulativeInfected
	}
	return t
}

// AttackRate returns cumulative infections over agents created.
func (p PopulationStats) AttackRate() float64 {
	t := p.Totals()
	if t.TotalCreated == 0 {
		return 0
	}
	return float64(t.CumulativeInfected) / float64(t.TotalCreated)
}

// LogValue implements slog.LogValuer for structured logging.
func (p PopulationStats) LogValue() slog.Value {
	t := p.Totals()
	attrs := []slog.Attr{
		slog.Int("tick", p.Tick),
		slog.Int("created", t.TotalCreated),
		slog.Int("alive", t.Alive),
		slog.Int("dead", t.Dead),
		slog.Int("cumulative_infected", t.CumulativeInfected),
	}
	for _, c := range components.Categories {
		attrs = append(attrs, slog.Int(c.String()+"_infected", p.For(c).CurrentlyInfected()))
	}
	return slog.GroupValue(attrs...)
}
