// Package engine runs the epidemic simulation tick loop.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
)

// TickReport lists what happened during one tick.
type TickReport struct {
	NewInfections int
	Deaths        int
	Move          systems.MoveReport
	Arrival       *components.AgentSummary

	// Events is only populated when event recording is enabled.
	Events []telemetry.Event
}

// Frame is published to observers after every tick.
type Frame struct {
	Tick   int
	Stats  telemetry.PopulationStats
	Report TickReport

	view *frameView
}

// frameView builds a tick's occupancy on first use. The engine detaches it
// before the next tick mutates the lattice.
type frameView struct {
	engine *Engine
	sites  []components.SiteView
	built  bool
}

// Occupancy returns the per-site agent summaries at the end of f.Tick.
// The first call must happen before the next Step; later calls return the
// same copy. A frame first read after the next Step returns nil.
func (f Frame) Occupancy() []components.SiteView {
	v := f.view
	if v == nil {
		return nil
	}
	if !v.built && v.engine != nil {
		v.sites = v.engine.Occupancy()
		v.built = true
	}
	return v.sites
}

// Observer receives a Frame after each tick. Observers must not retain the
// engine or mutate simulation state.
type Observer func(Frame)

// Engine owns the lattice, the random stream and the counters of one run.
type Engine struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand
	ids  components.IDAllocator

	lattice *systems.Lattice
	tracker *telemetry.Tracker

	infection   *systems.InfectionSystem
	progression *systems.ProgressionSystem
	movement    *systems.MovementSystem

	tick      int
	observers []Observer
	lastView  *frameView

	perf         *telemetry.PerfCollector
	recordEvents bool
}

// New validates cfg, builds the lattice and seeds the population.
// A zero seed is replaced by a time-based one. Configuration problems are
// returned as *config.ConfigurationError.
func New(cfg *config.Config, seed int64) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cfg = cfg.Clone()
	e := &Engine{
		cfg:         cfg,
		seed:        seed,
		rng:         rand.New(rand.NewSource(seed)),
		lattice:     systems.NewLattice(cfg.Lattice.Size),
		tracker:     telemetry.NewTracker(),
		infection:   systems.NewInfectionSystem(),
		progression: systems.NewProgressionSystem(cfg.Disease.AsymptomaticLength, cfg.Disease.SymptomaticLength, cfg.Population.RetainDead),
		movement:    systems.NewMovementSystem(cfg.MobilityTable(), cfg.Mobility.MaxResamples),
	}

	params := systems.SeedParams{
		Density:         cfg.Population.Density,
		InitialInfected: cfg.Population.InitialInfected,
	}
	if _, err := systems.Seed(e.lattice, &e.ids, e.rng, params, e.tracker); err != nil {
		return nil, err
	}
	return e, nil
}

// Observe registers an observer called after every tick.
func (e *Engine) Observe(o Observer) {
	e.observers = append(e.observers, o)
}

// SetPerfCollector enables per-phase timing. Pass nil to disable.
func (e *Engine) SetPerfCollector(p *telemetry.PerfCollector) {
	e.perf = p
}

// RecordEvents toggles per-agent events in tick reports.
func (e *Engine) RecordEvents(on bool) {
	e.recordEvents = on
}

func (e *Engine) startPhase(name string) {
	if e.perf != nil {
		e.perf.StartPhase(name)
	}
}

// Step runs one tick: infection, progression, movement and influx, in that
// order. The tick counter then advances and observers are notified.
func (e *Engine) Step() Frame {
	if e.perf != nil {
		e.perf.StartTick()
	}
	if e.lastView != nil {
		e.lastView.engine = nil
	}
	next := e.tick + 1
	var report TickReport

	e.startPhase(systems.PhaseInfection)
	infected := e.infection.Update(e.lattice, e.rng, e.cfg.Disease.Transmission, e.tracker)
	report.NewInfections = len(infected)
	if e.recordEvents {
		for _, a := range infected {
			report.Events = append(report.Events, telemetry.NewInfectionEvent(next, a))
		}
	}

	e.startPhase(systems.PhaseProgression)
	died := e.progression.Update(e.lattice, e.tracker)
	report.Deaths = len(died)
	if e.recordEvents {
		for _, a := range died {
			report.Events = append(report.Events, telemetry.NewDeathEvent(next, a))
		}
	}

	e.startPhase(systems.PhaseMovement)
	report.Move = e.movement.Update(e.lattice, e.rng)
	if e.recordEvents && report.Move.Moved() {
		m := report.Move
		report.Events = append(report.Events, telemetry.NewMoveEvent(next, m.Agent, m.Category, m.From, m.To))
	}

	e.startPhase(systems.PhaseInflux)
	if a := systems.ApplyInflux(e.lattice, &e.ids, e.rng, e.cfg.Population.Influx, e.tracker); a != nil {
		s := a.Summary()
		report.Arrival = &s
		if e.recordEvents {
			report.Events = append(report.Events, telemetry.NewArrivalEvent(next, a))
		}
	}

	e.tick = next

	e.startPhase(systems.PhaseTelemetry)
	e.lastView = &frameView{engine: e}
	frame := Frame{
		Tick:   e.tick,
		Stats:  e.tracker.Snapshot(e.tick),
		Report: report,
		view:   e.lastView,
	}
	for _, o := range e.observers {
		o(frame)
	}

	if e.perf != nil {
		e.perf.EndTick()
	}
	return frame
}

// Run steps the engine ticks times. It stops early only when ctx is
// cancelled, returning the context's error.
func (e *Engine) Run(ctx context.Context, ticks int) error {
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.Step()
	}
	return nil
}

// Tick returns the number of completed ticks.
func (e *Engine) Tick() int {
	return e.tick
}

// Seed returns the seed of the random stream.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Config returns the engine's copy of the configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Stats returns the counters at the current tick.
func (e *Engine) Stats() telemetry.PopulationStats {
	return e.tracker.Snapshot(e.tick)
}

// Occupancy returns a copy of every site's occupants.
func (e *Engine) Occupancy() []components.SiteView {
	return e.lattice.View()
}

// Lattice exposes the topology for read-only use.
func (e *Engine) Lattice() *systems.Lattice {
	return e.lattice
}

// Population returns the number of agents held by the lattice.
func (e *Engine) Population() int {
	return e.lattice.Population()
}

// ActiveInfections counts infectious agents by phase.
func (e *Engine) ActiveInfections() (asym, sympt int) {
	for id := 0; id < e.lattice.NumSites(); id++ {
		for _, a := range e.lattice.Site(id).Occupants {
			switch a.State() {
			case components.Asymptomatic:
				asym++
			case components.Symptomatic:
				sympt++
			}
		}
	}
	return asym, sympt
}

// Verify checks lattice consistency.
func (e *Engine) Verify() error {
	return e.lattice.Verify()
}

// Snapshot captures the current state for saving to disk.
func (e *Engine) Snapshot(m *telemetry.Milestone) *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     e.seed,
		LatticeSize: e.lattice.Size(),
		Tick:        e.tick,
		Stats:       e.Stats(),
		Sites:       e.lattice.View(),
		Milestone:   m,
	}
}
