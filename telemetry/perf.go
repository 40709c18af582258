package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/contagion/systems"
)

// phaseOrder lists the timed phases of a tick in execution order.
var phaseOrder = [...]string{
	systems.PhaseInfection,
	systems.PhaseProgression,
	systems.PhaseMovement,
	systems.PhaseInflux,
	systems.PhaseTelemetry,
}

const numPhases = len(phaseOrder)

// phaseIndex maps a phase id to its slot, or -1 for unknown ids.
func phaseIndex(phase string) int {
	for i, p := range phaseOrder {
		if p == phase {
			return i
		}
	}
	return -1
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       [numPhases]time.Duration
}

// PerfCollector times the phases of each tick over a rolling window.
// Window sums are kept up to date as samples enter and leave the ring.
type PerfCollector struct {
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	tickSum  time.Duration
	phaseSum [numPhases]time.Duration

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // slot of the running phase, -1 if none

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, windowSize),
		phase:   -1,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PerfSample{}
	p.phase = -1
}

// StartPhase ends the running phase and starts timing the next one.
// Unknown phase ids count toward the tick but no phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.endPhase(now)
	p.phaseStart = now
	p.phase = phaseIndex(phase)
}

func (p *PerfCollector) endPhase(now time.Time) {
	if p.phase >= 0 {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.endPhase(now)
	p.phase = -1
	p.current.TickDuration = now.Sub(p.tickStart)

	if p.sampleCount == len(p.samples) {
		old := p.samples[p.writeIndex]
		p.tickSum -= old.TickDuration
		for i, d := range old.Phases {
			p.phaseSum[i] -= d
		}
	} else {
		p.sampleCount++
	}

	p.samples[p.writeIndex] = p.current
	p.tickSum += p.current.TickDuration
	for i, d := range p.current.Phases {
		p.phaseSum[i] += d
	}
	p.writeIndex = (p.writeIndex + 1) % len(p.samples)
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of tick time per phase id
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
// Every phase appears in the maps once a tick has been recorded.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, numPhases),
		PhasePct:      make(map[string]float64, numPhases),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return s
	}

	n := time.Duration(p.sampleCount)
	s.AvgTickDuration = p.tickSum / n
	s.MinTickDuration = p.samples[0].TickDuration
	for _, sample := range p.samples[:p.sampleCount] {
		s.MinTickDuration = min(s.MinTickDuration, sample.TickDuration)
		s.MaxTickDuration = max(s.MaxTickDuration, sample.TickDuration)
	}

	for i, phase := range phaseOrder {
		avg := p.phaseSum[i] / n
		s.PhaseAvg[phase] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[phase] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
// Phases below 0.1% of the tick are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range phaseOrder {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd      int     `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	FPS            float64 `csv:"fps"`
	InfectionPct   float64 `csv:"infection_pct"`
	ProgressionPct float64 `csv:"progression_pct"`
	MovementPct    float64 `csv:"movement_pct"`
	InfluxPct      float64 `csv:"influx_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		FPS:            s.FPS,
		InfectionPct:   s.PhasePct[systems.PhaseInfection],
		ProgressionPct: s.PhasePct[systems.PhaseProgression],
		MovementPct:    s.PhasePct[systems.PhaseMovement],
		InfluxPct:      s.PhasePct[systems.PhaseInflux],
		TelemetryPct:   s.PhasePct[systems.PhaseTelemetry],
	}
}
