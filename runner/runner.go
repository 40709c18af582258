// Package runner attaches telemetry, output files and persistence to an engine.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/contagion/engine"
	"github.com/pthm-cable/contagion/persistence"
	"github.com/pthm-cable/contagion/telemetry"
)

// Options configures what a Runner reports.
type Options struct {
	LogStats            bool   // log window and perf stats via slog
	OutputDir           string // CSV, config and summary output (empty = disabled)
	DBPath              string // SQLite database (empty = disabled)
	RecordEvents        bool   // store per-agent events in the database
	SnapshotOnMilestone bool   // write a lattice snapshot for every milestone

	// StatsCallback is called with each flushed window, if set.
	StatsCallback func(telemetry.WindowStats)
}

// Runner observes an engine and turns its frames into telemetry.
// Output failures are logged and never stop the simulation.
type Runner struct {
	engine *engine.Engine
	opts   Options

	collector  *telemetry.Collector
	perf       *telemetry.PerfCollector
	milestones *telemetry.MilestoneDetector
	series     *telemetry.Series

	output *telemetry.OutputManager
	db     *persistence.DB
	runID  int64

	pendingEvents []telemetry.Event
	windows       []telemetry.WindowStats
	found         []telemetry.Milestone
	finished      bool
}

// New wires a runner to e. The engine must not have been stepped yet.
func New(e *engine.Engine, opts Options) (*Runner, error) {
	cfg := e.Config()
	r := &Runner{
		engine:     e,
		opts:       opts,
		collector:  telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		milestones: telemetry.NewMilestoneDetector(cfg.Telemetry.MilestoneHistorySize, cfg.Milestones.PeakDropPercent, cfg.Milestones.CollapseFraction),
		series:     telemetry.NewSeries(cfg.Run.Ticks + 1),
	}
	r.series.Append(e.Stats())

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	r.output = output
	if err := r.output.WriteConfig(cfg); err != nil {
		r.output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	if opts.DBPath != "" {
		if err := r.openDB(opts.DBPath); err != nil {
			r.output.Close()
			return nil, err
		}
	}

	e.SetPerfCollector(r.perf)
	e.RecordEvents(r.db != nil && opts.RecordEvents)
	e.Observe(r.observe)

	slog.Info("runner attached",
		"seed", e.Seed(),
		"output_dir", r.output.Dir(),
		"db", opts.DBPath,
		"run_id", r.runID,
		"stats_window", r.collector.WindowDurationTicks(),
	)
	return r, nil
}

func (r *Runner) openDB(path string) error {
	db, err := persistence.Open(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	yamlData, err := r.engine.Config().YAML()
	if err != nil {
		db.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	runID, err := db.CreateRun(r.engine.Seed(), yamlData)
	if err != nil {
		db.Close()
		return err
	}
	r.db = db
	r.runID = runID
	return nil
}

// RunID returns the database id of this run, or 0 without a database.
func (r *Runner) RunID() int64 {
	return r.runID
}

// Windows returns every window flushed so far.
func (r *Runner) Windows() []telemetry.WindowStats {
	return r.windows
}

// Milestones returns every milestone detected so far.
func (r *Runner) Milestones() []telemetry.Milestone {
	return r.found
}

// Perf returns the perf collector timing the engine.
func (r *Runner) Perf() *telemetry.PerfCollector {
	return r.perf
}

// Series returns the currently-infected series, starting at tick 0.
func (r *Runner) Series() *telemetry.Series {
	return r.series
}

func (r *Runner) observe(f engine.Frame) {
	r.collector.RecordInfections(f.Report.NewInfections)
	r.collector.RecordDeaths(f.Report.Deaths)
	if f.Report.Arrival != nil {
		r.collector.RecordArrival()
	}
	r.collector.RecordMove(f.Report.Move)
	r.series.Append(f.Stats)
	r.pendingEvents = append(r.pendingEvents, f.Report.Events...)

	if r.collector.ShouldFlush(f.Tick) {
		r.flushTelemetry(f.Stats)
	}
}

// flushTelemetry closes the current stats window and handles milestones.
func (r *Runner) flushTelemetry(current telemetry.PopulationStats) {
	asym, sympt := r.engine.ActiveInfections()
	stats := r.collector.Flush(current, r.engine.Population(), asym, sympt)
	perfStats := r.perf.Stats()
	r.windows = append(r.windows, stats)

	if r.opts.StatsCallback != nil {
		r.opts.StatsCallback(stats)
	}

	if r.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := r.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := r.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	if r.db != nil {
		if err := r.db.SaveWindow(r.runID, stats); err != nil {
			slog.Error("failed to save window", "error", err)
		}
		r.saveEvents()
	}

	for _, m := range r.milestones.Check(stats) {
		r.found = append(r.found, m)
		if r.opts.LogStats {
			m.LogMilestone()
		}
		if err := r.output.WriteMilestone(m); err != nil {
			slog.Error("failed to write milestone", "error", err)
		}
		if r.db != nil {
			if err := r.db.SaveMilestone(r.runID, m); err != nil {
				slog.Error("failed to save milestone", "error", err)
			}
		}
		if r.opts.SnapshotOnMilestone {
			r.saveSnapshot(&m)
		}
	}
}

func (r *Runner) saveEvents() {
	if len(r.pendingEvents) == 0 {
		return
	}
	if err := r.db.SaveEvents(r.runID, r.pendingEvents); err != nil {
		slog.Error("failed to save events", "error", err, "count", len(r.pendingEvents))
	}
	r.pendingEvents = r.pendingEvents[:0]
}

// saveSnapshot writes the current lattice to the output directory.
func (r *Runner) saveSnapshot(m *telemetry.Milestone) {
	path, err := r.output.WriteSnapshot(r.engine.Snapshot(m))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	if path != "" {
		slog.Info("snapshot saved", "path", path, "tick", r.engine.Tick())
	}
}

// Run steps the engine until ticks are done or ctx is cancelled, then
// finishes the run. A cancelled run is still summarised.
func (r *Runner) Run(ctx context.Context, ticks int) (telemetry.RunSummary, error) {
	runErr := r.engine.Run(ctx, ticks)
	summary, err := r.Finish()
	return summary, errors.Join(runErr, err)
}

// Finish flushes the last partial window, summarises the run, writes the
// summary and closes all outputs. It is safe to call more than once.
func (r *Runner) Finish() (telemetry.RunSummary, error) {
	final := r.engine.Stats()
	summary := telemetry.Summarize(r.series, final)
	if r.finished {
		return summary, nil
	}
	r.finished = true

	if r.collector.Pending(final.Tick) {
		r.flushTelemetry(final)
	}

	slog.Info("run finished", "summary", summary)

	if err := r.output.WriteSummary(summary); err != nil {
		slog.Error("failed to write summary", "error", err)
	}

	var errs []error
	if r.db != nil {
		r.saveEvents()
		if err := r.db.FinishRun(r.runID, r.engine.Tick(), summary); err != nil {
			errs = append(errs, fmt.Errorf("finishing run: %w", err))
		}
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.output.Close(); err != nil {
		errs = append(errs, err)
	}
	return summary, errors.Join(errs...)
}
