package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/engine"
	"github.com/pthm-cable/contagion/persistence"
	"github.com/pthm-cable/contagion/telemetry"
)

func epidemicConfig() *config.Config {
	cfg := config.Default()
	cfg.Lattice.Size = 4
	cfg.Population.Density = 2.0
	cfg.Population.InitialInfected = 4
	cfg.Disease.Transmission = 0.9
	cfg.Disease.AsymptomaticLength = 2
	cfg.Disease.SymptomaticLength = 2
	cfg.Telemetry.StatsWindow = 5
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config, seed int64) *engine.Engine {
	t.Helper()
	e, err := engine.New(cfg, seed)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func TestRunner_WindowsWithoutOutputs(t *testing.T) {
	e := newEngine(t, epidemicConfig(), 3)

	var seen []telemetry.WindowStats
	r, err := New(e, Options{StatsCallback: func(s telemetry.WindowStats) { seen = append(seen, s) }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := r.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(seen) != 10 || len(r.Windows()) != 10 {
		t.Fatalf("got %d windows (callback %d), want 10", len(r.Windows()), len(seen))
	}
	for i, w := range seen {
		if w.WindowEndTick != (i+1)*5 {
			t.Errorf("window %d ends at %d", i, w.WindowEndTick)
		}
	}

	newInfections, deaths := 0, 0
	for _, w := range seen {
		newInfections += w.NewInfections
		deaths += w.Deaths
	}
	totals := e.Stats().Totals()
	if newInfections+4 != totals.CumulativeInfected {
		t.Errorf("window infections %d + seeded 4 != cumulative %d", newInfections, totals.CumulativeInfected)
	}
	if deaths != totals.Dead {
		t.Errorf("window deaths %d != dead %d", deaths, totals.Dead)
	}

	if summary.Ticks != 50 || summary.Created != totals.TotalCreated || summary.Deaths != totals.Dead {
		t.Errorf("summary = %+v, totals %+v", summary, totals)
	}
	if r.RunID() != 0 {
		t.Errorf("run id without database = %d", r.RunID())
	}
}

func sumWindows(ws []telemetry.WindowStats) (infections, deaths, arrivals int) {
	for _, w := range ws {
		infections += w.NewInfections
		deaths += w.Deaths
		arrivals += w.Arrivals
	}
	return
}

func TestRunner_FlushesPartialLastWindow(t *testing.T) {
	cfg := epidemicConfig()
	cfg.Population.Influx = 0.5
	e := newEngine(t, cfg, 7)

	var seen []telemetry.WindowStats
	r, err := New(e, Options{StatsCallback: func(s telemetry.WindowStats) { seen = append(seen, s) }})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), 23); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 5 {
		t.Fatalf("got %d windows, want 5", len(seen))
	}
	last := seen[4]
	if last.WindowStartTick != 20 || last.WindowEndTick != 23 {
		t.Errorf("last window = [%d, %d], want [20, 23]", last.WindowStartTick, last.WindowEndTick)
	}

	infections, deaths, arrivals := sumWindows(seen)
	totals := e.Stats().Totals()
	if infections+4 != totals.CumulativeInfected {
		t.Errorf("window infections %d + seeded 4 != cumulative %d", infections, totals.CumulativeInfected)
	}
	if deaths != totals.Dead {
		t.Errorf("window deaths %d != dead %d", deaths, totals.Dead)
	}
	if created := 4 * 4 * 2; arrivals != totals.TotalCreated-created {
		t.Errorf("window arrivals %d, created %d of which %d seeded", arrivals, totals.TotalCreated, created)
	}

	// Finishing again must not emit another window
	if _, err := r.Finish(); err != nil {
		t.Fatal(err)
	}
	if len(r.Windows()) != 5 {
		t.Errorf("second Finish added windows: %d", len(r.Windows()))
	}
}

func TestRunner_PartialWindowReachesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	e := newEngine(t, epidemicConfig(), 9)
	r, err := New(e, Options{DBPath: dbPath, RecordEvents: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), 23); err != nil {
		t.Fatal(err)
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	windows, err := db.Windows(r.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 5 || windows[4].WindowEnd != 23 {
		t.Fatalf("stored windows = %+v", windows)
	}

	stored := 0
	for _, w := range windows {
		stored += w.NewInfections
	}
	counts, err := db.CountEvents(r.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if stored != counts["infection"] {
		t.Errorf("windows record %d infections, events %d", stored, counts["infection"])
	}
}

func TestRunner_CancelledMidWindowFlushes(t *testing.T) {
	e := newEngine(t, epidemicConfig(), 4)
	r, err := New(e, Options{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Observe(func(f engine.Frame) {
		if f.Tick == 7 {
			cancel()
		}
	})

	summary, err := r.Run(ctx, 100)
	if err == nil {
		t.Fatal("expected context error")
	}
	if summary.Ticks != 7 {
		t.Errorf("summary ticks = %d, want 7", summary.Ticks)
	}

	ws := r.Windows()
	if len(ws) != 2 || ws[1].WindowEndTick != 7 {
		t.Fatalf("windows = %+v", ws)
	}
	_, deaths, _ := sumWindows(ws)
	if deaths != e.Stats().Totals().Dead {
		t.Errorf("window deaths %d != dead %d", deaths, e.Stats().Totals().Dead)
	}
}

func TestRunner_SeriesStartsAtTickZero(t *testing.T) {
	e := newEngine(t, epidemicConfig(), 2)
	r, err := New(e, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), 12); err != nil {
		t.Fatal(err)
	}

	s := r.Series()
	if s.Len() != 13 || s.Ticks[0] != 0 || s.Ticks[12] != 12 {
		t.Fatalf("series ticks = %v", s.Ticks)
	}
	// Four seeded agents are infected before the first tick
	if s.Total[0] != 4 {
		t.Errorf("currently infected at tick 0 = %v, want 4", s.Total[0])
	}
}

func TestRunner_FirstDeathMilestone(t *testing.T) {
	e := newEngine(t, epidemicConfig(), 11)
	r, err := New(e, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), 40); err != nil {
		t.Fatal(err)
	}

	// Seeded agents die at tick 5 at the latest with these lengths
	found := false
	for _, m := range r.Milestones() {
		if m.Type == telemetry.MilestoneFirstDeath {
			found = true
			if m.Tick != 5 {
				t.Errorf("first death reported at window %d, want 5", m.Tick)
			}
		}
	}
	if !found {
		t.Errorf("no first_death milestone in %+v", r.Milestones())
	}
}

func TestRunner_WritesOutputsAndDatabase(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "runs.db")

	e := newEngine(t, epidemicConfig(), 5)
	r, err := New(e, Options{
		OutputDir:           outDir,
		DBPath:              dbPath,
		RecordEvents:        true,
		SnapshotOnMilestone: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := r.Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "milestones.csv", "summary.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	snaps, _ := filepath.Glob(filepath.Join(outDir, "snapshots", "*.json"))
	if len(snaps) != len(r.Milestones()) {
		t.Errorf("%d snapshots for %d milestones", len(snaps), len(r.Milestones()))
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	run, err := db.GetRun(r.RunID())
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Seed != 5 || run.Ticks != 30 {
		t.Errorf("run = %+v", run)
	}
	stored, err := run.Summary()
	if err != nil || stored != summary {
		t.Errorf("stored summary %+v, want %+v (err %v)", stored, summary, err)
	}

	windows, err := db.Windows(r.RunID())
	if err != nil || len(windows) != 6 {
		t.Fatalf("windows = %d, err %v", len(windows), err)
	}

	counts, err := db.CountEvents(r.RunID())
	if err != nil {
		t.Fatal(err)
	}
	totals := e.Stats().Totals()
	if counts["infection"]+4 != totals.CumulativeInfected || counts["death"] != totals.Dead {
		t.Errorf("event counts %v, totals %+v", counts, totals)
	}

	milestones, err := db.Milestones(r.RunID())
	if err != nil || len(milestones) != len(r.Milestones()) {
		t.Errorf("stored %d milestones, found %d (err %v)", len(milestones), len(r.Milestones()), err)
	}
}

func TestRunner_CancelledRunIsSummarised(t *testing.T) {
	e := newEngine(t, epidemicConfig(), 1)
	outDir := filepath.Join(t.TempDir(), "out")
	r, err := New(e, Options{OutputDir: outDir})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := r.Run(ctx, 100)
	if err == nil {
		t.Fatal("expected context error")
	}
	if summary.Ticks != 0 {
		t.Errorf("summary ticks = %d", summary.Ticks)
	}
	if _, err := os.Stat(filepath.Join(outDir, "summary.json")); err != nil {
		t.Errorf("summary not written: %v", err)
	}

	// Second Finish is a no-op
	if _, err := r.Finish(); err != nil {
		t.Errorf("second Finish: %v", err)
	}
}
