package persistence

import (
	"path/filepath"
	"testing"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/telemetry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun_CreateAndFinish(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateRun(42, []byte("lattice:\n  size: 10\n"))
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if id <= 0 {
		t.Fatalf("run id = %d", id)
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Seed != 42 || run.Ticks != 0 || run.ConfigYAML == "" {
		t.Errorf("run = %+v", run)
	}
	if s, err := run.Summary(); err != nil || s.Ticks != 0 {
		t.Errorf("unfinished summary = %+v, %v", s, err)
	}

	want := telemetry.RunSummary{Ticks: 500, Created: 120, Deaths: 30, AttackRate: 0.5, PeakTick: 80}
	if err := db.FinishRun(id, 500, want); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, err = db.GetRun(id)
	if err != nil {
		t.Fatal(err)
	}
	got, err := run.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if run.Ticks != 500 || got != want {
		t.Errorf("finished run = %+v, summary %+v", run, got)
	}
}

func TestSaveWindow(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateRun(1, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, end := range []int{20, 10, 30} {
		w := telemetry.WindowStats{WindowEndTick: end, Population: end + 1, NewInfections: end / 10, MovesAccepted: 2}
		if err := db.SaveWindow(id, w); err != nil {
			t.Fatalf("SaveWindow(%d): %v", end, err)
		}
	}
	// Rewriting a window replaces it
	if err := db.SaveWindow(id, telemetry.WindowStats{WindowEndTick: 10, Population: 99}); err != nil {
		t.Fatal(err)
	}

	rows, err := db.Windows(id)
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d windows, want 3", len(rows))
	}
	if rows[0].WindowEnd != 10 || rows[0].Population != 99 {
		t.Errorf("first window = %+v", rows[0])
	}
	if rows[2].WindowEnd != 30 || rows[2].NewInfections != 3 || rows[2].MovesAccepted != 2 {
		t.Errorf("last window = %+v", rows[2])
	}
}

func TestSaveEvents(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateRun(1, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := components.NewAgent(7, 30, 4)
	events := []telemetry.Event{
		telemetry.NewInfectionEvent(1, a),
		telemetry.NewMoveEvent(1, a.ID, a.Category, 4, 5),
		telemetry.NewDeathEvent(3, a),
	}
	if err := db.SaveEvents(id, events); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	if err := db.SaveEvents(id, nil); err != nil {
		t.Fatalf("SaveEvents(nil): %v", err)
	}

	all, err := db.Events(id, "")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	move := all[1]
	if move.Type != "move" || move.FromSite != 4 || move.Site != 5 || move.AgentID != 7 {
		t.Errorf("move event = %+v", move)
	}
	if all[0].Category != int(components.CategoryAdult) {
		t.Errorf("category = %d", all[0].Category)
	}

	deaths, err := db.Events(id, "death")
	if err != nil {
		t.Fatal(err)
	}
	if len(deaths) != 1 || deaths[0].Tick != 3 {
		t.Errorf("deaths = %+v", deaths)
	}

	counts, err := db.CountEvents(id)
	if err != nil {
		t.Fatal(err)
	}
	if counts["infection"] != 1 || counts["move"] != 1 || counts["death"] != 1 || counts["arrival"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestMilestones_ScopedByRun(t *testing.T) {
	db := openTestDB(t)
	first, _ := db.CreateRun(1, nil)
	second, _ := db.CreateRun(2, nil)

	if err := db.SaveMilestone(first, telemetry.Milestone{Type: telemetry.MilestoneFirstDeath, Tick: 40, Description: "first death"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMilestone(first, telemetry.Milestone{Type: telemetry.MilestoneEpidemicPeak, Tick: 90, Description: "peak"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMilestone(second, telemetry.Milestone{Type: telemetry.MilestoneFirstDeath, Tick: 12}); err != nil {
		t.Fatal(err)
	}

	got, err := db.Milestones(first)
	if err != nil {
		t.Fatalf("Milestones: %v", err)
	}
	if len(got) != 2 || got[0].Type != telemetry.MilestoneFirstDeath || got[1].Tick != 90 {
		t.Errorf("milestones = %+v", got)
	}
	other, _ := db.Milestones(second)
	if len(other) != 1 || other[0].Tick != 12 {
		t.Errorf("second run milestones = %+v", other)
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := db.CreateRun(9, []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	run, err := db.GetRun(id)
	if err != nil || run.Seed != 9 {
		t.Errorf("run after reopen = %+v, %v", run, err)
	}
}
