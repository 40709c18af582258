package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/contagion/config"
)

func TestOutputManager_DisabledIsNilSafe(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}

	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteMilestone(Milestone{}); err != nil {
		t.Error(err)
	}
	if _, err := om.WriteSnapshot(&Snapshot{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should report empty dir")
	}
}

func TestOutputManager_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}

	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	for tick := 10; tick <= 30; tick += 10 {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: tick, Population: tick * 2}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 30); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteMilestone(Milestone{Type: MilestoneFirstDeath, Tick: 20, Description: "one death"}); err != nil {
		t.Fatalf("WriteMilestone: %v", err)
	}
	if err := om.WriteSummary(RunSummary{Ticks: 30, PeakInfected: 4}); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if _, err := om.WriteSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 30}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Header once, then one row per window
	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	var rows []WindowStats
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatalf("parsing telemetry.csv: %v", err)
	}
	if len(rows) != 3 || rows[2].WindowEndTick != 30 || rows[2].Population != 60 {
		t.Errorf("telemetry rows = %+v", rows)
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("telemetry header written more than once")
	}

	milestones, err := os.ReadFile(filepath.Join(dir, "milestones.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(milestones), "first_death") {
		t.Errorf("milestones.csv = %q", milestones)
	}

	var summary RunSummary
	raw, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &summary); err != nil || summary.PeakInfected != 4 {
		t.Errorf("summary = %+v, err %v", summary, err)
	}

	for _, name := range []string{"config.yaml", "perf.csv", filepath.Join("snapshots", "snapshot_30.json")} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
