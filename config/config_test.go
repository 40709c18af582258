package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Lattice.Size != 10 {
		t.Errorf("lattice.size = %d, want 10", cfg.Lattice.Size)
	}
	if cfg.Run.Ticks != 500 {
		t.Errorf("run.ticks = %d, want 500", cfg.Run.Ticks)
	}
	if cfg.Disease.Transmission != 0.1 {
		t.Errorf("disease.transmission = %v, want 0.1", cfg.Disease.Transmission)
	}
	if cfg.Mobility.MaxResamples != 30 {
		t.Errorf("mobility.max_resamples = %d, want 30", cfg.Mobility.MaxResamples)
	}
	for cat := 1; cat <= 4; cat++ {
		if cfg.Mobility.Beta[cat] != float64(cat) {
			t.Errorf("beta[%d] = %v, want %d", cat, cfg.Mobility.Beta[cat], cat)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_OverlayKeepsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := []byte("lattice:\n  size: 4\nmobility:\n  beta:\n    2: 0.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Lattice.Size != 4 {
		t.Errorf("lattice.size = %d, want 4", cfg.Lattice.Size)
	}
	if cfg.Disease.AsymptomaticLength != 20 {
		t.Errorf("asymptomatic_length = %d, want default 20", cfg.Disease.AsymptomaticLength)
	}
	if cfg.Mobility.Beta[2] != 0.5 || cfg.Mobility.Beta[1] != 1 || cfg.Mobility.Beta[4] != 4 {
		t.Errorf("beta overlay = %v, want {1:1 2:0.5 3:3 4:4}", cfg.Mobility.Beta)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero size", func(c *Config) { c.Lattice.Size = 0 }, "lattice.size"},
		{"zero density", func(c *Config) { c.Population.Density = 0 }, "population.density"},
		{"nan density", func(c *Config) { c.Population.Density = math.NaN() }, "population.density"},
		{"negative ticks", func(c *Config) { c.Run.Ticks = -1 }, "run.ticks"},
		{"negative n0", func(c *Config) { c.Population.InitialInfected = -1 }, "population.initial_infected"},
		{"n0 exceeds population", func(c *Config) {
			c.Lattice.Size = 3
			c.Population.Density = 1.0
			c.Population.InitialInfected = 10
		}, "population.initial_infected"},
		{"lambda above one", func(c *Config) { c.Disease.Transmission = 1.5 }, "disease.transmission"},
		{"lambda negative", func(c *Config) { c.Disease.Transmission = -0.1 }, "disease.transmission"},
		{"negative asym", func(c *Config) { c.Disease.AsymptomaticLength = -1 }, "disease.asymptomatic_length"},
		{"negative sympt", func(c *Config) { c.Disease.SymptomaticLength = -2 }, "disease.symptomatic_length"},
		{"influx above one", func(c *Config) { c.Population.Influx = 1.01 }, "population.influx"},
		{"missing beta", func(c *Config) { delete(c.Mobility.Beta, 3) }, "mobility.beta"},
		{"extra beta", func(c *Config) { c.Mobility.Beta[5] = 1 }, "mobility.beta"},
		{"negative resamples", func(c *Config) { c.Mobility.MaxResamples = -1 }, "mobility.max_resamples"},
		{"zero window", func(c *Config) { c.Telemetry.StatsWindow = 0 }, "telemetry.stats_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() = %v, want *ConfigurationError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestValidate_BoundaryValuesAccepted(t *testing.T) {
	cfg := Default()
	cfg.Lattice.Size = 3
	cfg.Population.Density = 2.5
	cfg.Population.InitialInfected = 22 // floor(9 * 2.5)
	cfg.Disease.Transmission = 1
	cfg.Population.Influx = 1
	cfg.Run.Ticks = 0
	cfg.Disease.AsymptomaticLength = 0
	cfg.Disease.SymptomaticLength = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("boundary config rejected: %v", err)
	}
}

func TestPopulationSize(t *testing.T) {
	cfg := Default()
	cfg.Lattice.Size = 3
	cfg.Population.Density = 1.5
	if got := cfg.PopulationSize(); got != 13 {
		t.Errorf("PopulationSize() = %d, want 13", got)
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Lattice.Size = 7
	cfg.Population.RetainDead = true
	cfg.Mobility.Beta[4] = 0.25

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Lattice.Size != 7 || !loaded.Population.RetainDead || loaded.Mobility.Beta[4] != 0.25 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestClone_Independent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Mobility.Beta[1] = 99
	clone.Lattice.Size = 1

	if cfg.Mobility.Beta[1] == 99 || cfg.Lattice.Size == 1 {
		t.Error("mutating clone changed the original")
	}
}
