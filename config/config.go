// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/contagion/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Lattice    LatticeConfig    `yaml:"lattice"`
	Population PopulationConfig `yaml:"population"`
	Disease    DiseaseConfig    `yaml:"disease"`
	Mobility   MobilityConfig   `yaml:"mobility"`
	Run        RunConfig        `yaml:"run"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Milestones MilestonesConfig `yaml:"milestones"`
	Screen     ScreenConfig     `yaml:"screen"`
}

// LatticeConfig holds grid dimensions.
type LatticeConfig struct {
	Size int `yaml:"size"` // L: side length of the L×L grid
}

// PopulationConfig holds population sizing and influx parameters.
type PopulationConfig struct {
	Density         float64 `yaml:"density"`          // N: mean agents per site (may exceed 1)
	InitialInfected int     `yaml:"initial_infected"` // n_0
	Influx          float64 `yaml:"influx"`           // per-tick probability of one new agent
	RetainDead      bool    `yaml:"retain_dead"`      // keep dead agents as inert occupants
}

// DiseaseConfig holds transmission and progression parameters.
type DiseaseConfig struct {
	Transmission       float64 `yaml:"transmission"`        // lambda
	AsymptomaticLength int     `yaml:"asymptomatic_length"` // days before symptoms
	SymptomaticLength  int     `yaml:"symptomatic_length"`  // days of symptoms before death
}

// MobilityConfig holds movement parameters.
type MobilityConfig struct {
	MaxResamples int             `yaml:"max_resamples"` // destination resamples before skipping a move
	Beta         map[int]float64 `yaml:"beta"`          // age category -> coefficient
}

// RunConfig holds run length and seeding.
type RunConfig struct {
	Ticks int   `yaml:"ticks"` // t
	Seed  int64 `yaml:"seed"`  // 0 = time-based
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow          int `yaml:"stats_window"` // ticks per window
	PerfCollectorWindow  int `yaml:"perf_collector_window"`
	MilestoneHistorySize int `yaml:"milestone_history_size"`
}

// MilestonesConfig holds milestone detection thresholds.
type MilestonesConfig struct {
	PeakDropPercent  float64 `yaml:"peak_drop_percent"`  // drop below running peak that marks the epidemic peak
	CollapseFraction float64 `yaml:"collapse_fraction"` // alive/created ratio that marks a collapse
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ConfigurationError reports a parameter that violates its constraint.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s = %v: %s", e.Field, e.Value, e.Reason)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// NumSites returns L².
func (c *Config) NumSites() int {
	return c.Lattice.Size * c.Lattice.Size
}

// PopulationSize returns floor(L²·N), the size of the initial population.
func (c *Config) PopulationSize() int {
	return int(math.Floor(float64(c.NumSites()) * c.Population.Density))
}

// MobilityTable converts the beta map into the agents' lookup table.
func (c *Config) MobilityTable() components.MobilityTable {
	table := make(components.MobilityTable, len(c.Mobility.Beta))
	for k, v := range c.Mobility.Beta {
		table[components.AgeCategory(k)] = v
	}
	return table
}

// Validate checks every constraint and returns the first violation as a
// *ConfigurationError.
func (c *Config) Validate() error {
	if c.Lattice.Size <= 0 {
		return &ConfigurationError{"lattice.size", c.Lattice.Size, "must be > 0"}
	}
	if !(c.Population.Density > 0) || math.IsInf(c.Population.Density, 0) {
		return &ConfigurationError{"population.density", c.Population.Density, "must be a finite value > 0"}
	}
	if c.Run.Ticks < 0 {
		return &ConfigurationError{"run.ticks", c.Run.Ticks, "must be >= 0"}
	}
	if c.Population.InitialInfected < 0 {
		return &ConfigurationError{"population.initial_infected", c.Population.InitialInfected, "must be >= 0"}
	}
	if n := c.PopulationSize(); c.Population.InitialInfected > n {
		return &ConfigurationError{"population.initial_infected", c.Population.InitialInfected,
			fmt.Sprintf("exceeds initial population floor(L²·N) = %d", n)}
	}
	if !inUnit(c.Disease.Transmission) {
		return &ConfigurationError{"disease.transmission", c.Disease.Transmission, "must be in [0, 1]"}
	}
	if c.Disease.AsymptomaticLength < 0 {
		return &ConfigurationError{"disease.asymptomatic_length", c.Disease.AsymptomaticLength, "must be >= 0"}
	}
	if c.Disease.SymptomaticLength < 0 {
		return &ConfigurationError{"disease.symptomatic_length", c.Disease.SymptomaticLength, "must be >= 0"}
	}
	if !inUnit(c.Population.Influx) {
		return &ConfigurationError{"population.influx", c.Population.Influx, "must be in [0, 1]"}
	}
	for _, cat := range components.Categories {
		beta, ok := c.Mobility.Beta[int(cat)]
		if !ok {
			return &ConfigurationError{"mobility.beta", int(cat), "missing coefficient for age category"}
		}
		if math.IsNaN(beta) || math.IsInf(beta, 0) {
			return &ConfigurationError{fmt.Sprintf("mobility.beta[%d]", cat), beta, "must be finite"}
		}
	}
	if len(c.Mobility.Beta) != components.NumCategories {
		return &ConfigurationError{"mobility.beta", c.Mobility.Beta, "must have exactly one entry per category 1-4"}
	}
	if c.Mobility.MaxResamples < 0 {
		return &ConfigurationError{"mobility.max_resamples", c.Mobility.MaxResamples, "must be >= 0"}
	}
	if c.Telemetry.StatsWindow < 1 {
		return &ConfigurationError{"telemetry.stats_window", c.Telemetry.StatsWindow, "must be >= 1"}
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Mobility.Beta = make(map[int]float64, len(c.Mobility.Beta))
	for k, v := range c.Mobility.Beta {
		clone.Mobility.Beta[k] = v
	}
	return &clone
}

// YAML encodes the configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
