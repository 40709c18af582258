package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/engine"
	"github.com/pthm-cable/contagion/runner"
	"github.com/pthm-cable/contagion/ui"
)

// overrides holds the model parameters that can be set on the command line.
// Only flags the user actually passed are applied over the loaded config.
type overrides struct {
	size         int
	density      float64
	ticks        int
	infected     int
	transmission float64
	asymLength   int
	symptLength  int
	influx       float64
	retainDead   bool
}

func (o *overrides) register(fs *flag.FlagSet) {
	fs.IntVar(&o.size, "L", 10, "Lattice side length")
	fs.Float64Var(&o.density, "N", 1.0, "Initial agents per site")
	fs.IntVar(&o.ticks, "t", 500, "Number of ticks to run")
	fs.IntVar(&o.infected, "n_0", 1, "Initially infected agents")
	fs.Float64Var(&o.transmission, "lam", 0.1, "Transmission rate lambda")
	fs.IntVar(&o.asymLength, "asym_l", 20, "Asymptomatic period in ticks")
	fs.IntVar(&o.symptLength, "symp_l", 20, "Symptomatic period in ticks")
	fs.Float64Var(&o.influx, "influx", 0.0, "Per-tick probability of a new agent")
	fs.BoolVar(&o.retainDead, "retain-dead", false, "Keep dead agents as site occupants")
}

// apply copies every explicitly set flag into cfg.
func (o *overrides) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "L":
			cfg.Lattice.Size = o.size
		case "N":
			cfg.Population.Density = o.density
		case "t":
			cfg.Run.Ticks = o.ticks
		case "n_0":
			cfg.Population.InitialInfected = o.infected
		case "lam":
			cfg.Disease.Transmission = o.transmission
		case "asym_l":
			cfg.Disease.AsymptomaticLength = o.asymLength
		case "symp_l":
			cfg.Disease.SymptomaticLength = o.symptLength
		case "influx":
			cfg.Population.Influx = o.influx
		case "retain-dead":
			cfg.Population.RetainDead = o.retainDead
		}
	})
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, summary and config snapshot")
	dbPath := flag.String("db", "", "SQLite database for run history (empty = disabled)")
	recordEvents := flag.Bool("record-events", false, "Store per-agent events in the database")
	snapshots := flag.Bool("snapshot-on-milestone", false, "Write a lattice snapshot for every milestone")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")

	var ov overrides
	ov.register(flag.CommandLine)

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	ov.apply(flag.CommandLine, cfg)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Run.Seed
	}

	e, err := engine.New(cfg, rngSeed)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	opts := runner.Options{
		LogStats:            *logStats,
		OutputDir:           *outputDir,
		DBPath:              *dbPath,
		RecordEvents:        *recordEvents,
		SnapshotOnMilestone: *snapshots,
	}
	r, err := runner.New(e, opts)
	if err != nil {
		slog.Error("failed to set up run outputs", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"seed", e.Seed(),
		"headless", *headless,
		"lattice", cfg.Lattice.Size,
		"population", e.Population(),
		"ticks", cfg.Run.Ticks,
	)

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		if _, err := r.Run(ctx, cfg.Run.Ticks); err != nil {
			slog.Error("run ended early", "error", err, "tick", e.Tick())
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Contagion")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v := ui.NewViewer(e, r.Perf(), r.Series(), cfg.Run.Ticks)
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()
		v.Draw()
	}

	if _, err := r.Finish(); err != nil {
		slog.Error("failed to finish run", "error", err)
	}
}
