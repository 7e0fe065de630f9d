package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/games"
	"github.com/pthm-cable/evogrid/sim"
	"github.com/pthm-cable/evogrid/store"
	"github.com/pthm-cable/evogrid/telemetry"
	"github.com/pthm-cable/evogrid/ui"
)

type cliFlags struct {
	configPath    string
	gameID        string
	gameFile      string
	dynamic       string
	beta          float64
	size          int
	radius        float64
	seed          uint64
	maxIterations int
	workers       int
	stopOnStable  bool
	headless      bool
	logStats      bool
	outputDir     string
	snapshotDir   string
	dbPath        string
	resume        string
}

func main() {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.StringVar(&f.gameID, "game", "", "Catalog game id: pd, sh, hd, rps, bos (empty = use config)")
	flag.StringVar(&f.gameFile, "game-file", "", "YAML game definition (overrides -game)")
	flag.StringVar(&f.dynamic, "dynamic", "", "Learning dynamic (empty = use config)")
	flag.Float64Var(&f.beta, "beta", 0, "Fermi steepness (0 = use config)")
	flag.IntVar(&f.size, "size", 0, "Grid side length (0 = use config)")
	flag.Float64Var(&f.radius, "radius", -1, "Neighborhood radius, below 1 for random pairing (-1 = use config)")
	flag.Uint64Var(&f.seed, "seed", 0, "RNG seed (0 = use config, time based if unset there)")
	flag.IntVar(&f.maxIterations, "max-iterations", -1, "Stop after N iterations (0 = unlimited, -1 = use config)")
	flag.IntVar(&f.workers, "workers", -1, "Worker goroutines (0 = GOMAXPROCS, -1 = use config)")
	flag.BoolVar(&f.stopOnStable, "stop-on-stable", false, "Stop once the population is stable")
	flag.BoolVar(&f.headless, "headless", false, "Run without graphics")
	flag.BoolVar(&f.logStats, "log-stats", false, "Output window stats via slog")
	flag.StringVar(&f.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.StringVar(&f.snapshotDir, "snapshot-dir", "", "Directory for event snapshots")
	flag.StringVar(&f.dbPath, "db", "", "SQLite database for run records (empty = disabled)")
	flag.StringVar(&f.resume, "resume", "", "Snapshot file to resume from")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(f); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(f cliFlags) error {
	if err := config.Init(f.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()
	applyOverrides(cfg, f)
	cfg.Refresh()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	def, err := loadGame(cfg)
	if err != nil {
		return err
	}
	if missing := def.MissingPayoffs(); len(missing) > 0 {
		slog.Warn("payoff table is incomplete, missing pairs score zero", "game", def.Name, "missing", missing)
	}

	opts, err := sim.OptionsFromConfig(cfg, def)
	if err != nil {
		return err
	}

	var s *sim.Simulation
	if f.resume != "" {
		snap, err := telemetry.LoadSnapshot(f.resume)
		if err != nil {
			return err
		}
		s, err = sim.FromSnapshot(def, opts, snap)
		if err != nil {
			return err
		}
		slog.Info("resumed from snapshot", "path", f.resume, "iteration", snap.Iteration)
	} else {
		s, err = sim.New(def, opts)
		if err != nil {
			return err
		}
	}
	defer s.Close()

	output, err := telemetry.NewOutputManager(f.outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runStore sim.RunStore
	if f.dbPath != "" {
		db := store.NewSQLiteStore(f.dbPath)
		if err := db.Init(ctx); err != nil {
			return err
		}
		defer db.Close()
		runStore = db
	}

	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	runner := sim.NewRunner(s, sim.RunnerOptions{
		MaxIterations:   cfg.Simulation.MaxIterations,
		StopOnStable:    cfg.Simulation.StopOnStable,
		StatsWindow:     cfg.Telemetry.StatsWindow,
		StabilityWindow: cfg.Telemetry.StabilityWindow,
		StabilityRange:  cfg.Telemetry.StabilityRange,
		PerfWindow:      cfg.Telemetry.PerfWindow,
		LogStats:        f.logStats,
		SnapshotDir:     f.snapshotDir,
		ConfigYAML:      string(cfgYAML),
		Output:          output,
		Store:           runStore,
	})

	slog.Info("starting simulation",
		"game", def.Name,
		"dynamic", opts.Dynamic.Name(),
		"size", opts.Size,
		"seed", s.Seed(),
		"workers", cfg.Derived.Workers,
		"headless", f.headless,
	)

	if f.headless {
		return runner.Run(ctx)
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Evogrid: "+def.Name)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	viewer := ui.NewViewer(runner, cfg)
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		viewer.Update(ctx)
		viewer.Draw()
	}
	if err := runner.Finish(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	return viewer.Err()
}

// applyOverrides copies explicitly set flags over the loaded config.
func applyOverrides(cfg *config.Config, f cliFlags) {
	if f.gameID != "" {
		cfg.Game.ID = f.gameID
		cfg.Game.File = ""
	}
	if f.gameFile != "" {
		cfg.Game.File = f.gameFile
	}
	if f.dynamic != "" {
		cfg.Dynamics.Kind = f.dynamic
	}
	if f.beta > 0 {
		cfg.Dynamics.FermiBeta = f.beta
	}
	if f.size > 0 {
		cfg.Spatial.Size = f.size
	}
	if f.radius >= 0 {
		cfg.Spatial.Radius = f.radius
	}
	if f.seed != 0 {
		cfg.Simulation.Seed = f.seed
	}
	if f.maxIterations >= 0 {
		cfg.Simulation.MaxIterations = f.maxIterations
	}
	if f.workers >= 0 {
		cfg.Simulation.Workers = f.workers
	}
	if f.stopOnStable {
		cfg.Simulation.StopOnStable = true
	}
}

func loadGame(cfg *config.Config) (*games.Definition, error) {
	if cfg.Game.File != "" {
		return games.LoadFile(cfg.Game.File)
	}
	return games.Lookup(cfg.Game.ID)
}
