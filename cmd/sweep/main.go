// Package main sweeps simulation parameters over a grid, or searches them
// with CMA-ES, and reports the final strategy shares at each point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/games"
)

// SweepRow is one strategy's outcome at one parameter point.
type SweepRow struct {
	Point      int     `csv:"point"`
	Params     string  `csv:"params"`
	FermiBeta  float64 `csv:"fermi_beta"`
	Radius     float64 `csv:"radius"`
	Strategy   string  `csv:"strategy"`
	ShareMean  float64 `csv:"share_mean"`
	ShareStd   float64 `csv:"share_std"`
	Diversity  float64 `csv:"diversity"`
	StableRate float64 `csv:"stable_rate"`
	Iterations float64 `csv:"mean_iterations"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// sweepSetup is the state shared by every subcommand.
type sweepSetup struct {
	configPath string
	outputDir  string
	params     *ParamVector
	evaluator  *Evaluator
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Parameter sweeps over headless evogrid runs",
		Long: `sweep runs headless simulations over a range of parameter values and
records the final strategy shares, averaged over several seeds, to sweep.csv.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Base config YAML file (empty = use defaults)")
	rootCmd.PersistentFlags().String("params", "fermi_beta", "Comma separated parameters: fermi_beta, radius, stability_range")
	rootCmd.PersistentFlags().Int("iterations", 500, "Maximum iterations per run")
	rootCmd.PersistentFlags().Int("seeds", 3, "Number of seeds per point")
	rootCmd.PersistentFlags().String("output", "", "Output directory for results")

	rootCmd.AddCommand(
		newGridCmd(),
		newOptimizeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Evaluate every combination of evenly spaced parameter values",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			setup, err := prepare(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			results := runGrid(ctx, setup.evaluator, setup.params, steps)
			return saveResults(setup, results)
		},
	}
	cmd.Flags().Int("steps", 5, "Grid points per parameter")
	return cmd
}

func newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search parameters with CMA-ES to maximize one strategy's final share",
		RunE: func(cmd *cobra.Command, args []string) error {
			maxEvals, _ := cmd.Flags().GetInt("max-evals")
			population, _ := cmd.Flags().GetInt("population")
			target, _ := cmd.Flags().GetString("target")

			setup, err := prepare(cmd)
			if err != nil {
				return err
			}
			def := setup.evaluator.def
			if _, ok := def.Strategy(target); !ok {
				return fmt.Errorf("--target must name a strategy of %s: %v", def.Name, def.Names())
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			results := runOptimize(ctx, setup.evaluator, setup.params, target, maxEvals, population, setup.configPath, setup.outputDir)
			return saveResults(setup, results)
		},
	}
	cmd.Flags().Int("max-evals", 50, "Maximum evaluations")
	cmd.Flags().Int("population", 0, "CMA-ES population size (0 = auto)")
	cmd.Flags().String("target", "", "Strategy whose final share is maximized")
	return cmd
}

// prepare reads the global flags, loads the config and game, and builds
// the evaluator.
func prepare(cmd *cobra.Command) (*sweepSetup, error) {
	configPath, _ := cmd.Flags().GetString("config")
	paramList, _ := cmd.Flags().GetString("params")
	iterations, _ := cmd.Flags().GetInt("iterations")
	seeds, _ := cmd.Flags().GetInt("seeds")
	outputDir, _ := cmd.Flags().GetString("output")

	if outputDir == "" {
		return nil, errors.New("--output is required")
	}
	if seeds < 1 {
		return nil, errors.New("--seeds must be at least 1")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Individual runs log at info; keep only warnings.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg()

	def, err := loadGame(baseCfg)
	if err != nil {
		return nil, fmt.Errorf("loading game: %w", err)
	}
	params, err := NewParamVector(strings.Split(paramList, ","))
	if err != nil {
		return nil, err
	}

	evalSeeds := make([]uint64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint64(i*1000 + 42)
	}
	return &sweepSetup{
		configPath: configPath,
		outputDir:  outputDir,
		params:     params,
		evaluator:  NewEvaluator(params, def, baseCfg, evalSeeds, iterations),
	}, nil
}

func saveResults(setup *sweepSetup, results []PointResult) error {
	csvPath := filepath.Join(setup.outputDir, "sweep.csv")
	if err := writeResults(csvPath, setup.evaluator, results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	fmt.Printf("\nResults saved to: %s\n", csvPath)
	return nil
}

func loadGame(cfg *config.Config) (*games.Definition, error) {
	if cfg.Game.File != "" {
		return games.LoadFile(cfg.Game.File)
	}
	return games.Lookup(cfg.Game.ID)
}

func runGrid(ctx context.Context, evaluator *Evaluator, params *ParamVector, steps int) []PointResult {
	points := params.Grid(steps)
	results := make([]PointResult, 0, len(points))
	startTime := time.Now()

	fmt.Printf("Sweeping %d points, %d seeds each\n", len(points), len(evaluator.seeds))
	for i, x := range points {
		if ctx.Err() != nil {
			fmt.Println("interrupted")
			break
		}
		r, err := evaluator.Evaluate(ctx, x)
		if err != nil {
			log.Printf("point %s: %v", params.Describe(x), err)
			continue
		}
		results = append(results, r)

		elapsed := time.Since(startTime)
		remaining := time.Duration(len(points)-i-1) * (elapsed / time.Duration(i+1))
		fmt.Printf("Point %d/%d: %s diversity=%.3f stable=%.0f%% | elapsed: %s, ETA: %s\n",
			i+1, len(points), params.Describe(x), r.Diversity, 100*r.StableRate,
			formatDuration(elapsed), formatDuration(remaining))
	}
	return results
}

func runOptimize(ctx context.Context, evaluator *Evaluator, params *ParamVector, target string, maxEvals, popSize int, configPath, outputDir string) []PointResult {
	var results []PointResult
	bestShare := -1.0
	var bestParams []float64
	evalCount := 0
	startTime := time.Now()

	// Minimize the negated target share over normalized parameters.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			r, err := evaluator.Evaluate(ctx, raw)
			evalCount++
			if err != nil {
				log.Printf("eval %d: %v", evalCount, err)
				return 0
			}
			results = append(results, r)
			share := r.ShareMean[target]
			if share > bestShare {
				bestShare = share
				bestParams = r.Values
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: %s %s=%.3f (best=%.3f) | elapsed: %s, ETA: %s\n",
				evalCount, maxEvals, params.Describe(r.Values), target, share, bestShare,
				formatDuration(elapsed), formatDuration(remaining))
			return -share
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // Sequential evaluation
	}
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES over %d parameters, population=%d, max_evals=%d, target=%s\n",
		params.Dim(), popSize, maxEvals, target)
	if _, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method); err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil {
		return results
	}

	fmt.Printf("\nBest %s share: %.3f at %s\n", target, bestShare, params.Describe(bestParams))
	bestCfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("failed to reload config: %v", err)
		return results
	}
	params.ApplyToConfig(bestCfg, bestParams)
	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("Best config saved to: %s\n", configOutPath)
	}
	return results
}

// toRows flattens point results into one row per strategy.
func toRows(e *Evaluator, results []PointResult) []SweepRow {
	var rows []SweepRow
	for i, r := range results {
		cfg := e.copyConfig()
		e.params.ApplyToConfig(cfg, r.Values)
		for _, name := range e.def.Names() {
			rows = append(rows, SweepRow{
				Point:      i,
				Params:     e.params.Describe(r.Values),
				FermiBeta:  cfg.Dynamics.FermiBeta,
				Radius:     cfg.Spatial.Radius,
				Strategy:   name,
				ShareMean:  r.ShareMean[name],
				ShareStd:   r.ShareStd[name],
				Diversity:  r.Diversity,
				StableRate: r.StableRate,
				Iterations: r.Iterations,
			})
		}
	}
	return rows
}

func writeResults(path string, e *Evaluator, results []PointResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	rows := toRows(e, results)
	return gocsv.MarshalFile(&rows, f)
}
