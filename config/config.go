// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Game        GameConfig        `yaml:"game"`
	Spatial     SpatialConfig     `yaml:"spatial"`
	Dynamics    DynamicsConfig    `yaml:"dynamics"`
	Interaction InteractionConfig `yaml:"interaction"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Screen      ScreenConfig      `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GameConfig selects the game being played.
type GameConfig struct {
	ID    string   `yaml:"id"`    // catalog id (pd, sh, hd, rps, bos)
	File  string   `yaml:"file"`  // YAML game definition; overrides ID when set
	Types []string `yaml:"types"` // overrides the game's agent types when non-empty
}

// SpatialConfig describes the grid.
type SpatialConfig struct {
	Size                int                `yaml:"size"`
	Radius              float64            `yaml:"radius"`   // <1 switches to random pairing
	Topology            string             `yaml:"topology"` // toroidal | bounded
	Mobility            bool               `yaml:"mobility"` // reserved
	Distribution        map[string]float64 `yaml:"distribution"`
	UseGameDistribution bool               `yaml:"use_game_distribution"`
}

// DynamicsConfig selects the learning rule.
type DynamicsConfig struct {
	Kind          string  `yaml:"kind"`
	FermiBeta     float64 `yaml:"fermi_beta"`
	LearningPeers string  `yaml:"learning_peers"` // same_type | cross_type | any
}

// InteractionConfig controls how partners are chosen and credited.
type InteractionConfig struct {
	Mode               string `yaml:"mode"`    // symmetric | initiator
	Pairing            string `yaml:"pairing"` // cross_type | any
	MaxPartnerAttempts int    `yaml:"max_partner_attempts"`
}

// SimulationConfig holds run-loop parameters.
type SimulationConfig struct {
	Seed          uint64 `yaml:"seed"` // 0 = time based
	MaxIterations int    `yaml:"max_iterations"`
	Workers       int    `yaml:"workers"` // 0 = GOMAXPROCS
	ResetScores   bool   `yaml:"reset_scores"`
	StopOnStable  bool   `yaml:"stop_on_stable"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow     int `yaml:"stats_window"`     // iterations per window
	StabilityWindow int `yaml:"stability_window"` // iterations of census history
	StabilityRange  int `yaml:"stability_range"`  // max-min per strategy to count as stable
	PerfWindow      int `yaml:"perf_window"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width         int `yaml:"width"`
	Height        int `yaml:"height"`
	TargetFPS     int `yaml:"target_fps"`
	StepsPerFrame int `yaml:"steps_per_frame"`
	PanelWidth    int `yaml:"panel_width"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Workers         int  // effective worker count
	RandomPairs     bool // radius < 1
	CellSize        int  // pixels per grid cell
	GridPixels      int  // side of the rendered grid
	TypesOverridden bool // game types replaced by Game.Types
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

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// Refresh recomputes derived values after fields were changed in code,
// e.g. by command-line overrides.
func (c *Config) Refresh() {
	c.computeDerived()
}

func (c *Config) computeDerived() {
	c.Derived.Workers = c.Simulation.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}
	c.Derived.RandomPairs = c.Spatial.Radius < 1

	side := min(c.Screen.Width-c.Screen.PanelWidth, c.Screen.Height)
	c.Derived.CellSize = 1
	if c.Spatial.Size > 0 && side/c.Spatial.Size > 1 {
		c.Derived.CellSize = side / c.Spatial.Size
	}
	c.Derived.GridPixels = c.Derived.CellSize * max(c.Spatial.Size, 1)
	c.Derived.TypesOverridden = len(c.Game.Types) > 0
}

// Validate reports values the simulation cannot run with. Distribution
// fractions are deliberately not checked.
func (c *Config) Validate() error {
	var errs []error
	if c.Spatial.Size < 1 {
		errs = append(errs, fmt.Errorf("spatial.size must be >= 1, got %d", c.Spatial.Size))
	}
	if !oneOf(c.Spatial.Topology, "toroidal", "wraparound", "wrap", "bounded") {
		errs = append(errs, fmt.Errorf("spatial.topology: unknown value %q", c.Spatial.Topology))
	}
	if !oneOf(c.Dynamics.Kind, "replicator", "fermi", "moran", "random_copy", "random", "randomcopy", "aspiration") {
		errs = append(errs, fmt.Errorf("dynamics.kind: unknown value %q", c.Dynamics.Kind))
	}
	if !oneOf(c.Dynamics.LearningPeers, "same_type", "cross_type", "any") {
		errs = append(errs, fmt.Errorf("dynamics.learning_peers: unknown value %q", c.Dynamics.LearningPeers))
	}
	if !oneOf(c.Interaction.Mode, "symmetric", "initiator", "asymmetric") {
		errs = append(errs, fmt.Errorf("interaction.mode: unknown value %q", c.Interaction.Mode))
	}
	if !oneOf(c.Interaction.Pairing, "cross_type", "any") {
		errs = append(errs, fmt.Errorf("interaction.pairing: unknown value %q", c.Interaction.Pairing))
	}
	if c.Simulation.MaxIterations < 0 {
		errs = append(errs, errors.New("simulation.max_iterations must be >= 0"))
	}
	if c.Telemetry.StabilityWindow < 1 {
		errs = append(errs, errors.New("telemetry.stability_window must be >= 1"))
	}
	return errors.Join(errs...)
}

func oneOf(v string, options ...string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
