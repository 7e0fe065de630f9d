package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/dynamics"
	"github.com/pthm-cable/evogrid/games"
	"github.com/pthm-cable/evogrid/systems"
)

// Options configures a Simulation.
type Options struct {
	Size     int
	Radius   float64 // below 1 selects random pairing
	Topology systems.Topology

	// Distribution maps strategy names to target fractions. Nil samples
	// uniformly among each slot's compatible strategies.
	Distribution map[string]float64
	// Types overrides the game's agent types when non-nil.
	Types []games.TypeTag

	Dynamic            dynamics.Dynamic
	LearningPeers      dynamics.PeerFilter
	InteractionMode    systems.InteractionMode
	Pairing            systems.Pairing
	MaxPartnerAttempts int

	Seed        uint64 // 0 picks a time based seed
	Workers     int    // 0 uses GOMAXPROCS
	ResetScores bool   // zero scores (keeping PrevScore) before each step
}

// DefaultOptions returns a spatial, untyped replicator setup for an n×n grid.
func DefaultOptions(n int) Options {
	return Options{
		Size:               n,
		Radius:             1,
		Topology:           systems.Toroidal,
		Dynamic:            dynamics.Replicator{},
		LearningPeers:      dynamics.SameType,
		InteractionMode:    systems.Symmetric,
		Pairing:            systems.PairCrossType,
		MaxPartnerAttempts: systems.DefaultMaxAttempts,
	}
}

// OptionsFromConfig translates the loaded configuration into Options for
// def. The game's own distribution is used when configured and no explicit
// distribution is set.
func OptionsFromConfig(cfg *config.Config, def *games.Definition) (Options, error) {
	var errs []error

	topology, err := systems.ParseTopology(cfg.Spatial.Topology)
	errs = append(errs, err)
	dyn, err := dynamics.New(cfg.Dynamics.Kind, dynamics.Params{Beta: cfg.Dynamics.FermiBeta})
	errs = append(errs, err)
	peers, err := dynamics.ParsePeerFilter(cfg.Dynamics.LearningPeers)
	errs = append(errs, err)
	mode, err := systems.ParseInteractionMode(cfg.Interaction.Mode)
	errs = append(errs, err)
	pairing, err := systems.ParsePairing(cfg.Interaction.Pairing)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return Options{}, fmt.Errorf("options from config: %w", err)
	}

	opts := Options{
		Size:               cfg.Spatial.Size,
		Radius:             cfg.Spatial.Radius,
		Topology:           topology,
		Dynamic:            dyn,
		LearningPeers:      peers,
		InteractionMode:    mode,
		Pairing:            pairing,
		MaxPartnerAttempts: cfg.Interaction.MaxPartnerAttempts,
		Seed:               cfg.Simulation.Seed,
		Workers:            cfg.Derived.Workers,
		ResetScores:        cfg.Simulation.ResetScores,
	}

	switch {
	case len(cfg.Spatial.Distribution) > 0:
		opts.Distribution = cfg.Spatial.Distribution
	case cfg.Spatial.UseGameDistribution:
		opts.Distribution = def.Distribution
	}

	if cfg.Derived.TypesOverridden {
		opts.Types = make([]games.TypeTag, len(cfg.Game.Types))
		for i, t := range cfg.Game.Types {
			opts.Types[i] = games.TypeTag(t)
		}
	}
	return opts, nil
}

func (o Options) types(def *games.Definition) []games.TypeTag {
	if o.Types != nil {
		return o.Types
	}
	return def.Types
}
