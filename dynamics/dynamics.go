// Package dynamics implements the learning rules that pick each agent's
// strategy for the next generation from its own and its peers' scores.
package dynamics

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
)

// ErrUnknownDynamic is returned by New for unrecognized kinds.
var ErrUnknownDynamic = errors.New("unknown dynamic")

// DefaultBeta is the Fermi steepness used when none is configured.
const DefaultBeta = 0.1

// Dynamic chooses an agent's next strategy. peers is the already filtered
// candidate set; an empty set always yields the agent's current strategy.
// Implementations must not mutate the agent or its peers.
type Dynamic interface {
	Name() string
	Next(agent *components.Agent, peers []*components.Agent, rng *rand.Rand) *games.Strategy
}

// Params configures the dynamics that take parameters.
type Params struct {
	Beta float64 // Fermi steepness
}

// Kinds lists the recognized dynamic names.
var Kinds = []string{"replicator", "fermi", "moran", "random_copy", "aspiration"}

// New builds a dynamic by name.
func New(kind string, p Params) (Dynamic, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "replicator":
		return Replicator{}, nil
	case "fermi":
		beta := p.Beta
		if beta == 0 {
			beta = DefaultBeta
		}
		return Fermi{Beta: beta}, nil
	case "moran":
		return Moran{}, nil
	case "random_copy", "random", "randomcopy":
		return RandomCopy{}, nil
	case "aspiration":
		return Aspiration{}, nil
	}
	return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownDynamic, kind, Kinds)
}

// Replicator imitates the best-scoring peer when it strictly beats the
// agent. Ties for the maximum go to the first peer found.
type Replicator struct{}

func (Replicator) Name() string { return "replicator" }

func (Replicator) Next(agent *components.Agent, peers []*components.Agent, _ *rand.Rand) *games.Strategy {
	if len(peers) == 0 {
		return agent.Strategy
	}
	best := peers[0]
	for _, p := range peers[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	if best.Score > agent.Score {
		return best.Strategy
	}
	return agent.Strategy
}

// Fermi compares against one random peer and adopts its strategy if it
// scored more, or with probability exp(Beta×delta) otherwise.
type Fermi struct {
	Beta float64
}

func (Fermi) Name() string { return "fermi" }

func (f Fermi) Next(agent *components.Agent, peers []*components.Agent, rng *rand.Rand) *games.Strategy {
	if len(peers) == 0 {
		return agent.Strategy
	}
	p := peers[rng.IntN(len(peers))]
	delta := float64(p.Score - agent.Score)
	if delta > 0 || rng.Float64() < math.Exp(f.Beta*delta) {
		return p.Strategy
	}
	return agent.Strategy
}

// Moran samples from the agent and its peers in proportion to
// max(score, 0). A zero total falls back to a uniform draw.
type Moran struct{}

func (Moran) Name() string { return "moran" }

func (Moran) Next(agent *components.Agent, peers []*components.Agent, rng *rand.Rand) *games.Strategy {
	if len(peers) == 0 {
		return agent.Strategy
	}
	pool := make([]*components.Agent, 0, len(peers)+1)
	pool = append(pool, agent)
	pool = append(pool, peers...)

	weights := make([]float64, len(pool))
	total := 0.0
	for i, c := range pool {
		weights[i] = math.Max(float64(c.Score), 0)
		total += weights[i]
	}
	if total == 0 {
		return pool[rng.IntN(len(pool))].Strategy
	}

	w := sampleuv.NewWeighted(weights, rng)
	idx, ok := w.Take()
	if !ok {
		return pool[rng.IntN(len(pool))].Strategy
	}
	return pool[idx].Strategy
}

// RandomCopy adopts a uniformly random peer's strategy.
type RandomCopy struct{}

func (RandomCopy) Name() string { return "random_copy" }

func (RandomCopy) Next(agent *components.Agent, peers []*components.Agent, rng *rand.Rand) *games.Strategy {
	if len(peers) == 0 {
		return agent.Strategy
	}
	return peers[rng.IntN(len(peers))].Strategy
}

// Aspiration copies a random peer only when the agent scored below the
// peers' mean.
type Aspiration struct{}

func (Aspiration) Name() string { return "aspiration" }

func (Aspiration) Next(agent *components.Agent, peers []*components.Agent, rng *rand.Rand) *games.Strategy {
	if len(peers) == 0 {
		return agent.Strategy
	}
	scores := make([]float64, len(peers))
	for i, p := range peers {
		scores[i] = float64(p.Score)
	}
	if float64(agent.Score) < stat.Mean(scores, nil) {
		return peers[rng.IntN(len(peers))].Strategy
	}
	return agent.Strategy
}
