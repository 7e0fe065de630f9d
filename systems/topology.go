package systems

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pthm-cable/evogrid/games"
)

var (
	// ErrNoEligiblePartner is returned when no slot satisfies the pairing
	// constraint within the attempt budget.
	ErrNoEligiblePartner = errors.New("no eligible partner")
	// ErrUnknownTopology is returned by ParseTopology.
	ErrUnknownTopology = errors.New("unknown topology")
)

// Topology selects how neighborhoods treat the grid edge.
type Topology string

const (
	// Toroidal wraps rows and columns so there are no edges.
	Toroidal Topology = "toroidal"
	// Bounded clips neighborhoods at the grid edge.
	Bounded Topology = "bounded"
)

// DefaultMaxAttempts bounds rejection sampling in random pairing mode.
const DefaultMaxAttempts = 1000

// ParseTopology accepts "toroidal", "wraparound" or "bounded".
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toroidal", "wraparound", "wrap", "":
		return Toroidal, nil
	case "bounded":
		return Bounded, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTopology, s)
}

// Resolver computes each slot's candidate interaction set.
type Resolver struct {
	Topology    Topology
	Radius      int  // Chebyshev radius; ignored when Random is set
	Random      bool // non-spatial random pairing
	MaxAttempts int
}

// NewResolver builds a resolver. A radius below one switches to random
// pairing over the whole grid.
func NewResolver(topology Topology, radius float64, maxAttempts int) *Resolver {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	r := &Resolver{Topology: topology, MaxAttempts: maxAttempts}
	if radius < 1 {
		r.Random = true
	} else {
		r.Radius = int(radius)
	}
	return r
}

// Neighbors appends the candidate slots of slot i to dst and returns it.
// The result never contains i. In random mode rng drives the draws and the
// call fails with ErrNoEligiblePartner when the attempt budget runs out.
func (r *Resolver) Neighbors(dst []int, g *Grid, i int, rng *rand.Rand) ([]int, error) {
	if r.Random {
		return r.randomNeighbors(dst, g, i, rng)
	}
	return r.spatialNeighbors(dst, g, i), nil
}

// spatialNeighbors walks the (2R+1)² block around i. On a toroidal grid
// smaller than the block (N < 2R+1), wrapped offsets may repeat a slot;
// repeats are kept, but offsets that wrap back onto i itself are dropped,
// so such slots have fewer than (2R+1)²-1 candidates.
func (r *Resolver) spatialNeighbors(dst []int, g *Grid, i int) []int {
	row, col := g.Coords(i)
	for dr := -r.Radius; dr <= r.Radius; dr++ {
		for dc := -r.Radius; dc <= r.Radius; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := row+dr, col+dc
			if r.Topology == Bounded {
				if !g.Contains(nr, nc) {
					continue
				}
			} else {
				nr, nc = g.Wrap(nr, nc)
			}
			j := g.Index(nr, nc)
			if j == i {
				continue
			}
			dst = append(dst, j)
		}
	}
	return dst
}

// randomNeighbors draws partners from the whole grid. Untyped agents get a
// single uniform draw other than themselves. Typed agents get a same-type
// pick followed by a cross-type pick, each found by rejection sampling
// within MaxAttempts.
func (r *Resolver) randomNeighbors(dst []int, g *Grid, i int, rng *rand.Rand) ([]int, error) {
	total := g.Len()
	if total < 2 {
		return dst, fmt.Errorf("slot %d: %w: grid has a single slot", i, ErrNoEligiblePartner)
	}
	own := g.AgentAt(i).Type

	draw := func() int {
		j := rng.IntN(total - 1)
		if j >= i {
			j++
		}
		return j
	}

	if own == games.NoType {
		return append(dst, draw()), nil
	}

	same, ok := r.sample(draw, func(j int) bool { return g.AgentAt(j).Type == own })
	if !ok {
		return dst, fmt.Errorf("slot %d (type %q): %w: no same-type pick after %d attempts", i, own, ErrNoEligiblePartner, r.MaxAttempts)
	}
	cross, ok := r.sample(draw, func(j int) bool { return g.AgentAt(j).Type != own })
	if !ok {
		return dst, fmt.Errorf("slot %d (type %q): %w: no cross-type pick after %d attempts", i, own, ErrNoEligiblePartner, r.MaxAttempts)
	}
	return append(dst, same, cross), nil
}

func (r *Resolver) sample(draw func() int, accept func(int) bool) (int, bool) {
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		if j := draw(); accept(j) {
			return j, true
		}
	}
	return 0, false
}
