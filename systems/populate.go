package systems

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
)

// TypeFor returns the type of slot (row, col). Types alternate along rows
// and columns so every slot's orthogonal neighbors carry a different type
// when two types are declared. Fewer than two types means untyped.
func TypeFor(row, col int, types []games.TypeTag) games.TypeTag {
	if len(types) < 2 {
		return games.NoType
	}
	return types[(row+col)%len(types)]
}

// Populate builds the initial grid for def.
//
// With a distribution, each strategy gets floor(fraction×N²) copies, the
// rounding shortfall is filled by uniform draws, and the pool is shuffled
// and laid out row-major. Fractions are not required to sum to one; any
// excess beyond N² is dropped after the shuffle. When types are active a
// slot prefers the next pool entry compatible with its type, which keeps
// the realized counts unchanged.
//
// Without a distribution every slot samples uniformly among the strategies
// compatible with its type.
func Populate(def *games.Definition, n int, distribution map[string]float64, types []games.TypeTag, rng *rand.Rand) (*Grid, error) {
	if len(def.Strategies) == 0 {
		return nil, fmt.Errorf("populate: game %q has no strategies", def.Name)
	}
	g := NewGrid(n)
	total := g.Len()

	slotType := make([]games.TypeTag, total)
	for i := range slotType {
		r, c := g.Coords(i)
		slotType[i] = TypeFor(r, c, types)
	}

	var assign []*games.Strategy
	if len(distribution) > 0 {
		pool, err := distributionPool(def, distribution, total, rng)
		if err != nil {
			return nil, err
		}
		if len(types) >= 2 {
			placeByType(pool, slotType)
		}
		assign = pool
	} else {
		assign = make([]*games.Strategy, total)
		for i := range assign {
			choices := def.StrategiesFor(slotType[i])
			assign[i] = choices[rng.IntN(len(choices))]
		}
	}

	for i := 0; i < total; i++ {
		*g.AgentAt(i) = components.Agent{Strategy: assign[i], Type: slotType[i]}
	}
	return g, nil
}

func distributionPool(def *games.Definition, distribution map[string]float64, total int, rng *rand.Rand) ([]*games.Strategy, error) {
	for name := range distribution {
		if _, ok := def.Strategy(name); !ok {
			return nil, fmt.Errorf("populate: distribution names unknown strategy %q", name)
		}
	}

	pool := make([]*games.Strategy, 0, total)
	// Catalog order keeps the pool independent of map iteration.
	for _, s := range def.Strategies {
		frac := distribution[s.Name()]
		if frac <= 0 {
			continue
		}
		copies := int(math.Floor(frac * float64(total)))
		for k := 0; k < copies; k++ {
			pool = append(pool, s)
		}
	}
	for len(pool) < total {
		pool = append(pool, def.Strategies[rng.IntN(len(def.Strategies))])
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:total], nil
}

func placeByType(pool []*games.Strategy, slotType []games.TypeTag) {
	for i := range slotType {
		if pool[i].CompatibleWith(slotType[i]) {
			continue
		}
		for j := i + 1; j < len(pool); j++ {
			if pool[j].CompatibleWith(slotType[i]) {
				pool[i], pool[j] = pool[j], pool[i]
				break
			}
		}
	}
}
