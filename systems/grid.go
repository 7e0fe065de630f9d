// Package systems holds the spatial grid and the per-slot systems that run
// over it: population, neighbor resolution, partner choice and interaction.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
)

// Grid is an N×N lattice of agent slots stored row-major. Every slot is an
// ECS entity carrying a Position and an Agent; all N² entities are created
// up front so a grid can be allocated before the step that fills it.
type Grid struct {
	n     int
	world *ecs.World

	mapper   *ecs.Map2[components.Position, components.Agent]
	posMap   *ecs.Map1[components.Position]
	agentMap *ecs.Map1[components.Agent]
	filter   *ecs.Filter2[components.Position, components.Agent]

	slots []ecs.Entity
}

// NewGrid allocates an n×n grid of empty agents.
func NewGrid(n int) *Grid {
	if n < 1 {
		n = 1
	}
	world := ecs.NewWorld()
	g := &Grid{
		n:        n,
		world:    world,
		mapper:   ecs.NewMap2[components.Position, components.Agent](world),
		posMap:   ecs.NewMap1[components.Position](world),
		agentMap: ecs.NewMap1[components.Agent](world),
		filter:   ecs.NewFilter2[components.Position, components.Agent](world),
		slots:    make([]ecs.Entity, n*n),
	}
	for i := range g.slots {
		pos := components.Position{Row: i / n, Col: i % n}
		agent := components.Agent{}
		g.slots[i] = g.mapper.NewEntity(&pos, &agent)
	}
	return g
}

// Size returns the side length N.
func (g *Grid) Size() int { return g.n }

// Len returns the population N².
func (g *Grid) Len() int { return len(g.slots) }

// Index converts (row, col) to a row-major slot index. Coordinates must be
// in range.
func (g *Grid) Index(row, col int) int { return row*g.n + col }

// Coords converts a slot index back to (row, col).
func (g *Grid) Coords(i int) (row, col int) { return i / g.n, i % g.n }

// Wrap maps any (row, col) onto the torus.
func (g *Grid) Wrap(row, col int) (int, int) {
	return mod(row, g.n), mod(col, g.n)
}

// Contains reports whether (row, col) lies inside the grid.
func (g *Grid) Contains(row, col int) bool {
	return row >= 0 && row < g.n && col >= 0 && col < g.n
}

// AgentAt returns the agent in slot i. The pointer stays valid for the
// lifetime of the grid.
func (g *Grid) AgentAt(i int) *components.Agent {
	return g.agentMap.Get(g.slots[i])
}

// At returns the agent at (row, col).
func (g *Grid) At(row, col int) *components.Agent {
	return g.AgentAt(g.Index(row, col))
}

// PositionOf returns the fixed position of slot i.
func (g *Grid) PositionOf(i int) components.Position {
	return *g.posMap.Get(g.slots[i])
}

// StrategyName returns the strategy name at (row, col).
func (g *Grid) StrategyName(row, col int) string {
	return g.At(row, col).StrategyName()
}

// Score returns the accumulated score at (row, col).
func (g *Grid) Score(row, col int) int {
	return g.At(row, col).Score
}

// Type returns the type tag at (row, col).
func (g *Grid) Type(row, col int) games.TypeTag {
	return g.At(row, col).Type
}

// Counts tabulates agents per strategy name.
func (g *Grid) Counts() map[string]int {
	counts := make(map[string]int)
	query := g.filter.Query()
	for query.Next() {
		_, agent := query.Get()
		counts[agent.StrategyName()]++
	}
	return counts
}

// Scores returns every slot's score in row-major order.
func (g *Grid) Scores() []int {
	out := make([]int, len(g.slots))
	for i := range g.slots {
		out[i] = g.AgentAt(i).Score
	}
	return out
}

// ResetScores moves every agent's score into PrevScore.
func (g *Grid) ResetScores() {
	query := g.filter.Query()
	for query.Next() {
		_, agent := query.Get()
		agent.ResetScore()
	}
}

// Each calls fn for every slot in row-major order.
func (g *Grid) Each(fn func(i int, a *components.Agent)) {
	for i := range g.slots {
		fn(i, g.AgentAt(i))
	}
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
