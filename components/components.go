// Package components defines the ECS components stored on grid slots.
package components

import (
	"math/rand/v2"

	"github.com/pthm-cable/evogrid/games"
)

// Position is the fixed (row, col) coordinate of a grid slot.
type Position struct {
	Row, Col int
}

// Agent is the occupant of one grid slot for one generation.
type Agent struct {
	Strategy  *games.Strategy
	Score     int
	PrevScore int
	History   games.History
	Type      games.TypeTag
}

// StrategyName returns the name of the agent's strategy.
func (a *Agent) StrategyName() string {
	return a.Strategy.Name()
}

// Act asks the agent's strategy for its next action.
func (a *Agent) Act(rng *rand.Rand) games.Action {
	return a.Strategy.Act(a.History, a.Type, rng)
}

// Record appends a move to the history and credits its payoff.
func (a *Agent) Record(m games.Move, payoff int) {
	a.History = append(a.History, m)
	a.Score += payoff
}

// ResetScore moves the current score into PrevScore and zeroes it.
func (a *Agent) ResetScore() {
	a.PrevScore = a.Score
	a.Score = 0
}
