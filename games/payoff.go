// Package games defines the immutable game data consumed by the simulation:
// payoff tables, action alphabets, strategies and the built-in catalog.
package games

import "fmt"

// Action is a single move symbol (e.g. "C" or "D").
type Action string

// Move is one interaction from an agent's own perspective.
// It doubles as the ordered key of a payoff table.
type Move struct {
	Own   Action `yaml:"own" json:"own"`
	Other Action `yaml:"other" json:"other"`
}

// History is the append-only sequence of moves an agent has played.
type History []Move

// Last returns the most recent move and whether one exists.
func (h History) Last() (Move, bool) {
	if len(h) == 0 {
		return Move{}, false
	}
	return h[len(h)-1], true
}

// CountOther returns how many times the opponent played a.
func (h History) CountOther(a Action) int {
	n := 0
	for _, m := range h {
		if m.Other == a {
			n++
		}
	}
	return n
}

// Payoff is the pair of scores awarded for an ordered action pair.
// Row goes to the agent whose action is Move.Own.
type Payoff struct {
	Row int `yaml:"row" json:"row"`
	Col int `yaml:"col" json:"col"`
}

// PayoffTable maps ordered action pairs to payoffs.
type PayoffTable map[Move]Payoff

// Lookup returns the payoff for (own, other). Missing entries resolve to
// the neutral payoff (0, 0) rather than an error.
func (t PayoffTable) Lookup(own, other Action) Payoff {
	return t[Move{Own: own, Other: other}]
}

// Has reports whether the table defines (own, other).
func (t PayoffTable) Has(own, other Action) bool {
	_, ok := t[Move{Own: own, Other: other}]
	return ok
}

// Symmetric builds a table for a symmetric two-action game from the
// conventional R, S, T, P values (reward, sucker, temptation, punishment).
func Symmetric(cooperate, defect Action, r, s, t, p int) PayoffTable {
	return PayoffTable{
		{cooperate, cooperate}: {r, r},
		{cooperate, defect}:    {s, t},
		{defect, cooperate}:    {t, s},
		{defect, defect}:       {p, p},
	}
}

func (m Move) String() string {
	return fmt.Sprintf("(%s,%s)", m.Own, m.Other)
}
