package games

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownGame is returned by Lookup for ids that are not registered.
var ErrUnknownGame = errors.New("unknown game")

// Factory builds a game definition.
type Factory func() *Definition

var catalog = map[string]Factory{}

// Register adds a game factory under id. Later registrations replace
// earlier ones.
func Register(id string, f Factory) {
	if id == "" || f == nil {
		return
	}
	catalog[id] = f
}

// Lookup builds the registered game with the given id.
func Lookup(id string) (*Definition, error) {
	f, ok := catalog[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownGame, id, IDs())
	}
	return f(), nil
}

// IDs returns registered game ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Agent types used by the battle of the sexes.
const (
	Female TypeTag = "female"
	Male   TypeTag = "male"
)

// PrisonersDilemma is the classic cooperation game.
func PrisonersDilemma() *Definition {
	return &Definition{
		Name:    "Prisoner's Dilemma",
		Payoffs: Symmetric("C", "D", 3, 0, 5, 1),
		Strategies: []*Strategy{
			NewStrategy("Cooperate", Always("C")),
			NewStrategy("Defect", Always("D")),
			NewStrategy("TitForTat", TitForTat("C")),
		},
		Colors: map[string]string{
			"Cooperate": "#2ecc71",
			"Defect":    "#e74c3c",
			"TitForTat": "#3498db",
		},
		Distribution: map[string]float64{"Cooperate": 0.5, "Defect": 0.25, "TitForTat": 0.25},
		Actions:      []Action{"C", "D"},
	}
}

// StagHunt is the coordination game between a risky and a safe hunt.
func StagHunt() *Definition {
	return &Definition{
		Name:    "Stag Hunt",
		Payoffs: Symmetric("S", "H", 5, 0, 3, 3),
		Strategies: []*Strategy{
			NewStrategy("Always Stag", Always("S")),
			NewStrategy("Always Hare", Always("H")),
			NewStrategy("Cautious", Cautious("S", "H")),
		},
		Colors: map[string]string{
			"Always Stag": "#1abc9c",
			"Always Hare": "#e67e22",
			"Cautious":    "#9b59b6",
		},
		Distribution: map[string]float64{"Always Stag": 0.4, "Always Hare": 0.4, "Cautious": 0.2},
		Actions:      []Action{"S", "H"},
	}
}

// HawkDove is the anti-coordination game over a contested resource.
func HawkDove() *Definition {
	actions := []Action{"H", "D"}
	return &Definition{
		Name:    "Hawk-Dove",
		Payoffs: Symmetric("D", "H", 2, 0, 4, 0),
		Strategies: []*Strategy{
			NewStrategy("Always Hawk", Always("H")),
			NewStrategy("Always Dove", Always("D")),
			NewStrategy("Random", Uniform(actions)),
		},
		Colors: map[string]string{
			"Always Hawk": "#f1c40f",
			"Always Dove": "#9b59b6",
			"Random":      "#0e44ad",
		},
		Distribution: map[string]float64{"Always Hawk": 0.4, "Always Dove": 0.4, "Random": 0.2},
		Actions:      actions,
	}
}

// RockPaperScissors is the cyclic zero-sum game.
func RockPaperScissors() *Definition {
	return &Definition{
		Name: "Rock-Paper-Scissors",
		Payoffs: PayoffTable{
			{"R", "R"}: {0, 0},
			{"R", "P"}: {-1, 1},
			{"R", "S"}: {1, -1},
			{"P", "R"}: {1, -1},
			{"P", "P"}: {0, 0},
			{"P", "S"}: {-1, 1},
			{"S", "R"}: {-1, 1},
			{"S", "P"}: {1, -1},
			{"S", "S"}: {0, 0},
		},
		Strategies: []*Strategy{
			NewStrategy("Rock", Always("R")),
			NewStrategy("Paper", Always("P")),
			NewStrategy("Scissors", Always("S")),
		},
		Colors: map[string]string{
			"Rock":     "#7f8c8d",
			"Paper":    "#ecf0f1",
			"Scissors": "#c0392b",
		},
		Distribution: map[string]float64{"Rock": 1.0 / 3, "Paper": 1.0 / 3, "Scissors": 1.0 / 3},
		Actions:      []Action{"R", "P", "S"},
	}
}

// BattleOfTheSexes is a two-type courtship game. Females choose coy (C) or
// fast (F); males choose faithful (H) or philanderer (U). Only cross-type
// pairs produce non-neutral payoffs.
func BattleOfTheSexes() *Definition {
	return &Definition{
		Name: "Battle of the Sexes",
		Payoffs: PayoffTable{
			{"C", "H"}: {2, 2},
			{"C", "U"}: {0, 0},
			{"F", "H"}: {5, 5},
			{"F", "U"}: {15, -5},
			{"H", "C"}: {2, 2},
			{"U", "C"}: {0, 0},
			{"H", "F"}: {5, 5},
			{"U", "F"}: {-5, 15},
		},
		Strategies: []*Strategy{
			NewStrategy("Coy", Always("C"), Female),
			NewStrategy("Fast", Always("F"), Female),
			NewStrategy("Faithful", Always("H"), Male),
			NewStrategy("Philanderer", Always("U"), Male),
		},
		Colors: map[string]string{
			"Coy":         "#8e44ad",
			"Fast":        "#e84393",
			"Faithful":    "#2980b9",
			"Philanderer": "#d35400",
		},
		Distribution: map[string]float64{"Coy": 0.25, "Fast": 0.25, "Faithful": 0.25, "Philanderer": 0.25},
		Actions:      []Action{"C", "F", "H", "U"},
		Types:        []TypeTag{Female, Male},
	}
}

func init() {
	Register("pd", PrisonersDilemma)
	Register("sh", StagHunt)
	Register("hd", HawkDove)
	Register("rps", RockPaperScissors)
	Register("bos", BattleOfTheSexes)
}
