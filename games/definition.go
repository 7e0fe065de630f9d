package games

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Definition bundles everything the engine needs to know about a game.
// It is read-only once built and may be shared between simulations.
type Definition struct {
	Name         string
	Payoffs      PayoffTable
	Strategies   []*Strategy
	Colors       map[string]string  // strategy name -> hex color
	Distribution map[string]float64 // strategy name -> target fraction
	Actions      []Action
	Types        []TypeTag // optional agent partition
}

// Strategy returns the strategy with the given name.
func (d *Definition) Strategy(name string) (*Strategy, bool) {
	for _, s := range d.Strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Names returns strategy names in catalog order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.Strategies))
	for i, s := range d.Strategies {
		names[i] = s.Name()
	}
	return names
}

// Color returns the display color for a strategy, black when unknown.
func (d *Definition) Color(name string) color.RGBA {
	c, err := ParseColor(d.Colors[name])
	if err != nil {
		return color.RGBA{A: 255}
	}
	return c
}

// TypesActive reports whether the game partitions agents by type.
func (d *Definition) TypesActive() bool {
	return len(d.Types) > 1
}

// StrategiesFor returns the strategies compatible with agent type t.
// If none are declared for t, every strategy is returned.
func (d *Definition) StrategiesFor(t TypeTag) []*Strategy {
	var out []*Strategy
	for _, s := range d.Strategies {
		if s.CompatibleWith(t) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return d.Strategies
	}
	return out
}

// MissingPayoffs lists the ordered action pairs over the game's alphabet
// that have no payoff entry. Lookups for these pairs score (0, 0); callers
// may surface the list as a configuration warning.
func (d *Definition) MissingPayoffs() []Move {
	var missing []Move
	for _, a := range d.Actions {
		for _, b := range d.Actions {
			if !d.Payoffs.Has(a, b) {
				missing = append(missing, Move{Own: a, Other: b})
			}
		}
	}
	return missing
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", hex)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
