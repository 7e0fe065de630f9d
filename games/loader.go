package games

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of a game definition.
type File struct {
	Name       string         `yaml:"name"`
	Actions    []Action       `yaml:"actions"`
	Types      []TypeTag      `yaml:"types"`
	Payoffs    []PayoffEntry  `yaml:"payoffs"`
	Strategies []StrategyFile `yaml:"strategies"`
}

// PayoffEntry is one row of the payoff table.
type PayoffEntry struct {
	Own   Action `yaml:"own"`
	Other Action `yaml:"other"`
	Row   int    `yaml:"row"`
	Col   int    `yaml:"col"`
}

// StrategyFile declares a strategy by behavior name.
type StrategyFile struct {
	Name     string    `yaml:"name"`
	Behavior string    `yaml:"behavior"`
	Color    string    `yaml:"color"`
	Share    float64   `yaml:"share"`
	Types    []TypeTag `yaml:"types"`
}

// LoadFile reads a game definition from a YAML file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading game file: %w", err)
	}
	return Parse(data)
}

// Parse builds a definition from YAML bytes.
func Parse(data []byte) (*Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing game file: %w", err)
	}
	return f.Build()
}

// Build converts the file form into a Definition.
func (f File) Build() (*Definition, error) {
	if len(f.Actions) == 0 {
		return nil, errors.New("game file: no actions declared")
	}
	if len(f.Strategies) == 0 {
		return nil, errors.New("game file: no strategies declared")
	}

	d := &Definition{
		Name:         f.Name,
		Payoffs:      make(PayoffTable, len(f.Payoffs)),
		Colors:       make(map[string]string, len(f.Strategies)),
		Distribution: make(map[string]float64, len(f.Strategies)),
		Actions:      f.Actions,
		Types:        f.Types,
	}
	for _, p := range f.Payoffs {
		d.Payoffs[Move{Own: p.Own, Other: p.Other}] = Payoff{Row: p.Row, Col: p.Col}
	}

	seen := make(map[string]bool, len(f.Strategies))
	for _, sf := range f.Strategies {
		if sf.Name == "" {
			return nil, errors.New("game file: strategy without a name")
		}
		if seen[sf.Name] {
			return nil, fmt.Errorf("game file: duplicate strategy %q", sf.Name)
		}
		seen[sf.Name] = true

		decide, err := Behavior(sf.Behavior, f.Actions)
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", sf.Name, err)
		}
		d.Strategies = append(d.Strategies, NewStrategy(sf.Name, decide, sf.Types...))
		if sf.Color != "" {
			d.Colors[sf.Name] = sf.Color
		}
		if sf.Share > 0 {
			d.Distribution[sf.Name] = sf.Share
		}
	}
	return d, nil
}
