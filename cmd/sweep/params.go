package main

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/evogrid/config"
)

// ParamSpec defines a single sweepable parameter.
type ParamSpec struct {
	Name    string  // Flag name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
	apply   func(cfg *config.Config, v float64)
}

var paramSpecs = []ParamSpec{
	{Name: "fermi_beta", Path: "dynamics.fermi_beta", Min: 0.01, Max: 2.0, Default: 0.1,
		apply: func(cfg *config.Config, v float64) { cfg.Dynamics.FermiBeta = v }},
	{Name: "radius", Path: "spatial.radius", Min: 0, Max: 4, Default: 1,
		apply: func(cfg *config.Config, v float64) { cfg.Spatial.Radius = v }},
	{Name: "stability_range", Path: "telemetry.stability_range", Min: 0, Max: 100, Default: 30,
		apply: func(cfg *config.Config, v float64) { cfg.Telemetry.StabilityRange = int(v + 0.5) }},
}

// ParamVector holds the parameters selected for a sweep.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector selects parameters by name.
func NewParamVector(names []string) (*ParamVector, error) {
	pv := &ParamVector{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		spec, ok := lookupParam(name)
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		pv.Specs = append(pv.Specs, spec)
	}
	if len(pv.Specs) == 0 {
		return nil, errors.New("no parameters selected")
	}
	return pv, nil
}

func lookupParam(name string) (ParamSpec, bool) {
	for _, s := range paramSpecs {
		if s.Name == name {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].apply(cfg, v)
	}
	cfg.Refresh()
}

// Grid returns every combination of steps evenly spaced values per
// parameter, endpoints included. The last parameter varies fastest.
func (pv *ParamVector) Grid(steps int) [][]float64 {
	steps = max(steps, 2)
	axes := make([][]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		axes[i] = floats.Span(make([]float64, steps), spec.Min, spec.Max)
	}

	points := [][]float64{{}}
	for _, axis := range axes {
		next := make([][]float64, 0, len(points)*len(axis))
		for _, p := range points {
			for _, v := range axis {
				point := append(append(make([]float64, 0, len(p)+1), p...), v)
				next = append(next, point)
			}
		}
		points = next
	}
	return points
}

// Describe formats values as name=value pairs.
func (pv *ParamVector) Describe(values []float64) string {
	s := ""
	for i, spec := range pv.Specs {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%.4g", spec.Name, values[i])
	}
	return s
}
