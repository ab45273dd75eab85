// Package main provides CMA-ES tuning of the deformation parameters: it
// searches for damping, spring, and policy gains that give a visible
// response to a pulse while settling back to rest quickly.
package main

import (
	"fmt"

	"github.com/pthm-cable/jelly/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the tunable parameters for one policy.
type ParamVector struct {
	Policy string
	Specs  []ParamSpec
}

// NewParamVector creates the parameter set for the given policy. The shared
// integrator parameters always come first; the policy's radius and strength
// follow.
func NewParamVector(policy string, cfg *config.Config) (*ParamVector, error) {
	pv := &ParamVector{
		Policy: policy,
		Specs: []ParamSpec{
			{Name: "damping", Min: 0.70, Max: 0.99, Default: cfg.Physics.Damping},
			{Name: "spring", Min: 0.001, Max: 0.08, Default: cfg.Physics.Spring},
		},
	}

	switch policy {
	case "repulse":
		pv.Specs = append(pv.Specs,
			ParamSpec{Name: "radius", Min: 40, Max: 400, Default: cfg.Repulse.Radius},
			ParamSpec{Name: "strength", Min: 0.01, Max: 0.5, Default: cfg.Repulse.Strength},
		)
	case "impulse":
		pv.Specs = append(pv.Specs,
			ParamSpec{Name: "radius", Min: 0.2, Max: 3, Default: cfg.Impulse.Radius},
			ParamSpec{Name: "strength", Min: 0.05, Max: 1.5, Default: cfg.Impulse.Strength},
			ParamSpec{Name: "decay", Min: 0.75, Max: 0.98, Default: cfg.Impulse.Decay},
		)
	case "wave":
		pv.Specs = append(pv.Specs,
			ParamSpec{Name: "radius", Min: 0.2, Max: 3, Default: cfg.Wave.Radius},
			ParamSpec{Name: "strength", Min: 0.005, Max: 0.2, Default: cfg.Wave.Strength},
			ParamSpec{Name: "magnetic", Min: 0.002, Max: 0.08, Default: cfg.Wave.Magnetic},
		)
	case "depth_kick":
		pv.Specs = append(pv.Specs,
			ParamSpec{Name: "radius", Min: 0.2, Max: 3, Default: cfg.DepthKick.Radius},
			ParamSpec{Name: "strength", Min: 0.05, Max: 1.5, Default: cfg.DepthKick.Strength},
			ParamSpec{Name: "pull_spring", Min: 0.01, Max: 0.2, Default: cfg.DepthKick.Spring},
		)
	default:
		return nil, fmt.Errorf("unknown policy %q", policy)
	}

	return pv, nil
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
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config, including the derived
// float32 mirrors the simulation reads.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Physics.Damping = clamped[0]
	cfg.Physics.Spring = clamped[1]
	cfg.Derived.Damping32 = float32(clamped[0])
	cfg.Derived.Spring32 = float32(clamped[1])

	switch pv.Policy {
	case "repulse":
		cfg.Repulse.Radius = clamped[2]
		cfg.Repulse.Strength = clamped[3]
	case "impulse":
		cfg.Impulse.Radius = clamped[2]
		cfg.Impulse.Strength = clamped[3]
		cfg.Impulse.Decay = clamped[4]
	case "wave":
		cfg.Wave.Radius = clamped[2]
		cfg.Wave.Strength = clamped[3]
		cfg.Wave.Magnetic = clamped[4]
	case "depth_kick":
		cfg.DepthKick.Radius = clamped[2]
		cfg.DepthKick.Strength = clamped[3]
		cfg.DepthKick.Spring = clamped[4]
	}
}
