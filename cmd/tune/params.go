// Package main provides CMA-ES tuning of the fluid parameters.
package main

import (
	"github.com/pthm-cable/fluid/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Column name in tune_log.csv
	Min  float64 // Lower bound
	Max  float64 // Upper bound
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "pressure_stiffness", Min: 20, Max: 500},
			{Name: "near_pressure_stiffness", Min: 0, Max: 50},
			{Name: "viscosity_strength", Min: 0, Max: 0.5},
			{Name: "relax_position_stiffness", Min: 0, Max: 0.1},
			{Name: "collision_damping", Min: 0, Max: 1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
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

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Fluid.PressureStiffness = clamped[0]
	cfg.Fluid.NearPressureStiffness = clamped[1]
	cfg.Fluid.ViscosityStrength = clamped[2]
	cfg.Fluid.RelaxPositionStiffness = clamped[3]
	cfg.Fluid.CollisionDamping = clamped[4]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Fluid.PressureStiffness,
		cfg.Fluid.NearPressureStiffness,
		cfg.Fluid.ViscosityStrength,
		cfg.Fluid.RelaxPositionStiffness,
		cfg.Fluid.CollisionDamping,
	}
}
