package main

import (
	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/config"
)

// ParamSpec defines a single calibrated parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all calibrated parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibrated parameters:
// transmission followed by one mobility coefficient per age category.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "transmission", Path: "disease.transmission", Min: 0.0, Max: 1.0, Default: 0.1},
			{Name: "beta_adult", Path: "mobility.beta.1", Min: 0.1, Max: 6.0, Default: 1.0},
			{Name: "beta_elderly", Path: "mobility.beta.2", Min: 0.1, Max: 6.0, Default: 2.0},
			{Name: "beta_youth", Path: "mobility.beta.3", Min: 0.1, Max: 6.0, Default: 3.0},
			{Name: "beta_infant", Path: "mobility.beta.4", Min: 0.1, Max: 6.0, Default: 4.0},
		},
	}
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

// ApplyToConfig applies clamped parameter values to cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Disease.Transmission = clamped[0]
	if cfg.Mobility.Beta == nil {
		cfg.Mobility.Beta = make(map[int]float64, components.NumCategories)
	}
	for i, cat := range components.Categories {
		cfg.Mobility.Beta[int(cat)] = clamped[1+i]
	}
}

// ExtractFromConfig extracts current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := []float64{cfg.Disease.Transmission}
	for _, cat := range components.Categories {
		v = append(v, cfg.Mobility.Beta[int(cat)])
	}
	return v
}
