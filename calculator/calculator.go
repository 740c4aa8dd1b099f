// Copyright 2026 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package calculator runs compiled machine-learned interatomic potentials
// as atomistic calculators.
//
// A calculator is built once per model and model type. "geometry" models
// take atomic numbers and coordinates and report energy and forces. "md"
// models also take a neighbor list within a cutoff, including periodic
// images, and report per-atom energies and, for cells of full rank,
// stresses. Results are always in eV, eV/Å and eV/Å³.
//
// Example:
//
//	calc, err := calculator.New(calculator.Config{
//	    ModelType:    "md",
//	    ArtifactPath: "model.mlip",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer calc.Close()
//
//	energy, err := calc.GetPotentialEnergy(atoms)
//	forces, err := calc.GetForces(atoms)
//
// Calculators compose additively:
//
//	total, err := calculator.Sum(baseline, correction)
//	err = total.Calculate(atoms)
//	e, err := total.Results().Energy()
package calculator

import (
	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/calculator"
	"github.com/born-ml/mlip/internal/metrics"
	"github.com/born-ml/mlip/internal/mix"
	"github.com/born-ml/mlip/internal/outputs"
	"github.com/born-ml/mlip/internal/variant"
)

// Config configures a Calculator.
type Config = calculator.Config

// Calculator evaluates one compiled potential.
type Calculator = calculator.Calculator

// Info describes a calculator after defaults are resolved.
type Info = calculator.Info

// Interface is implemented by anything that calculates structures and
// exposes named results. Calculator and LinearCombination implement it.
type Interface = calculator.Interface

// Results holds the properties of one calculation.
type Results = outputs.Results

// Value is a dense row-major property value.
type Value = outputs.Value

// LinearCombination is a weighted sum of calculators.
type LinearCombination = mix.LinearCombination

// Metrics collects Prometheus metrics for calculators.
type Metrics = metrics.Collector

// Model types.
const (
	Geometry = string(variant.Geometry)
	MD       = string(variant.MD)
)

// Property names.
const (
	Energy   = outputs.Energy
	Energies = outputs.Energies
	Forces   = outputs.Forces
	Stress   = outputs.Stress
	Stresses = outputs.Stresses
)

// Error kinds. Match them with errors.Is.
var (
	ErrConfiguration       = calcerr.ErrConfiguration
	ErrLoad                = calcerr.ErrLoad
	ErrDevice              = calcerr.ErrDevice
	ErrUnsupportedSpecies  = calcerr.ErrUnsupportedSpecies
	ErrInference           = calcerr.ErrInference
	ErrUnsupportedProperty = calcerr.ErrUnsupportedProperty
	ErrNotCalculated       = calcerr.ErrNotCalculated
	ErrShapeMismatch       = calcerr.ErrShapeMismatch
)

// SpeciesError lists the atoms whose species the model does not know.
type SpeciesError = calcerr.SpeciesError

// New validates cfg, loads the artifact and returns a ready calculator.
func New(cfg Config) (*Calculator, error) {
	return calculator.New(cfg)
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return calculator.LoadConfig(path)
}

// ParseConfig parses a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	return calculator.ParseConfig(data)
}

// Sum returns a calculator reporting the sum of calcs.
func Sum(calcs ...Interface) (*LinearCombination, error) {
	return mix.NewSum(calcs...)
}

// NewLinearCombination returns a calculator reporting Σ weights[i]·calcs[i].
func NewLinearCombination(calcs []Interface, weights []float64) (*LinearCombination, error) {
	return mix.NewLinearCombination(calcs, weights)
}

// NewMetrics creates a metrics collector with its own Prometheus registry.
// Pass it as Config.Metrics to instrument one or more calculators.
func NewMetrics(namespace string) *Metrics {
	return metrics.NewCollector(namespace)
}
