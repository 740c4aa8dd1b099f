// Copyright 2026 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package structure provides atomic configurations for calculators.
//
// Positions and cell vectors are Cartesian and in Å. A Structure without a
// cell is a molecule; periodic axes need a lattice vector.
//
// Example:
//
//	water := structure.New(
//	    []int{8, 1, 1},
//	    [][3]float64{{0, 0, 0.1173}, {0, 0.7572, -0.4692}, {0, -0.7572, -0.4692}},
//	)
//
//	crystal, err := structure.ReadFile("si.xyz") // extended XYZ or JSON
package structure

import (
	"io"

	"github.com/born-ml/mlip/internal/structure"
)

// Structure is an atomic configuration.
type Structure = structure.Structure

// Validation errors.
var (
	ErrEmpty               = structure.ErrEmpty
	ErrLengthMismatch      = structure.ErrLengthMismatch
	ErrNonFinite           = structure.ErrNonFinite
	ErrPeriodicWithoutCell = structure.ErrPeriodicWithoutCell
	ErrSingularCell        = structure.ErrSingularCell
)

// New creates a non-periodic structure.
func New(numbers []int, positions [][3]float64) *Structure {
	return structure.New(numbers, positions)
}

// NewPeriodic creates a structure with a cell and periodicity flags.
func NewPeriodic(numbers []int, positions [][3]float64, cell [3][3]float64, pbc [3]bool) *Structure {
	return structure.NewPeriodic(numbers, positions, cell, pbc)
}

// ReadFile reads a structure from an extended XYZ (.xyz, .extxyz) or JSON
// (.json) file.
func ReadFile(path string) (*Structure, error) {
	return structure.ReadFile(path)
}

// ReadXYZ reads the first frame of an (extended) XYZ stream.
func ReadXYZ(r io.Reader) (*Structure, error) {
	return structure.ReadXYZ(r)
}

// ReadJSON reads a JSON encoded structure.
func ReadJSON(r io.Reader) (*Structure, error) {
	return structure.ReadJSON(r)
}

// AtomicNumber returns the atomic number of an element symbol.
func AtomicNumber(symbol string) (int, error) {
	return structure.AtomicNumber(symbol)
}

// Symbol returns the element symbol of atomic number z, or "X" if unknown.
func Symbol(z int) string {
	return structure.Symbol(z)
}
