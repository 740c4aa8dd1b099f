// Package structure provides the atomic configuration handed to calculators.
package structure

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Validation errors.
var (
	ErrEmpty               = errors.New("structure has no atoms")
	ErrLengthMismatch      = errors.New("numbers and positions have different lengths")
	ErrNonFinite           = errors.New("non-finite coordinate")
	ErrPeriodicWithoutCell = errors.New("periodic axis without a lattice vector")
	ErrSingularCell        = errors.New("cell is singular")
)

// Structure is an atomic configuration: species, Cartesian positions in Å,
// an optional cell and periodic boundary flags.
//
// Numbers and Positions are index-aligned. Cell rows are lattice vectors in
// Å; Cell is nil for molecules. Calculators read a Structure and never
// modify it.
type Structure struct {
	Numbers   []int          `json:"numbers"`
	Positions [][3]float64   `json:"positions"`
	Cell      *[3][3]float64 `json:"cell,omitempty"`
	PBC       [3]bool        `json:"pbc"`
}

// New creates a non-periodic structure from atomic numbers and positions.
func New(numbers []int, positions [][3]float64) *Structure {
	return &Structure{Numbers: numbers, Positions: positions}
}

// NewPeriodic creates a structure with a cell and periodicity flags.
func NewPeriodic(numbers []int, positions [][3]float64, cell [3][3]float64, pbc [3]bool) *Structure {
	return &Structure{Numbers: numbers, Positions: positions, Cell: &cell, PBC: pbc}
}

// Len returns the number of atoms.
func (s *Structure) Len() int {
	return len(s.Numbers)
}

// Validate checks the structure invariants.
func (s *Structure) Validate() error {
	if len(s.Numbers) == 0 && len(s.Positions) == 0 {
		return ErrEmpty
	}
	if len(s.Numbers) != len(s.Positions) {
		return fmt.Errorf("%w: %d numbers, %d positions", ErrLengthMismatch, len(s.Numbers), len(s.Positions))
	}
	for i, p := range s.Positions {
		if !finite(p) {
			return fmt.Errorf("%w: atom %d at %v", ErrNonFinite, i, p)
		}
	}
	if s.Cell != nil {
		for i, v := range s.Cell {
			if !finite(v) {
				return fmt.Errorf("%w: lattice vector %d is %v", ErrNonFinite, i, v)
			}
		}
	}
	for axis, periodic := range s.PBC {
		if periodic && (s.Cell == nil || isZero(s.Cell[axis])) {
			return fmt.Errorf("%w: axis %d", ErrPeriodicWithoutCell, axis)
		}
	}
	return nil
}

// CellRank returns the number of non-zero lattice vectors.
func (s *Structure) CellRank() int {
	if s.Cell == nil {
		return 0
	}
	n := 0
	for _, v := range s.Cell {
		if !isZero(v) {
			n++
		}
	}
	return n
}

// Volume returns the cell volume in Å³, or 0 if the cell is not 3D or its
// lattice vectors are coplanar.
func (s *Structure) Volume() float64 {
	if _, err := s.InverseCell(); err != nil {
		return 0
	}
	return math.Abs(mat.Det(cellMatrix(s.Cell)))
}

// InverseCell returns the inverse of the cell matrix. Column k of the
// result is the reciprocal vector (without 2π) of lattice vector k.
func (s *Structure) InverseCell() (*mat.Dense, error) {
	if s.CellRank() < 3 {
		return nil, fmt.Errorf("%w: rank %d", ErrSingularCell, s.CellRank())
	}
	var inv mat.Dense
	if err := inv.Inverse(cellMatrix(s.Cell)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingularCell, err)
	}
	return &inv, nil
}

// Clone returns a deep copy.
func (s *Structure) Clone() *Structure {
	c := &Structure{
		Numbers:   slices.Clone(s.Numbers),
		Positions: slices.Clone(s.Positions),
		PBC:       s.PBC,
	}
	if s.Cell != nil {
		cell := *s.Cell
		c.Cell = &cell
	}
	return c
}

// Equal reports whether s and o describe bit-identical configurations.
func (s *Structure) Equal(o *Structure) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.PBC != o.PBC || !slices.Equal(s.Numbers, o.Numbers) || !slices.Equal(s.Positions, o.Positions) {
		return false
	}
	if (s.Cell == nil) != (o.Cell == nil) {
		return false
	}
	return s.Cell == nil || *s.Cell == *o.Cell
}

func cellMatrix(c *[3][3]float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		c[0][0], c[0][1], c[0][2],
		c[1][0], c[1][1], c[1][2],
		c[2][0], c[2][1], c[2][2],
	})
}

func finite(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func isZero(v [3]float64) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}
