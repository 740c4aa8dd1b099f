// Package variant defines the closed set of compiled model variants.
package variant

import (
	"fmt"
	"strings"

	"github.com/born-ml/mlip/internal/units"
)

// Type selects how structures are adapted for a graph and which outputs the
// graph is expected to produce. It is fixed when a calculator is built.
type Type string

// Supported variants.
const (
	// Geometry graphs take raw coordinates and do their own neighbor search.
	// They return an energy and its gradient with respect to coordinates.
	Geometry Type = "geometry"
	// MD graphs take a precomputed neighbor list and return energy, forces,
	// per-atom energies and virials.
	MD Type = "md"
)

// Parse converts a configuration string into a Type.
func Parse(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Geometry, MD:
		return t, nil
	default:
		return "", fmt.Errorf("unknown model type %q (want %q or %q)", s, Geometry, MD)
	}
}

// Valid reports whether t is one of the supported variants.
func (t Type) Valid() bool {
	return t == Geometry || t == MD
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// NeedsNeighbors reports whether the graph expects an explicit neighbor list.
func (t Type) NeedsNeighbors() bool {
	return t == MD
}

// DefaultUnits returns the unit system a variant is trained in when the
// artifact does not say otherwise: geometry models work in atomic units,
// md models in eV and Å.
func (t Type) DefaultUnits() units.System {
	if t == Geometry {
		return units.System{Energy: units.NameHartree, Length: units.NameBohr}
	}
	return units.System{Energy: units.NameEV, Length: units.NameAngstrom}
}
