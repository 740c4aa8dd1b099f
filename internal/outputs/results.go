// Package outputs turns raw graph results into named physical quantities.
//
// Every quantity is reported in engine units: eV for energies, eV/Å for
// forces and eV/Å³ for stresses. Stresses use Voigt order
// xx, yy, zz, yz, xz, xy.
package outputs

import (
	"fmt"
	"sort"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/variant"
)

// Property names.
const (
	Energy   = "energy"   // scalar
	Energies = "energies" // [N]
	Forces   = "forces"   // [N,3]
	Stress   = "stress"   // [6]
	Stresses = "stresses" // [N,6]
)

// Implemented returns the properties a variant can produce. md stresses are
// only present for structures with a full-rank cell.
func Implemented(v variant.Type) []string {
	switch v {
	case variant.Geometry:
		return []string{Energy, Forces}
	case variant.MD:
		return []string{Energy, Energies, Forces, Stress, Stresses}
	default:
		return nil
	}
}

// Value is a dense row-major property value.
type Value struct {
	Shape []int
	Data  []float64
}

// Scalar returns a zero-dimensional Value.
func Scalar(v float64) Value {
	return Value{Shape: []int{}, Data: []float64{v}}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	return Value{
		Shape: append([]int{}, v.Shape...),
		Data:  append([]float64(nil), v.Data...),
	}
}

// SameShape reports whether v and o have identical shapes.
func (v Value) SameShape(o Value) bool {
	if len(v.Shape) != len(o.Shape) {
		return false
	}
	for i := range v.Shape {
		if v.Shape[i] != o.Shape[i] {
			return false
		}
	}
	return true
}

// Results is the result cache of one calculation.
type Results struct {
	values map[string]Value
}

// NewResults returns an empty cache.
func NewResults() *Results {
	return &Results{values: make(map[string]Value)}
}

// Set stores v under name, replacing any previous value.
func (r *Results) Set(name string, v Value) {
	r.values[name] = v
}

// Get returns a copy of the named property. A property that was not
// produced is an UnsupportedProperty error.
func (r *Results) Get(name string) (Value, error) {
	if r == nil {
		return Value{}, fmt.Errorf("%q: %w", name, calcerr.ErrNotCalculated)
	}
	v, ok := r.values[name]
	if !ok {
		return Value{}, calcerr.New(calcerr.KindUnsupportedProperty, "get", "%q is not available (have %v)", name, r.Properties())
	}
	return v.Clone(), nil
}

// Has reports whether name was produced.
func (r *Results) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[name]
	return ok
}

// Properties returns the produced property names, sorted.
func (r *Results) Properties() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.values))
	for n := range r.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of r.
func (r *Results) Clone() *Results {
	out := NewResults()
	if r != nil {
		for n, v := range r.values {
			out.values[n] = v.Clone()
		}
	}
	return out
}

// Energy returns the total energy in eV.
func (r *Results) Energy() (float64, error) {
	v, err := r.Get(Energy)
	if err != nil {
		return 0, err
	}
	return v.Data[0], nil
}

// Forces returns per-atom forces in eV/Å.
func (r *Results) Forces() ([][3]float64, error) {
	v, err := r.Get(Forces)
	if err != nil {
		return nil, err
	}
	return rows3(v.Data), nil
}

// Stress returns the Voigt stress in eV/Å³.
func (r *Results) Stress() ([6]float64, error) {
	var out [6]float64
	v, err := r.Get(Stress)
	if err != nil {
		return out, err
	}
	copy(out[:], v.Data)
	return out, nil
}

func rows3(data []float64) [][3]float64 {
	out := make([][3]float64, len(data)/3)
	for i := range out {
		copy(out[i][:], data[3*i:3*i+3])
	}
	return out
}
