// Package mix combines calculators additively.
//
// A LinearCombination evaluates each member on the same structure, in order,
// and reports Σ wᵢ·propertyᵢ for every property all members produced. Sum
// is the all-ones case used for delta-learning: a baseline method plus a
// learned correction.
package mix

import (
	"errors"
	"fmt"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/calculator"
	"github.com/born-ml/mlip/internal/outputs"
	"github.com/born-ml/mlip/internal/structure"
)

// ErrNoCalculators is returned when a combination has no members.
var ErrNoCalculators = errors.New("combination needs at least one calculator")

// LinearCombination is a weighted sum of calculators. It satisfies
// calculator.Interface, so combinations nest.
type LinearCombination struct {
	members []calculator.Interface
	weights []float64
	results *outputs.Results
}

var _ calculator.Interface = (*LinearCombination)(nil)

// NewLinearCombination returns Σ weights[i]·calcs[i].
func NewLinearCombination(calcs []calculator.Interface, weights []float64) (*LinearCombination, error) {
	if len(calcs) == 0 {
		return nil, calcerr.Wrap(calcerr.KindConfiguration, "combine", ErrNoCalculators)
	}
	if len(weights) != len(calcs) {
		return nil, calcerr.New(calcerr.KindConfiguration, "combine", "%d weights for %d calculators", len(weights), len(calcs))
	}
	for i, c := range calcs {
		if c == nil {
			return nil, calcerr.New(calcerr.KindConfiguration, "combine", "calculator %d is nil", i)
		}
	}
	return &LinearCombination{
		members: append([]calculator.Interface(nil), calcs...),
		weights: append([]float64(nil), weights...),
	}, nil
}

// NewSum returns the plain sum of calcs.
func NewSum(calcs ...calculator.Interface) (*LinearCombination, error) {
	weights := make([]float64, len(calcs))
	for i := range weights {
		weights[i] = 1
	}
	return NewLinearCombination(calcs, weights)
}

// Calculate evaluates every member on s and combines their results. The
// first member error aborts the calculation and clears the results.
func (l *LinearCombination) Calculate(s *structure.Structure) error {
	l.results = nil

	var combined *outputs.Results
	for i, m := range l.members {
		if err := m.Calculate(s); err != nil {
			return fmt.Errorf("calculator %d: %w", i, err)
		}
		res := m.Results()
		if res == nil {
			return fmt.Errorf("calculator %d: %w", i, calcerr.ErrNotCalculated)
		}

		if combined == nil {
			combined = outputs.NewResults()
			for _, name := range res.Properties() {
				v, err := res.Get(name)
				if err != nil {
					return err
				}
				combined.Set(name, weighted(v, l.weights[i]))
			}
			continue
		}

		next := outputs.NewResults()
		for _, name := range combined.Properties() {
			if !res.Has(name) {
				continue
			}
			acc, err := combined.Get(name)
			if err != nil {
				return err
			}
			v, err := res.Get(name)
			if err != nil {
				return err
			}
			if !acc.SameShape(v) {
				return fmt.Errorf("%w: %q is %v in calculator %d, %v before", calcerr.ErrShapeMismatch, name, v.Shape, i, acc.Shape)
			}
			for k := range acc.Data {
				acc.Data[k] += l.weights[i] * v.Data[k]
			}
			next.Set(name, acc)
		}
		combined = next
	}

	l.results = combined
	return nil
}

// Results returns the combined results of the last successful Calculate,
// or nil.
func (l *LinearCombination) Results() *outputs.Results {
	return l.results
}

// GetProperty calculates s and returns the named combined property.
func (l *LinearCombination) GetProperty(name string, s *structure.Structure) (outputs.Value, error) {
	if err := l.Calculate(s); err != nil {
		return outputs.Value{}, err
	}
	return l.results.Get(name)
}

// Len returns the number of members.
func (l *LinearCombination) Len() int {
	return len(l.members)
}

func weighted(v outputs.Value, w float64) outputs.Value {
	if w == 1 {
		return v
	}
	for k := range v.Data {
		v.Data[k] *= w
	}
	return v
}
