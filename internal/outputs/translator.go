package outputs

import (
	"fmt"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/graph"
	"github.com/born-ml/mlip/internal/structure"
	"github.com/born-ml/mlip/internal/units"
	"github.com/born-ml/mlip/internal/variant"
)

const op = "translate"

// Translator maps the raw results of one variant to engine units.
type Translator struct {
	variant variant.Type
	conv    units.Conversion
}

// NewTranslator returns a Translator for graphs of variant v trained in the
// units described by conv.
func NewTranslator(v variant.Type, conv units.Conversion) *Translator {
	return &Translator{variant: v, conv: conv}
}

// Translate converts raw results for structure s. Missing required outputs
// and shape mismatches are InferenceErrors.
//
// geometry graphs must return energy and gradient; forces are the negated
// gradient. md graphs must return energy and forces, and may return
// energies, virial and virials. Stresses are derived from the virials only
// when s has a full-rank cell.
func (t *Translator) Translate(raw graph.TensorSet, s *structure.Structure) (*Results, error) {
	n := s.Len()
	res := NewResults()

	energy, err := t.scalar(raw, graph.OutputEnergy)
	if err != nil {
		return nil, err
	}
	res.Set(Energy, Scalar(energy*t.conv.Energy))

	switch t.variant {
	case variant.Geometry:
		grad, err := t.required(raw, graph.OutputGradient, n, 3)
		if err != nil {
			return nil, err
		}
		res.Set(Forces, Value{Shape: []int{n, 3}, Data: scale(grad, -t.conv.Force())})

	case variant.MD:
		forces, err := t.required(raw, graph.OutputForces, n, 3)
		if err != nil {
			return nil, err
		}
		res.Set(Forces, Value{Shape: []int{n, 3}, Data: scale(forces, t.conv.Force())})

		if energies, ok, err := t.optional(raw, graph.OutputEnergies, n); err != nil {
			return nil, err
		} else if ok {
			res.Set(Energies, Value{Shape: []int{n}, Data: scale(energies, t.conv.Energy)})
		}

		if vol := s.Volume(); vol > 0 {
			if err := t.stresses(raw, s, vol, res); err != nil {
				return nil, err
			}
		}

	default:
		return nil, calcerr.New(calcerr.KindConfiguration, op, "unknown model type %q", t.variant)
	}
	return res, nil
}

func (t *Translator) stresses(raw graph.TensorSet, s *structure.Structure, vol float64, res *Results) error {
	n := s.Len()
	factor := t.conv.Energy / vol

	if virial, ok, err := t.optional(raw, graph.OutputVirial, 3, 3); err != nil {
		return err
	} else if ok {
		v := voigt(virial)
		res.Set(Stress, Value{Shape: []int{6}, Data: scale(v[:], factor)})
	}

	if virials, ok, err := t.optional(raw, graph.OutputVirials, n, 3, 3); err != nil {
		return err
	} else if ok {
		data := make([]float64, 0, 6*n)
		for i := 0; i < n; i++ {
			v := voigt(virials[9*i : 9*i+9])
			data = append(data, v[:]...)
		}
		res.Set(Stresses, Value{Shape: []int{n, 6}, Data: scale(data, factor)})
	}
	return nil
}

func (t *Translator) scalar(raw graph.TensorSet, name string) (float64, error) {
	tn, ok := raw[name]
	if !ok || tn == nil {
		return 0, calcerr.New(calcerr.KindInference, op, "graph returned no %q", name)
	}
	if tn.NumElements() != 1 {
		return 0, calcerr.New(calcerr.KindInference, op, "%q has shape %v, want a scalar", name, tn.Shape)
	}
	data, err := tn.AsFloat64()
	if err != nil {
		return 0, calcerr.Wrap(calcerr.KindInference, op, fmt.Errorf("%q: %w", name, err))
	}
	return data[0], nil
}

func (t *Translator) required(raw graph.TensorSet, name string, shape ...int) ([]float64, error) {
	data, ok, err := t.optional(raw, name, shape...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, calcerr.New(calcerr.KindInference, op, "graph returned no %q", name)
	}
	return data, nil
}

func (t *Translator) optional(raw graph.TensorSet, name string, shape ...int) ([]float64, bool, error) {
	tn, ok := raw[name]
	if !ok || tn == nil {
		return nil, false, nil
	}
	if !tn.ShapeIs(shape...) {
		return nil, false, calcerr.New(calcerr.KindInference, op, "%q has shape %v, want %v", name, tn.Shape, shape)
	}
	data, err := tn.AsFloat64()
	if err != nil {
		return nil, false, calcerr.Wrap(calcerr.KindInference, op, fmt.Errorf("%q: %w", name, err))
	}
	return data, true, nil
}

// voigt reduces a row-major 3x3 tensor to Voigt order, symmetrizing the
// off-diagonal terms.
func voigt(m []float64) [6]float64 {
	return [6]float64{
		m[0],
		m[4],
		m[8],
		(m[5] + m[7]) / 2,
		(m[2] + m[6]) / 2,
		(m[1] + m[3]) / 2,
	}
}

// scale returns a new slice holding data times f.
func scale(data []float64, f float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v * f
	}
	return out
}
