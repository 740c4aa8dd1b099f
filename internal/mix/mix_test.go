package mix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/calculator"
	"github.com/born-ml/mlip/internal/graph"
	"github.com/born-ml/mlip/internal/outputs"
	"github.com/born-ml/mlip/internal/structure"
)

// constant reports a fixed energy and the same force on every atom.
type constant struct {
	energy  float64
	force   [3]float64
	extra   map[string]outputs.Value
	err     error
	results *outputs.Results
	calls   int
}

func (c *constant) Calculate(s *structure.Structure) error {
	c.calls++
	c.results = nil
	if c.err != nil {
		return c.err
	}
	r := outputs.NewResults()
	r.Set(outputs.Energy, outputs.Scalar(c.energy))
	data := make([]float64, 0, 3*s.Len())
	for range s.Positions {
		data = append(data, c.force[:]...)
	}
	r.Set(outputs.Forces, outputs.Value{Shape: []int{s.Len(), 3}, Data: data})
	for name, v := range c.extra {
		r.Set(name, v)
	}
	c.results = r
	return nil
}

func (c *constant) Results() *outputs.Results { return c.results }

func dimer() *structure.Structure {
	return structure.New([]int{1, 1}, [][3]float64{{0, 0, 0}, {0, 0, 0.74}})
}

func TestSum(t *testing.T) {
	a := &constant{energy: 1.0, force: [3]float64{1, 0, 0}}
	b := &constant{energy: 2.0, force: [3]float64{0, 0.5, -1}}

	sum, err := NewSum(a, b)
	require.NoError(t, err)
	require.NoError(t, sum.Calculate(dimer()))

	e, err := sum.Results().Energy()
	require.NoError(t, err)
	assert.Equal(t, 3.0, e)

	f, err := sum.Results().Forces()
	require.NoError(t, err)
	assert.Equal(t, [][3]float64{{1, 0.5, -1}, {1, 0.5, -1}}, f)

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 2, sum.Len())
}

func TestLinearCombination(t *testing.T) {
	baseline := &constant{energy: -10, force: [3]float64{2, 2, 2}}
	correction := &constant{energy: 0.5, force: [3]float64{1, 0, 0}}

	lc, err := NewLinearCombination([]calculator.Interface{baseline, correction}, []float64{1, -2})
	require.NoError(t, err)

	v, err := lc.GetProperty(outputs.Energy, dimer())
	require.NoError(t, err)
	assert.Equal(t, []float64{-11}, v.Data)

	f, err := lc.Results().Forces()
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0, 2, 2}, f[0])
}

func TestOnlySharedPropertiesAreCombined(t *testing.T) {
	stress := outputs.Value{Shape: []int{6}, Data: []float64{1, 1, 1, 0, 0, 0}}
	a := &constant{energy: 1, extra: map[string]outputs.Value{outputs.Stress: stress}}
	b := &constant{energy: 2}

	sum, err := NewSum(a, b)
	require.NoError(t, err)
	require.NoError(t, sum.Calculate(dimer()))

	assert.Equal(t, []string{outputs.Energy, outputs.Forces}, sum.Results().Properties())
	_, err = sum.Results().Stress()
	assert.ErrorIs(t, err, calcerr.ErrUnsupportedProperty)
}

func TestShapeMismatch(t *testing.T) {
	a := &constant{energy: 1, extra: map[string]outputs.Value{outputs.Energies: {Shape: []int{2}, Data: []float64{0, 1}}}}
	b := &constant{energy: 2, extra: map[string]outputs.Value{outputs.Energies: {Shape: []int{3}, Data: []float64{0, 1, 2}}}}

	sum, err := NewSum(a, b)
	require.NoError(t, err)
	err = sum.Calculate(dimer())
	assert.ErrorIs(t, err, calcerr.ErrShapeMismatch)
	assert.Nil(t, sum.Results())
}

func TestMemberError(t *testing.T) {
	boom := errors.New("scf did not converge")
	a := &constant{energy: 1}
	b := &constant{err: boom}
	c := &constant{energy: 3}

	sum, err := NewSum(a, b, c)
	require.NoError(t, err)
	require.NoError(t, mustSum(t, a, c).Calculate(dimer()))

	err = sum.Calculate(dimer())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, sum.Results())
	assert.Equal(t, 1, c.calls, "members after a failure are not evaluated")
}

func mustSum(t *testing.T, calcs ...calculator.Interface) *LinearCombination {
	t.Helper()
	s, err := NewSum(calcs...)
	require.NoError(t, err)
	return s
}

func TestNested(t *testing.T) {
	inner, err := NewSum(&constant{energy: 1}, &constant{energy: 2})
	require.NoError(t, err)
	outer, err := NewLinearCombination([]calculator.Interface{inner, &constant{energy: 4}}, []float64{2, 0.5})
	require.NoError(t, err)

	require.NoError(t, outer.Calculate(dimer()))
	e, err := outer.Results().Energy()
	require.NoError(t, err)
	assert.Equal(t, 8.0, e)
}

func TestSumWithCalculator(t *testing.T) {
	model := graph.Func(func(in graph.TensorSet) (graph.TensorSet, error) {
		n := in[graph.InputCoordinates].Shape[0]
		return graph.TensorSet{
			graph.OutputEnergy: graph.NewFloat(graph.Float64, []int{}, []float64{2.0}),
			graph.OutputForces: graph.NewFloat(graph.Float64, []int{n, 3}, make([]float64, 3*n)),
		}, nil
	})
	calc, err := calculator.New(calculator.Config{ModelType: "md", Artifact: model, Precision: "float64"})
	require.NoError(t, err)
	defer calc.Close()

	sum, err := NewSum(&constant{energy: 1.0}, calc)
	require.NoError(t, err)
	require.NoError(t, sum.Calculate(dimer()))

	e, err := sum.Results().Energy()
	require.NoError(t, err)
	assert.Equal(t, 3.0, e)
}

func TestNewErrors(t *testing.T) {
	_, err := NewSum()
	assert.ErrorIs(t, err, ErrNoCalculators)
	assert.ErrorIs(t, err, calcerr.ErrConfiguration)

	_, err = NewLinearCombination([]calculator.Interface{&constant{}}, []float64{1, 2})
	assert.ErrorIs(t, err, calcerr.ErrConfiguration)

	_, err = NewSum(&constant{}, nil)
	assert.ErrorIs(t, err, calcerr.ErrConfiguration)
}
