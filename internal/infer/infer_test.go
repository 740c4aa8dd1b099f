package infer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/graph"
)

type describedGraph struct {
	graph.Func
	inputs  []string
	outputs []string
}

func (d describedGraph) InputNames() []string        { return d.inputs }
func (d describedGraph) OutputNames() []string       { return d.outputs }
func (d describedGraph) Metadata() map[string]string { return nil }

func energyOf(in graph.TensorSet) (graph.TensorSet, error) {
	return graph.TensorSet{
		graph.OutputEnergy: graph.NewFloat(graph.Float64, []int{}, []float64{float64(len(in))}),
	}, nil
}

func inputs() graph.TensorSet {
	return graph.TensorSet{
		graph.InputAtomicNumbers: graph.NewInt64([]int{1}, []int64{1}),
		graph.InputCoordinates:   graph.NewFloat(graph.Float32, []int{1, 3}, []float64{0, 0, 0}),
		graph.InputCharge:        graph.ScalarInt64(0),
		graph.InputSpin:          graph.ScalarInt64(0),
	}
}

func TestRunPassesEverythingToOpaqueGraphs(t *testing.T) {
	e := New(graph.Func(energyOf))
	out, err := e.Run(inputs())
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, out[graph.OutputEnergy].Floats)
}

func TestRunPrunesUndeclaredInputs(t *testing.T) {
	var seen graph.TensorSet
	g := describedGraph{
		Func: func(in graph.TensorSet) (graph.TensorSet, error) {
			seen = in
			return energyOf(in)
		},
		inputs:  []string{graph.InputAtomicNumbers, graph.InputCoordinates},
		outputs: []string{graph.OutputEnergy, graph.OutputGradient},
	}
	e := New(g)

	out, err := e.Run(inputs())
	require.NoError(t, err)
	assert.Equal(t, []string{graph.InputAtomicNumbers, graph.InputCoordinates}, seen.Names())
	assert.Equal(t, []float64{2}, out[graph.OutputEnergy].Floats)
}

func TestRunMissingDeclaredInput(t *testing.T) {
	g := describedGraph{
		Func:   energyOf,
		inputs: []string{graph.InputAtomicNumbers, graph.InputEdgeIndex},
	}
	_, err := New(g).Run(inputs())
	assert.ErrorIs(t, err, calcerr.ErrInference)
	assert.Contains(t, err.Error(), graph.InputEdgeIndex)
}

func TestRunErrors(t *testing.T) {
	boom := errors.New("Gather: index out of range")

	tests := []struct {
		name string
		fn   graph.Func
	}{
		{"error", func(graph.TensorSet) (graph.TensorSet, error) { return nil, boom }},
		{"panic", func(graph.TensorSet) (graph.TensorSet, error) { panic("shape [3,3] vs [4,3]") }},
		{"malformed output", func(graph.TensorSet) (graph.TensorSet, error) {
			return graph.TensorSet{graph.OutputEnergy: {DType: graph.Float32, Shape: []int{2}, Floats: []float64{1}}}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(tt.fn).Run(inputs())
			assert.Nil(t, out)
			assert.ErrorIs(t, err, calcerr.ErrInference)
			assert.Equal(t, calcerr.KindInference, calcerr.KindOf(err))
		})
	}

	_, err := New(graph.Func(func(graph.TensorSet) (graph.TensorSet, error) { return nil, boom })).Run(inputs())
	assert.ErrorIs(t, err, boom)
}
