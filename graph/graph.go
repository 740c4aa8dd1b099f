// Copyright 2026 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph exposes the compiled-graph capability used by calculators.
//
// Anything with an Evaluate method can stand in for a compiled potential,
// which is how in-memory artifacts are handed to calculator.New:
//
//	model := graph.Func(func(in graph.TensorSet) (graph.TensorSet, error) {
//	    n := in[graph.InputCoordinates].Shape[0]
//	    return graph.TensorSet{
//	        graph.OutputEnergy: graph.NewFloat(graph.Float64, nil, []float64{0}),
//	        graph.OutputForces: graph.NewFloat(graph.Float64, []int{n, 3}, make([]float64, 3*n)),
//	    }, nil
//	})
package graph

import "github.com/born-ml/mlip/internal/graph"

// Graph evaluates a compiled network on named tensors.
type Graph = graph.Graph

// Func adapts a function to Graph.
type Func = graph.Func

// Describer is implemented by graphs that report their signature.
type Describer = graph.Describer

// InferenceModer is implemented by graphs that track training state.
type InferenceModer = graph.InferenceModer

// Tensor is a host-side dense tensor.
type Tensor = graph.Tensor

// TensorSet maps argument names to tensors.
type TensorSet = graph.TensorSet

// DType is a tensor element type.
type DType = graph.DType

// Element types.
const (
	Float32 = graph.Float32
	Float64 = graph.Float64
	Int64   = graph.Int64
	Bool    = graph.Bool
)

// Argument names.
const (
	InputAtomicNumbers = graph.InputAtomicNumbers
	InputCoordinates   = graph.InputCoordinates
	InputCharge        = graph.InputCharge
	InputSpin          = graph.InputSpin
	InputCell          = graph.InputCell
	InputPBC           = graph.InputPBC
	InputEdgeIndex     = graph.InputEdgeIndex
	InputShifts        = graph.InputShifts
)

// Result names.
const (
	OutputEnergy   = graph.OutputEnergy
	OutputGradient = graph.OutputGradient
	OutputForces   = graph.OutputForces
	OutputEnergies = graph.OutputEnergies
	OutputVirial   = graph.OutputVirial
	OutputVirials  = graph.OutputVirials
)

// NewFloat creates a floating point tensor rounded to dtype.
func NewFloat(dtype DType, shape []int, data []float64) *Tensor {
	return graph.NewFloat(dtype, shape, data)
}

// NewInt64 creates an int64 tensor.
func NewInt64(shape []int, data []int64) *Tensor {
	return graph.NewInt64(shape, data)
}

// NewBool creates a bool tensor.
func NewBool(shape []int, data []bool) *Tensor {
	return graph.NewBool(shape, data)
}
