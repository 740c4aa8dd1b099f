// Package graphtest builds small ONNX models in memory for tests.
//
// Models are encoded field by field with protowire, so tests can exercise
// the real ONNX loading path without fixture files.
package graphtest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/born-ml/mlip/internal/graph"
)

// ONNX tensor element types.
const (
	ElemFloat  int32 = 1
	ElemInt64  int32 = 7
	ElemBool   int32 = 9
	ElemDouble int32 = 11
)

// Value is a graph input or output. A negative dimension is dynamic.
type Value struct {
	Name  string
	Elem  int32
	Shape []int64
}

// Node is a single operator application.
type Node struct {
	Op      string
	Inputs  []string
	Outputs []string
}

// Initializer is a constant float32 tensor.
type Initializer struct {
	Name   string
	Shape  []int64
	Floats []float32
}

// Model describes an ONNX model with a single graph.
type Model struct {
	Inputs       []Value
	Outputs      []Value
	Initializers []Initializer
	Nodes        []Node
	Metadata     map[string]string
}

// Potential returns a trivial potential of the given model type: the energy
// is the constant e0 and the gradient (geometry) or forces (md) echo the
// input coordinates. extra adds declared inputs the graph ignores.
func Potential(modelType string, e0 float32, extra ...Value) *Model {
	coordOut := graph.OutputForces
	if modelType == "geometry" {
		coordOut = graph.OutputGradient
	}
	inputs := []Value{
		{Name: graph.InputAtomicNumbers, Elem: ElemInt64, Shape: []int64{-1}},
		{Name: graph.InputCoordinates, Elem: ElemFloat, Shape: []int64{-1, 3}},
	}
	return &Model{
		Inputs: append(inputs, extra...),
		Outputs: []Value{
			{Name: graph.OutputEnergy, Elem: ElemFloat, Shape: []int64{1}},
			{Name: coordOut, Elem: ElemFloat, Shape: []int64{-1, 3}},
		},
		Initializers: []Initializer{{Name: "e0", Shape: []int64{1}, Floats: []float32{e0}}},
		Nodes: []Node{
			{Op: "Identity", Inputs: []string{"e0"}, Outputs: []string{graph.OutputEnergy}},
			{Op: "Identity", Inputs: []string{graph.InputCoordinates}, Outputs: []string{coordOut}},
		},
		Metadata: map[string]string{"mlip.model_type": modelType},
	}
}

// Bytes encodes m as an ONNX ModelProto (IR version 7, opset 13).
func (m *Model) Bytes() []byte {
	var b []byte
	b = appendVarint(b, 1, 7) // ir_version
	b = appendString(b, 2, "mlip-tests")

	var g []byte
	for _, n := range m.Nodes {
		g = appendMessage(g, 1, node(n))
	}
	g = appendString(g, 2, "potential")
	for _, init := range m.Initializers {
		g = appendMessage(g, 5, initializer(init))
	}
	for _, v := range m.Inputs {
		g = appendMessage(g, 11, valueInfo(v))
	}
	for _, v := range m.Outputs {
		g = appendMessage(g, 12, valueInfo(v))
	}
	b = appendMessage(b, 7, g)

	var opset []byte
	opset = appendString(opset, 1, "")
	opset = appendVarint(opset, 2, 13)
	b = appendMessage(b, 8, opset)

	keys := make([]string, 0, len(m.Metadata))
	for k := range m.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, m.Metadata[k])
		b = appendMessage(b, 14, entry)
	}
	return b
}

// WriteFile encodes m into dir/name and returns the path.
func (m *Model) WriteFile(tb testing.TB, dir, name string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, m.Bytes(), 0o600); err != nil {
		tb.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func node(n Node) []byte {
	var b []byte
	for _, in := range n.Inputs {
		b = appendString(b, 1, in)
	}
	for _, out := range n.Outputs {
		b = appendString(b, 2, out)
	}
	b = appendString(b, 3, n.Op+"_"+n.Outputs[0])
	return appendString(b, 4, n.Op)
}

func initializer(init Initializer) []byte {
	var b []byte
	for _, d := range init.Shape {
		b = appendVarint(b, 1, uint64(d))
	}
	b = appendVarint(b, 2, uint64(ElemFloat))
	b = appendString(b, 8, init.Name)
	raw := make([]byte, 4*len(init.Floats))
	for i, f := range init.Floats {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(f))
	}
	return appendMessage(b, 9, raw)
}

func valueInfo(v Value) []byte {
	var shape []byte
	for _, d := range v.Shape {
		var dim []byte
		if d >= 0 {
			dim = appendVarint(dim, 1, uint64(d))
		} else {
			dim = appendString(dim, 2, "n")
		}
		shape = appendMessage(shape, 1, dim)
	}

	var tensorType []byte
	tensorType = appendVarint(tensorType, 1, uint64(v.Elem))
	tensorType = appendMessage(tensorType, 2, shape)

	var typ []byte
	typ = appendMessage(typ, 1, tensorType)

	var b []byte
	b = appendString(b, 1, v.Name)
	return appendMessage(b, 2, typ)
}

func appendVarint(b []byte, field protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, field, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, field protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, field protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
