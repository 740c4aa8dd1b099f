// Package graph defines the compiled computation graph as a capability.
//
// A Graph is opaque: the calculator never sees its architecture, only the
// tensors it takes and returns. The Born ONNX runtime is one implementation;
// tests use Func.
package graph

// Argument names understood by compiled potentials.
const (
	InputAtomicNumbers = "at_no"      // int64 [N]
	InputCoordinates   = "coord"      // float [N,3], model length unit
	InputCharge        = "charge"     // int64 scalar
	InputSpin          = "spin"       // int64 scalar
	InputCell          = "cell"       // float [3,3], model length unit
	InputPBC           = "pbc"        // bool [3]
	InputEdgeIndex     = "edge_index" // int64 [2,E]: row 0 centers, row 1 neighbors
	InputShifts        = "shifts"     // float [E,3], model length unit
)

// Result names produced by compiled potentials.
const (
	OutputEnergy   = "energy"   // scalar, model energy unit
	OutputGradient = "gradient" // [N,3], dE/dr (geometry)
	OutputForces   = "forces"   // [N,3], -dE/dr (md)
	OutputEnergies = "energies" // [N], per-atom energies (md)
	OutputVirial   = "virial"   // [3,3] (md)
	OutputVirials  = "virials"  // [N,3,3] per-atom virials (md)
)

// Graph evaluates a compiled network on a set of named tensors.
//
// Implementations must not retain or modify the input tensors, and must
// return tensors the caller owns.
type Graph interface {
	Evaluate(inputs TensorSet) (TensorSet, error)
}

// Func adapts an ordinary function to the Graph interface.
type Func func(inputs TensorSet) (TensorSet, error)

// Evaluate calls f(inputs).
func (f Func) Evaluate(inputs TensorSet) (TensorSet, error) {
	return f(inputs)
}

// Describer is implemented by graphs that can report their signature and
// embedded metadata.
type Describer interface {
	InputNames() []string
	OutputNames() []string
	Metadata() map[string]string
}

// InferenceModer is implemented by graphs that track training state.
// SetInferenceMode must permanently disable parameter updates and gradient
// bookkeeping.
type InferenceModer interface {
	SetInferenceMode()
}
