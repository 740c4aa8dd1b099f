package graph

import (
	"fmt"

	"github.com/born-ml/born/onnx"
	"github.com/born-ml/born/tensor"
)

// ONNX binds a Born ONNX model to the Graph interface.
//
// Born's ONNX interpreter runs on a plain (non-autodiff) backend, so a model
// loaded through it never records gradients and has no training state: it
// is inference-only by construction.
type ONNX struct {
	model  onnx.Model
	device tensor.Device
}

// Compile-time interface checks.
var (
	_ Graph          = (*ONNX)(nil)
	_ Describer      = (*ONNX)(nil)
	_ InferenceModer = (*ONNX)(nil)
)

// NewONNX wraps model. Input tensors are materialized on device.
func NewONNX(model onnx.Model, device tensor.Device) *ONNX {
	return &ONNX{model: model, device: device}
}

// Evaluate converts inputs to Born tensors, runs the model and copies the
// results back to host tensors. The input tensors created here are released
// before returning.
func (g *ONNX) Evaluate(inputs TensorSet) (TensorSet, error) {
	raws := make(map[string]*tensor.RawTensor, len(inputs))
	defer func() {
		for _, r := range raws {
			r.Release()
		}
	}()

	for _, name := range inputs.Names() {
		raw, err := toRaw(inputs[name], g.device)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		raws[name] = raw
	}

	results, err := g.model.ForwardNamed(raws)
	if err != nil {
		return nil, err
	}

	// Results may alias model weights, so they are copied and left to the
	// runtime rather than released.
	out := make(TensorSet, len(results))
	for name, raw := range results {
		t, err := fromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// InputNames returns the model's declared inputs.
func (g *ONNX) InputNames() []string {
	return g.model.InputNames()
}

// OutputNames returns the model's declared outputs.
func (g *ONNX) OutputNames() []string {
	return g.model.OutputNames()
}

// Metadata returns the model's metadata_props and producer information.
func (g *ONNX) Metadata() map[string]string {
	return g.model.Metadata()
}

// SetInferenceMode is a no-op: Born ONNX models carry no training state.
func (g *ONNX) SetInferenceMode() {}

func toRaw(t *Tensor, device tensor.Device) (*tensor.RawTensor, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var dtype tensor.DataType
	switch t.DType {
	case Float32:
		dtype = tensor.Float32
	case Float64:
		dtype = tensor.Float64
	case Int64:
		dtype = tensor.Int64
	case Bool:
		dtype = tensor.Bool
	}

	// Born rejects zero-sized dimensions (e.g. an empty neighbor list).
	raw, err := tensor.NewRaw(tensor.Shape(t.Shape), dtype, device)
	if err != nil {
		return nil, err
	}

	switch t.DType {
	case Float32:
		dst := raw.AsFloat32()
		for i, v := range t.Floats {
			dst[i] = float32(v)
		}
	case Float64:
		copy(raw.AsFloat64(), t.Floats)
	case Int64:
		copy(raw.AsInt64(), t.Ints)
	case Bool:
		copy(raw.AsBool(), t.Bools)
	}
	return raw, nil
}

func fromRaw(raw *tensor.RawTensor) (*Tensor, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil tensor")
	}
	shape := append([]int(nil), raw.Shape()...)

	switch raw.DType() {
	case tensor.Float32:
		src := raw.AsFloat32()
		data := make([]float64, len(src))
		for i, v := range src {
			data[i] = float64(v)
		}
		return &Tensor{DType: Float32, Shape: shape, Floats: data}, nil
	case tensor.Float64:
		return &Tensor{DType: Float64, Shape: shape, Floats: append([]float64(nil), raw.AsFloat64()...)}, nil
	case tensor.Int64:
		return &Tensor{DType: Int64, Shape: shape, Ints: append([]int64(nil), raw.AsInt64()...)}, nil
	case tensor.Int32:
		src := raw.AsInt32()
		data := make([]int64, len(src))
		for i, v := range src {
			data[i] = int64(v)
		}
		return &Tensor{DType: Int64, Shape: shape, Ints: data}, nil
	case tensor.Bool:
		return &Tensor{DType: Bool, Shape: shape, Bools: append([]bool(nil), raw.AsBool()...)}, nil
	default:
		return nil, fmt.Errorf("unsupported result dtype %s", raw.DType())
	}
}
