package graph

import (
	"fmt"
	"sort"
)

// DType is the element type of a Tensor.
type DType int

// Supported element types.
const (
	Float32 DType = iota + 1
	Float64
	Int64
	Bool
)

// String returns the dtype name used in artifact headers.
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// IsFloat reports whether d is a floating point type.
func (d DType) IsFloat() bool {
	return d == Float32 || d == Float64
}

// ParsePrecision parses a floating point dtype name.
func ParsePrecision(s string) (DType, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	default:
		return 0, fmt.Errorf("unsupported precision %q (want float32 or float64)", s)
	}
}

// Tensor is a host-side dense tensor in row-major order.
//
// Exactly one payload slice is used, selected by DType: Floats for
// Float32/Float64, Ints for Int64, Bools for Bool. Float32 tensors keep their
// values in float64 storage, already rounded to float32.
type Tensor struct {
	DType  DType
	Shape  []int
	Floats []float64
	Ints   []int64
	Bools  []bool
}

// NewFloat creates a floating point tensor, rounding data to dtype.
// data is copied.
func NewFloat(dtype DType, shape []int, data []float64) *Tensor {
	out := make([]float64, len(data))
	if dtype == Float32 {
		for i, v := range data {
			out[i] = float64(float32(v))
		}
	} else {
		copy(out, data)
	}
	return &Tensor{DType: dtype, Shape: append([]int(nil), shape...), Floats: out}
}

// NewInt64 creates an int64 tensor. data is not copied.
func NewInt64(shape []int, data []int64) *Tensor {
	return &Tensor{DType: Int64, Shape: append([]int(nil), shape...), Ints: data}
}

// NewBool creates a bool tensor. data is not copied.
func NewBool(shape []int, data []bool) *Tensor {
	return &Tensor{DType: Bool, Shape: append([]int(nil), shape...), Bools: data}
}

// ScalarInt64 creates a rank-0 int64 tensor.
func ScalarInt64(v int64) *Tensor {
	return &Tensor{DType: Int64, Shape: []int{}, Ints: []int64{v}}
}

// NumElements returns the product of the shape; 1 for scalars.
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Len returns the length of the active payload.
func (t *Tensor) Len() int {
	switch t.DType {
	case Float32, Float64:
		return len(t.Floats)
	case Int64:
		return len(t.Ints)
	case Bool:
		return len(t.Bools)
	default:
		return 0
	}
}

// Validate checks that the payload matches the shape.
func (t *Tensor) Validate() error {
	for i, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("negative dimension %d at axis %d", d, i)
		}
	}
	if t.DType < Float32 || t.DType > Bool {
		return fmt.Errorf("unknown dtype %d", t.DType)
	}
	if t.Len() != t.NumElements() {
		return fmt.Errorf("shape %v needs %d %s elements, have %d", t.Shape, t.NumElements(), t.DType, t.Len())
	}
	return nil
}

// ShapeIs reports whether t has exactly the given shape.
func (t *Tensor) ShapeIs(shape ...int) bool {
	if len(t.Shape) != len(shape) {
		return false
	}
	for i := range shape {
		if t.Shape[i] != shape[i] {
			return false
		}
	}
	return true
}

// AsFloat64 returns the values of a numeric tensor as float64.
func (t *Tensor) AsFloat64() ([]float64, error) {
	switch t.DType {
	case Float32, Float64:
		return t.Floats, nil
	case Int64:
		out := make([]float64, len(t.Ints))
		for i, v := range t.Ints {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s tensor is not numeric", t.DType)
	}
}

// TensorSet maps graph argument or result names to tensors.
type TensorSet map[string]*Tensor

// Names returns the sorted tensor names.
func (s TensorSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate validates every tensor in the set.
func (s TensorSet) Validate() error {
	for _, name := range s.Names() {
		if s[name] == nil {
			return fmt.Errorf("tensor %q is nil", name)
		}
		if err := s[name].Validate(); err != nil {
			return fmt.Errorf("tensor %q: %w", name, err)
		}
	}
	return nil
}
