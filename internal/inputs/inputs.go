// Package inputs translates structures into the tensor sets graphs expect.
//
// The layout depends on the model variant:
//
//	geometry  at_no, coord, charge, spin (+ cell, pbc when a cell is set)
//	md        the geometry set plus edge_index and shifts
//
// Coordinates, cells and shifts are converted to the model's length unit and
// rounded to its precision. Adapting never modifies the structure.
package inputs

import (
	"fmt"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/graph"
	"github.com/born-ml/mlip/internal/neighbor"
	"github.com/born-ml/mlip/internal/structure"
	"github.com/born-ml/mlip/internal/variant"
)

const op = "adapt"

// Config fixes how an Adapter translates structures.
type Config struct {
	Variant    variant.Type
	Precision  graph.DType      // Float32 or Float64
	Length     float64          // Å per model length unit, 1 when zero
	Vocabulary *Vocabulary      // All elements by atomic number when nil
	Charge     int              // Total charge
	Spin       int              // Unpaired electrons
	Neighbors  neighbor.Options // md only, Å
}

// Adapter builds per-call input sets. It is stateless after construction.
type Adapter struct {
	cfg Config
}

// Adapted is the result of one translation.
type Adapted struct {
	Inputs graph.TensorSet
	Pairs  int // Neighbor pairs; 0 for geometry
}

// New validates cfg and returns an Adapter.
func New(cfg Config) (*Adapter, error) {
	if !cfg.Variant.Valid() {
		return nil, calcerr.New(calcerr.KindConfiguration, op, "unknown model type %q", cfg.Variant)
	}
	if !cfg.Precision.IsFloat() {
		return nil, calcerr.New(calcerr.KindConfiguration, op, "precision %s is not a float type", cfg.Precision)
	}
	if cfg.Length == 0 {
		cfg.Length = 1
	}
	if cfg.Length < 0 {
		return nil, calcerr.New(calcerr.KindConfiguration, op, "length factor %v is negative", cfg.Length)
	}
	if cfg.Vocabulary == nil {
		v, err := NewVocabulary(nil, "")
		if err != nil {
			return nil, calcerr.Wrap(calcerr.KindConfiguration, op, err)
		}
		cfg.Vocabulary = v
	}
	if cfg.Spin < 0 {
		return nil, calcerr.New(calcerr.KindConfiguration, op, "spin %d is negative", cfg.Spin)
	}
	if cfg.Variant.NeedsNeighbors() {
		if !(cfg.Neighbors.Cutoff > 0) {
			return nil, calcerr.New(calcerr.KindConfiguration, op, "md models need a positive cutoff, got %v", cfg.Neighbors.Cutoff)
		}
		if cfg.Neighbors.MaxNeighbors < 0 {
			return nil, calcerr.New(calcerr.KindConfiguration, op, "max neighbors %d is negative", cfg.Neighbors.MaxNeighbors)
		}
	}
	return &Adapter{cfg: cfg}, nil
}

// Adapt translates s. Malformed structures fail with the structure package's
// errors; atoms outside the vocabulary fail with an UnsupportedSpecies error.
func (a *Adapter) Adapt(s *structure.Structure) (*Adapted, error) {
	if s == nil {
		return nil, fmt.Errorf("invalid structure: %w", structure.ErrEmpty)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid structure: %w", err)
	}

	ids, err := a.cfg.Vocabulary.Encode(s.Numbers)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindUnsupportedSpecies, op, err)
	}

	n := s.Len()
	set := graph.TensorSet{
		graph.InputAtomicNumbers: graph.NewInt64([]int{n}, ids),
		graph.InputCoordinates:   a.lengths([]int{n, 3}, s.Positions),
		graph.InputCharge:        graph.ScalarInt64(int64(a.cfg.Charge)),
		graph.InputSpin:          graph.ScalarInt64(int64(a.cfg.Spin)),
	}
	if s.Cell != nil {
		set[graph.InputCell] = a.lengths([]int{3, 3}, s.Cell[:])
		set[graph.InputPBC] = graph.NewBool([]int{3}, []bool{s.PBC[0], s.PBC[1], s.PBC[2]})
	}

	out := &Adapted{Inputs: set}
	if a.cfg.Variant.NeedsNeighbors() {
		list, err := neighbor.Build(s, a.cfg.Neighbors)
		if err != nil {
			return nil, fmt.Errorf("neighbor list: %w", err)
		}
		e := list.Len()
		edges := make([]int64, 2*e)
		for k := 0; k < e; k++ {
			edges[k] = int64(list.Centers[k])
			edges[e+k] = int64(list.Neighbors[k])
		}
		set[graph.InputEdgeIndex] = graph.NewInt64([]int{2, e}, edges)
		set[graph.InputShifts] = a.lengths([]int{e, 3}, list.Shifts)
		out.Pairs = e
	}
	return out, nil
}

// lengths flattens Å vectors into a float tensor in the model length unit.
func (a *Adapter) lengths(shape []int, rows [][3]float64) *graph.Tensor {
	data := make([]float64, 0, 3*len(rows))
	for _, r := range rows {
		data = append(data, r[0]/a.cfg.Length, r[1]/a.cfg.Length, r[2]/a.cfg.Length)
	}
	return graph.NewFloat(a.cfg.Precision, shape, data)
}
