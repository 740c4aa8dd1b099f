// Package neighbor builds radius-graph neighbor lists over periodic images.
//
// A pair (i, j, offset) is in the list when atom j, translated by the
// lattice vector combination offset, lies strictly closer than the cutoff to
// atom i. An atom pairs with its own periodic images but never with itself.
package neighbor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/born-ml/mlip/internal/parallel"
	"github.com/born-ml/mlip/internal/structure"
)

// Defaults used when an artifact declares neither value.
const (
	DefaultCutoff       = 5.0 // Å
	DefaultMaxNeighbors = 100
)

// ErrInvalidCutoff is returned for a cutoff that is not a positive finite
// distance.
var ErrInvalidCutoff = errors.New("cutoff must be positive and finite")

// Options configures Build.
type Options struct {
	Cutoff       float64 // Å, must be > 0
	MaxNeighbors int     // Pairs kept per center atom; 0 keeps all

	// Parallel spreads centers over goroutines. The zero value searches
	// sequentially. The list is identical either way.
	Parallel parallel.Config
}

// List is a directed neighbor list. All slices are index-aligned.
type List struct {
	Centers   []int
	Neighbors []int
	Offsets   [][3]int     // Image of the neighbor in lattice vector units
	Shifts    [][3]float64 // Offsets times the cell, Å
	Distances []float64    // |r_neighbor + shift - r_center|, Å
}

// Len returns the number of pairs.
func (l *List) Len() int {
	return len(l.Centers)
}

// PerCenter returns the number of pairs each of n atoms is the center of.
func (l *List) PerCenter(n int) []int {
	counts := make([]int, n)
	for _, c := range l.Centers {
		counts[c]++
	}
	return counts
}

type pair struct {
	neighbor int
	offset   [3]int
	shift    r3.Vec
	dist     float64
}

// Build computes the neighbor list of s. Pairs are grouped by ascending
// center and ordered by distance within a center, ties broken by neighbor
// index and then offset. When MaxNeighbors is positive only that many
// nearest pairs are kept per center.
func Build(s *structure.Structure, opts Options) (*List, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !(opts.Cutoff > 0) || math.IsInf(opts.Cutoff, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCutoff, opts.Cutoff)
	}
	if opts.MaxNeighbors < 0 {
		return nil, fmt.Errorf("max neighbors must not be negative, got %d", opts.MaxNeighbors)
	}

	images, err := imageRanges(s, opts.Cutoff)
	if err != nil {
		return nil, err
	}

	var lattice [3]r3.Vec
	if s.Cell != nil {
		for k, v := range s.Cell {
			lattice[k] = vec(v)
		}
	}

	var translations []pair
	for a := -images[0]; a <= images[0]; a++ {
		for b := -images[1]; b <= images[1]; b++ {
			for c := -images[2]; c <= images[2]; c++ {
				t := r3.Add(r3.Add(r3.Scale(float64(a), lattice[0]), r3.Scale(float64(b), lattice[1])), r3.Scale(float64(c), lattice[2]))
				translations = append(translations, pair{offset: [3]int{a, b, c}, shift: t})
			}
		}
	}

	n := s.Len()
	found := make([][]pair, n)
	parallel.For(n, opts.Parallel, func(i int) {
		found[i] = search(s, i, translations, opts)
	})

	total := 0
	for _, ps := range found {
		total += len(ps)
	}
	list := &List{
		Centers:   make([]int, 0, total),
		Neighbors: make([]int, 0, total),
		Offsets:   make([][3]int, 0, total),
		Shifts:    make([][3]float64, 0, total),
		Distances: make([]float64, 0, total),
	}
	for i, ps := range found {
		for _, p := range ps {
			list.Centers = append(list.Centers, i)
			list.Neighbors = append(list.Neighbors, p.neighbor)
			list.Offsets = append(list.Offsets, p.offset)
			list.Shifts = append(list.Shifts, [3]float64{p.shift.X, p.shift.Y, p.shift.Z})
			list.Distances = append(list.Distances, p.dist)
		}
	}
	return list, nil
}

// search returns the sorted, capped pairs centered on atom i.
func search(s *structure.Structure, i int, translations []pair, opts Options) []pair {
	ri := vec(s.Positions[i])
	var candidates []pair
	for j := range s.Positions {
		rj := vec(s.Positions[j])
		for _, t := range translations {
			if i == j && t.offset == [3]int{} {
				continue
			}
			d := r3.Norm(r3.Sub(r3.Add(rj, t.shift), ri))
			if d < opts.Cutoff {
				candidates = append(candidates, pair{neighbor: j, offset: t.offset, shift: t.shift, dist: d})
			}
		}
	}

	sort.Slice(candidates, func(x, y int) bool {
		return less(candidates[x], candidates[y])
	})
	if opts.MaxNeighbors > 0 && len(candidates) > opts.MaxNeighbors {
		candidates = candidates[:opts.MaxNeighbors]
	}
	return candidates
}

func less(a, b pair) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	if a.neighbor != b.neighbor {
		return a.neighbor < b.neighbor
	}
	for k := range a.offset {
		if a.offset[k] != b.offset[k] {
			return a.offset[k] < b.offset[k]
		}
	}
	return false
}

// imageRanges returns, per axis, the largest |offset| that can bring any
// atom within cutoff of any other. Non-periodic axes get 0.
//
// For a periodic axis k, let u be the unit normal of lattice vector k
// against the other periodic vectors and h the height of lattice vector k
// along u. Any translation with offset n along k moves atoms by exactly n*h
// along u, so offsets beyond (cutoff + spread)/h can be skipped, where
// spread is the extent of the positions projected on u.
func imageRanges(s *structure.Structure, cutoff float64) ([3]int, error) {
	var out [3]int
	if s.Cell == nil {
		return out, nil
	}

	for k := 0; k < 3; k++ {
		if !s.PBC[k] {
			continue
		}
		ak := vec(s.Cell[k])
		var others []r3.Vec
		for m := 0; m < 3; m++ {
			if m != k && s.PBC[m] {
				others = append(others, vec(s.Cell[m]))
			}
		}

		var u r3.Vec
		switch len(others) {
		case 0:
			u = ak
		case 1:
			b := others[0]
			u = r3.Sub(ak, r3.Scale(r3.Dot(ak, b)/r3.Norm2(b), b))
		default:
			u = r3.Cross(others[0], others[1])
			if r3.Dot(u, ak) < 0 {
				u = r3.Scale(-1, u)
			}
		}
		un := r3.Norm(u)
		if un == 0 {
			return out, fmt.Errorf("%w: periodic lattice vectors are linearly dependent", structure.ErrSingularCell)
		}
		u = r3.Scale(1/un, u)

		h := r3.Dot(ak, u)
		if h <= 1e-12*r3.Norm(ak) {
			return out, fmt.Errorf("%w: periodic lattice vectors are linearly dependent", structure.ErrSingularCell)
		}

		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range s.Positions {
			x := r3.Dot(vec(p), u)
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		out[k] = int(math.Ceil((cutoff + hi - lo) / h))
	}
	return out, nil
}

func vec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
