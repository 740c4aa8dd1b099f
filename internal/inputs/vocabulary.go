package inputs

import (
	"fmt"

	"github.com/born-ml/mlip/internal/artifact"
	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/structure"
)

// Vocabulary maps atomic numbers to the species ids a graph was trained on.
type Vocabulary struct {
	species  []int
	index    map[int]int
	encoding string
}

// NewVocabulary builds a vocabulary. An empty species list accepts every
// element from 1 to structure.MaxAtomicNumber. encoding is
// artifact.EncodingAtomicNumber (the default when empty) or
// artifact.EncodingIndex.
func NewVocabulary(species []int, encoding string) (*Vocabulary, error) {
	if encoding == "" {
		encoding = artifact.EncodingAtomicNumber
	}
	switch encoding {
	case artifact.EncodingAtomicNumber:
	case artifact.EncodingIndex:
		if len(species) == 0 {
			return nil, fmt.Errorf("index encoding needs a species list")
		}
	default:
		return nil, fmt.Errorf("unknown species encoding %q", encoding)
	}

	v := &Vocabulary{encoding: encoding}
	if len(species) > 0 {
		v.species = append([]int(nil), species...)
		v.index = make(map[int]int, len(species))
		for i, z := range species {
			if z < 1 || z > structure.MaxAtomicNumber {
				return nil, fmt.Errorf("atomic number %d out of range", z)
			}
			if _, dup := v.index[z]; dup {
				return nil, fmt.Errorf("atomic number %d listed twice", z)
			}
			v.index[z] = i
		}
	}
	return v, nil
}

// Species returns the declared atomic numbers, or nil when every element is
// accepted.
func (v *Vocabulary) Species() []int {
	return append([]int(nil), v.species...)
}

// Encoding returns the species encoding.
func (v *Vocabulary) Encoding() string {
	return v.encoding
}

// Contains reports whether z is a known species.
func (v *Vocabulary) Contains(z int) bool {
	if v.index == nil {
		return z >= 1 && z <= structure.MaxAtomicNumber
	}
	_, ok := v.index[z]
	return ok
}

// Encode maps atomic numbers to graph ids. Every unknown atom is reported in
// one *calcerr.SpeciesError.
func (v *Vocabulary) Encode(numbers []int) ([]int64, error) {
	out := make([]int64, len(numbers))
	var bad *calcerr.SpeciesError
	for i, z := range numbers {
		if !v.Contains(z) {
			if bad == nil {
				bad = &calcerr.SpeciesError{Known: v.Species()}
			}
			bad.Atoms = append(bad.Atoms, i)
			bad.Numbers = append(bad.Numbers, z)
			continue
		}
		if v.encoding == artifact.EncodingIndex {
			out[i] = int64(v.index[z])
		} else {
			out[i] = int64(z)
		}
	}
	if bad != nil {
		return nil, bad
	}
	return out, nil
}
