package artifact

import (
	"fmt"
	"math"

	"github.com/born-ml/mlip/internal/graph"
	"github.com/born-ml/mlip/internal/structure"
	"github.com/born-ml/mlip/internal/units"
	"github.com/born-ml/mlip/internal/variant"
)

// Validation limits.
const (
	MaxHeaderSize   = 16 * 1024 * 1024 // 16MB
	MaxMetadataSize = 1024 * 1024      // 1MB of keys and values
)

// ValidateHeader checks every declared field of h.
func ValidateHeader(h *Header) error {
	if h.FormatVersion != FormatVersion {
		return &ValidationError{Field: "format_version", Details: fmt.Sprintf("got %d, want %d", h.FormatVersion, FormatVersion)}
	}
	if _, err := variant.Parse(h.ModelType); err != nil {
		return &ValidationError{Field: "model_type", Details: err.Error()}
	}
	if h.GraphFormat != GraphFormatONNX {
		return &ValidationError{Field: "graph_format", Details: fmt.Sprintf("unsupported graph format %q", h.GraphFormat)}
	}
	if h.Precision != "" {
		if _, err := graph.ParsePrecision(h.Precision); err != nil {
			return &ValidationError{Field: "precision", Details: err.Error()}
		}
	}
	if h.EnergyUnit != "" {
		if _, err := units.EnergyFactor(h.EnergyUnit); err != nil {
			return &ValidationError{Field: "energy_unit", Details: err.Error()}
		}
	}
	if h.LengthUnit != "" {
		if _, err := units.LengthFactor(h.LengthUnit); err != nil {
			return &ValidationError{Field: "length_unit", Details: err.Error()}
		}
	}
	if h.Cutoff < 0 || math.IsNaN(h.Cutoff) || math.IsInf(h.Cutoff, 0) {
		return &ValidationError{Field: "cutoff", Details: fmt.Sprintf("%v is not a finite non-negative distance", h.Cutoff)}
	}
	if h.MaxNeighbors < 0 {
		return &ValidationError{Field: "max_neighbors", Details: fmt.Sprintf("%d is negative", h.MaxNeighbors)}
	}
	if err := validateSpecies(h.Species, h.SpeciesEncoding == EncodingIndex); err != nil {
		return err
	}
	switch h.SpeciesEncoding {
	case "", EncodingAtomicNumber:
	case EncodingIndex:
		if len(h.Species) == 0 {
			return &ValidationError{Field: "species_encoding", Details: "index encoding needs a species list"}
		}
	default:
		return &ValidationError{Field: "species_encoding", Details: fmt.Sprintf("unknown encoding %q", h.SpeciesEncoding)}
	}

	size := 0
	for k, v := range h.Metadata {
		size += len(k) + len(v)
	}
	if size > MaxMetadataSize {
		return &ValidationError{Field: "metadata", Details: fmt.Sprintf("%d bytes, max %d", size, MaxMetadataSize)}
	}
	return nil
}

// validateSpecies checks the species list. Under index encoding the list
// order defines the indices, so any order of distinct numbers is accepted;
// otherwise the list must be strictly ascending.
func validateSpecies(species []int, indexed bool) error {
	seen := make(map[int]bool, len(species))
	prev := 0
	for _, z := range species {
		if z < 1 || z > structure.MaxAtomicNumber {
			return &ValidationError{Field: "species", Details: fmt.Sprintf("atomic number %d out of range", z)}
		}
		if seen[z] {
			return &ValidationError{Field: "species", Details: fmt.Sprintf("atomic number %d listed twice", z)}
		}
		if !indexed && z < prev {
			return &ValidationError{Field: "species", Details: "atomic numbers must be strictly ascending"}
		}
		seen[z] = true
		prev = z
	}
	return nil
}
