package artifact

import "time"

// Format constants.
const (
	MagicBytes      = "MLIP"
	FormatVersion   = 1
	FixedHeaderSize = 64   // Fixed binary header (0x40 bytes)
	HeaderAlignment = 64   // Graph bytes start on a 64-byte boundary
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Graph formats.
const (
	GraphFormatONNX = "onnx"
)

// Species encodings.
const (
	// EncodingAtomicNumber feeds atomic numbers to the graph unchanged.
	EncodingAtomicNumber = "atomic_number"
	// EncodingIndex feeds the position of each species in Header.Species.
	EncodingIndex = "index"
)

// Flags for the .mlip format.
const (
	FlagHasSpecies  uint32 = 1 << 0 // bit 0: species vocabulary declared
	FlagHasMetadata uint32 = 1 << 1 // bit 1: custom metadata included
)

// Header is the JSON header of a .mlip file. Zero values mean "not declared";
// the calculator then falls back to its configuration and variant defaults.
type Header struct {
	FormatVersion   int               `json:"format_version"`             // Version of the .mlip format
	ModelType       string            `json:"model_type"`                 // "geometry" or "md"
	GraphFormat     string            `json:"graph_format"`               // Serialization of the graph bytes
	CreatedAt       time.Time         `json:"created_at"`                 // When the container was written
	Producer        string            `json:"producer,omitempty"`         // Tool that compiled the graph
	Precision       string            `json:"precision,omitempty"`        // "float32" or "float64"
	EnergyUnit      string            `json:"energy_unit,omitempty"`      // Model energy unit, e.g. "Hartree"
	LengthUnit      string            `json:"length_unit,omitempty"`      // Model length unit, e.g. "Bohr"
	Cutoff          float64           `json:"cutoff,omitempty"`           // Neighbor cutoff in Å
	MaxNeighbors    int               `json:"max_neighbors,omitempty"`    // Neighbor cap per atom
	Species         []int             `json:"species,omitempty"`          // Atomic numbers the model knows, ascending
	SpeciesEncoding string            `json:"species_encoding,omitempty"` // EncodingAtomicNumber or EncodingIndex
	Metadata        map[string]string `json:"metadata,omitempty"`         // Free-form metadata
}

// Artifact is a decoded container.
type Artifact struct {
	Header   Header
	Flags    uint32
	Checksum [ChecksumSize]byte
	Graph    []byte
}
