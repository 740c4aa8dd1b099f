package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() Header {
	return Header{
		ModelType:    "md",
		Producer:     "test",
		Precision:    "float32",
		EnergyUnit:   "eV",
		LengthUnit:   "Angstrom",
		Cutoff:       5.0,
		MaxNeighbors: 100,
		Species:      []int{1, 6, 8},
		Metadata:     map[string]string{"dataset": "qm9"},
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func encode(t *testing.T, h Header, g []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, h, g))
	return buf.Bytes()
}

func TestWriteReadRoundTrip(t *testing.T) {
	graphBytes := []byte("onnx-protobuf-bytes")
	data := encode(t, testHeader(), graphBytes)

	assert.True(t, IsContainer(data))
	assert.Zero(t, (len(data)-len(graphBytes))%HeaderAlignment, "graph must start on an aligned offset")

	a, err := ReadBytes(data)
	require.NoError(t, err)

	assert.Equal(t, graphBytes, a.Graph)
	assert.Equal(t, FormatVersion, a.Header.FormatVersion)
	assert.Equal(t, GraphFormatONNX, a.Header.GraphFormat)
	assert.Equal(t, "md", a.Header.ModelType)
	assert.Equal(t, 5.0, a.Header.Cutoff)
	assert.Equal(t, []int{1, 6, 8}, a.Header.Species)
	assert.Equal(t, "qm9", a.Header.Metadata["dataset"])
	assert.Equal(t, FlagHasSpecies|FlagHasMetadata, a.Flags)
	assert.Equal(t, ComputeChecksum(graphBytes), a.Checksum)
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.mlip")
	h := Header{ModelType: "geometry"}
	require.NoError(t, WriteFile(path, h, []byte{1, 2, 3}))

	a, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, a.Graph)
	assert.Equal(t, "geometry", a.Header.ModelType)
	assert.Zero(t, a.Flags)
	assert.False(t, a.Header.CreatedAt.IsZero())

	a, err = Read(bytes.NewReader(encode(t, h, []byte{4})))
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, a.Graph)
}

func TestReadChecksumMismatch(t *testing.T) {
	data := encode(t, testHeader(), []byte("graph"))
	data[len(data)-1] ^= 0xFF

	_, err := ReadBytes(data)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	_, err = ReadBytes(data, ReaderOptions{SkipChecksumValidation: true})
	assert.NoError(t, err)
}

func TestReadCorrupt(t *testing.T) {
	good := encode(t, testHeader(), []byte("graph"))

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{
			name:   "bad magic",
			mutate: func(b []byte) []byte { b[0] = 'X'; return b },
			want:   ErrInvalidMagic,
		},
		{
			name:   "raw onnx",
			mutate: func([]byte) []byte { return []byte{0x08, 0x07, 0x12, 0x04} },
			want:   ErrInvalidMagic,
		},
		{
			name: "unsupported version",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[4:8], 99)
				return b
			},
			want: ErrUnsupportedVersion,
		},
		{
			name:   "short fixed header",
			mutate: func(b []byte) []byte { return b[:20] },
			want:   ErrTruncated,
		},
		{
			name:   "short graph",
			mutate: func(b []byte) []byte { return b[:len(b)-2] },
			want:   ErrTruncated,
		},
		{
			name: "huge header",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint64(b[16:24], MaxHeaderSize+1)
				return b
			},
			want: ErrHeaderTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), good...))
			_, err := ReadBytes(data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Header)
		field  string
	}{
		{"valid", func(*Header) {}, ""},
		{"unknown model type", func(h *Header) { h.ModelType = "dft" }, "model_type"},
		{"missing model type", func(h *Header) { h.ModelType = "" }, "model_type"},
		{"graph format", func(h *Header) { h.GraphFormat = "torchscript" }, "graph_format"},
		{"precision", func(h *Header) { h.Precision = "float16" }, "precision"},
		{"energy unit", func(h *Header) { h.EnergyUnit = "erg" }, "energy_unit"},
		{"length unit", func(h *Header) { h.LengthUnit = "furlong" }, "length_unit"},
		{"negative cutoff", func(h *Header) { h.Cutoff = -1 }, "cutoff"},
		{"negative cap", func(h *Header) { h.MaxNeighbors = -1 }, "max_neighbors"},
		{"species order", func(h *Header) { h.Species = []int{6, 1} }, "species"},
		{"duplicate species", func(h *Header) { h.Species = []int{1, 1} }, "species"},
		{"species range", func(h *Header) { h.Species = []int{0} }, "species"},
		{"index keeps list order", func(h *Header) {
			h.Species = []int{8, 1}
			h.SpeciesEncoding = EncodingIndex
		}, ""},
		{"index duplicate species", func(h *Header) {
			h.Species = []int{8, 1, 8}
			h.SpeciesEncoding = EncodingIndex
		}, "species"},
		{"atomic number encoding order", func(h *Header) {
			h.Species = []int{8, 1}
			h.SpeciesEncoding = EncodingAtomicNumber
		}, "species"},
		{"encoding", func(h *Header) { h.SpeciesEncoding = "onehot" }, "species_encoding"},
		{"index without species", func(h *Header) {
			h.Species = nil
			h.SpeciesEncoding = EncodingIndex
		}, "species_encoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHeader()
			h.FormatVersion = FormatVersion
			h.GraphFormat = GraphFormatONNX
			tt.mutate(&h)

			err := ValidateHeader(&h)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWriteRejectsInvalid(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Header{ModelType: "md"}, nil), "empty graph")
	assert.Error(t, Write(&buf, Header{ModelType: "qm"}, []byte{1}))
	assert.Zero(t, buf.Len(), "nothing is written on validation failure")
}
