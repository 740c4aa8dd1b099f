// Package model loads compiled potentials and binds them to a device.
//
// A model is supplied either as a path (a .mlip container or a bare ONNX
// file) or as an already loaded graph.Graph. Either way the result is a
// Handle in inference-only mode that lives as long as the calculator.
package model

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/born/onnx"
	"go.uber.org/zap"

	"github.com/born-ml/mlip/internal/artifact"
	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/device"
	"github.com/born-ml/mlip/internal/graph"
	"github.com/born-ml/mlip/internal/variant"
)

// Metadata keys read from an ONNX model's metadata_props.
const (
	MetaModelType       = "mlip.model_type"
	MetaPrecision       = "mlip.precision"
	MetaEnergyUnit      = "mlip.energy_unit"
	MetaLengthUnit      = "mlip.length_unit"
	MetaCutoff          = "mlip.cutoff"
	MetaMaxNeighbors    = "mlip.max_neighbors"
	MetaSpecies         = "mlip.species"
	MetaSpeciesEncoding = "mlip.species_encoding"
)

// Sources a model can come from.
const (
	SourceObject = "object"
	SourceONNX   = "onnx"
	SourceMLIP   = "mlip"
)

const op = "load"

// Options selects the artifact to load. Exactly one of Path and Object must
// be set.
type Options struct {
	Path   string      // .mlip container or raw ONNX file
	Object graph.Graph // Already loaded graph
	Device string      // device.Auto when empty
	Logger *zap.Logger // zap.NewNop when nil
}

// Metadata is what the artifact declares about itself. Zero values mean
// "not declared".
type Metadata struct {
	ModelType       string
	Precision       string
	EnergyUnit      string
	LengthUnit      string
	Cutoff          float64
	MaxNeighbors    int
	Species         []int
	SpeciesEncoding string
	Source          string
}

// Handle is a loaded, device-bound, inference-only graph.
type Handle struct {
	Graph    graph.Graph
	Metadata Metadata
	device   *device.Device
}

// Load resolves opts into a Handle.
func Load(opts Options) (*Handle, error) {
	hasPath := strings.TrimSpace(opts.Path) != ""
	hasObject := opts.Object != nil
	switch {
	case hasPath && hasObject:
		return nil, calcerr.New(calcerr.KindConfiguration, op, "both an artifact path and an artifact object were supplied")
	case !hasPath && !hasObject:
		return nil, calcerr.New(calcerr.KindConfiguration, op, "neither an artifact path nor an artifact object was supplied")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if hasObject {
		return fromObject(opts.Object), nil
	}

	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindLoad, op, err)
	}

	var (
		graphBytes []byte
		meta       Metadata
	)
	if artifact.IsContainer(data) {
		a, err := artifact.ReadBytes(data)
		if err != nil {
			return nil, calcerr.Wrap(calcerr.KindLoad, op, fmt.Errorf("%s: %w", opts.Path, err))
		}
		graphBytes = a.Graph
		meta = metadataFromHeader(&a.Header)
	} else {
		graphBytes = data
		meta.Source = SourceONNX
	}

	dev, err := device.Open(opts.Device)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindDevice, op, err)
	}

	m, err := onnx.LoadFromBytes(graphBytes, dev.Backend())
	if err != nil {
		_ = dev.Close()
		return nil, calcerr.Wrap(calcerr.KindLoad, op, fmt.Errorf("%s: %w", opts.Path, err))
	}

	if meta.Source == SourceONNX {
		meta, err = metadataFromProps(m.Metadata())
		if err != nil {
			_ = dev.Close()
			return nil, calcerr.Wrap(calcerr.KindLoad, op, fmt.Errorf("%s: %w", opts.Path, err))
		}
	}
	if meta.Precision == graph.Float64.String() && !dev.SupportsFloat64() {
		_ = dev.Close()
		return nil, calcerr.New(calcerr.KindDevice, op, "device %s cannot run a float64 graph", dev.Name())
	}

	logger.Debug("artifact loaded",
		zap.String("path", opts.Path),
		zap.String("source", meta.Source),
		zap.String("device", dev.Name()),
		zap.Int64("opset", m.OpsetVersion()),
		zap.Strings("inputs", m.InputNames()),
		zap.Strings("outputs", m.OutputNames()),
	)

	return &Handle{
		Graph:    graph.NewONNX(m, dev.Kind()),
		Metadata: meta,
		device:   dev,
	}, nil
}

func fromObject(g graph.Graph) *Handle {
	if im, ok := g.(graph.InferenceModer); ok {
		im.SetInferenceMode()
	}
	meta := Metadata{Source: SourceObject}
	if d, ok := g.(graph.Describer); ok {
		// Malformed props on a caller-built object are ignored.
		if m, err := metadataFromProps(d.Metadata()); err == nil {
			meta = m
			meta.Source = SourceObject
		}
	}
	return &Handle{Graph: g, Metadata: meta}
}

// DeviceName returns the device the graph runs on, or "" for objects.
func (h *Handle) DeviceName() string {
	if h.device == nil {
		return ""
	}
	return h.device.Name()
}

// SupportsFloat64 reports whether the bound device computes in double
// precision. Objects manage their own placement and always report true.
func (h *Handle) SupportsFloat64() bool {
	return h.device == nil || h.device.SupportsFloat64()
}

// Close releases the device and, if it implements io.Closer, the graph.
func (h *Handle) Close() error {
	var first error
	if c, ok := h.Graph.(io.Closer); ok {
		first = c.Close()
	}
	if h.device != nil {
		if err := h.device.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func metadataFromHeader(h *artifact.Header) Metadata {
	return Metadata{
		ModelType:       h.ModelType,
		Precision:       h.Precision,
		EnergyUnit:      h.EnergyUnit,
		LengthUnit:      h.LengthUnit,
		Cutoff:          h.Cutoff,
		MaxNeighbors:    h.MaxNeighbors,
		Species:         append([]int(nil), h.Species...),
		SpeciesEncoding: h.SpeciesEncoding,
		Source:          SourceMLIP,
	}
}

// metadataFromProps reads mlip.* keys. The result is checked with the same
// rules as a container header, except that model_type may be absent.
func metadataFromProps(props map[string]string) (Metadata, error) {
	meta := Metadata{
		ModelType:       props[MetaModelType],
		Precision:       props[MetaPrecision],
		EnergyUnit:      props[MetaEnergyUnit],
		LengthUnit:      props[MetaLengthUnit],
		SpeciesEncoding: props[MetaSpeciesEncoding],
		Source:          SourceONNX,
	}
	if v := props[MetaCutoff]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Metadata{}, fmt.Errorf("%s: %w", MetaCutoff, err)
		}
		meta.Cutoff = f
	}
	if v := props[MetaMaxNeighbors]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Metadata{}, fmt.Errorf("%s: %w", MetaMaxNeighbors, err)
		}
		meta.MaxNeighbors = n
	}
	if v := props[MetaSpecies]; v != "" {
		species, err := parseSpecies(v)
		if err != nil {
			return Metadata{}, fmt.Errorf("%s: %w", MetaSpecies, err)
		}
		meta.Species = species
	}

	h := artifact.Header{
		FormatVersion:   artifact.FormatVersion,
		ModelType:       meta.ModelType,
		GraphFormat:     artifact.GraphFormatONNX,
		Precision:       meta.Precision,
		EnergyUnit:      meta.EnergyUnit,
		LengthUnit:      meta.LengthUnit,
		Cutoff:          meta.Cutoff,
		MaxNeighbors:    meta.MaxNeighbors,
		Species:         meta.Species,
		SpeciesEncoding: meta.SpeciesEncoding,
	}
	if h.ModelType == "" {
		h.ModelType = variant.MD.String()
	}
	if err := artifact.ValidateHeader(&h); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// parseSpecies parses a comma separated list such as "1,6,7,8".
func parseSpecies(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		z, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, nil
}
