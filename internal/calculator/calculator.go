// Package calculator drives compiled interatomic potentials.
//
// A Calculator owns one loaded graph and turns structures into energies,
// forces and, for md models with a 3D cell, stresses:
//
//	structure → inputs.Adapter → infer.Executor → outputs.Translator → Results
//
// A Calculator is not safe for concurrent use. The loaded graph is never
// modified and may be shared by several calculators built from the same
// object.
package calculator

import (
	"time"

	"go.uber.org/zap"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/graph"
	"github.com/born-ml/mlip/internal/infer"
	"github.com/born-ml/mlip/internal/inputs"
	"github.com/born-ml/mlip/internal/metrics"
	"github.com/born-ml/mlip/internal/model"
	"github.com/born-ml/mlip/internal/neighbor"
	"github.com/born-ml/mlip/internal/outputs"
	"github.com/born-ml/mlip/internal/parallel"
	"github.com/born-ml/mlip/internal/structure"
	"github.com/born-ml/mlip/internal/units"
	"github.com/born-ml/mlip/internal/variant"
)

// Interface is what composition wrappers need from a calculator: compute a
// structure, then expose its named results.
type Interface interface {
	Calculate(s *structure.Structure) error
	Results() *outputs.Results
}

var _ Interface = (*Calculator)(nil)

// Info describes a calculator after every default has been resolved.
type Info struct {
	ModelType       variant.Type
	Source          string
	Device          string
	Precision       string
	Units           units.System
	Cutoff          float64 // Å, md only
	MaxNeighbors    int     // md only
	Species         []int   // nil when every element is accepted
	SpeciesEncoding string
	Charge          int
	Spin            int
}

// Calculator evaluates one compiled potential.
type Calculator struct {
	info       Info
	handle     *model.Handle
	adapter    *inputs.Adapter
	executor   *infer.Executor
	translator *outputs.Translator
	logger     *zap.Logger
	metrics    *metrics.Collector

	results *outputs.Results
	last    *structure.Structure
}

// New validates cfg, loads the artifact and prepares the pipeline.
// Configuration problems are reported before anything is loaded.
func New(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	vt, err := variant.Parse(cfg.ModelType)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindConfiguration, "config", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("model_type", vt.String()))

	handle, err := model.Load(model.Options{
		Path:   cfg.ArtifactPath,
		Object: cfg.Artifact,
		Device: cfg.Device,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	c, err := build(cfg, vt, handle, logger)
	if err != nil {
		_ = handle.Close()
		return nil, err
	}

	logger.Info("calculator ready",
		zap.String("source", c.info.Source),
		zap.String("device", c.info.Device),
		zap.String("precision", c.info.Precision),
		zap.Stringer("units", c.info.Units),
		zap.Float64("cutoff", c.info.Cutoff),
		zap.Int("max_neighbors", c.info.MaxNeighbors),
		zap.Ints("species", c.info.Species),
	)
	return c, nil
}

func build(cfg Config, vt variant.Type, handle *model.Handle, logger *zap.Logger) (*Calculator, error) {
	meta := handle.Metadata

	if meta.ModelType != "" && meta.ModelType != vt.String() {
		if cfg.Strict() {
			return nil, calcerr.New(calcerr.KindConfiguration, "config",
				"model_type %q does not match the artifact's %q", vt, meta.ModelType)
		}
		logger.Warn("model_type differs from the artifact",
			zap.String("artifact_model_type", meta.ModelType))
	}

	precision := meta.Precision
	switch {
	case cfg.Precision != "" && precision != "" && cfg.Precision != precision:
		return nil, calcerr.New(calcerr.KindConfiguration, "config",
			"precision %s does not match the artifact's %s", cfg.Precision, precision)
	case precision == "":
		precision = firstNonEmpty(cfg.Precision, graph.Float32.String())
	}
	dtype, err := graph.ParsePrecision(precision)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindConfiguration, "config", err)
	}
	if dtype == graph.Float64 && !handle.SupportsFloat64() {
		return nil, calcerr.New(calcerr.KindDevice, "config", "device %s cannot run float64", handle.DeviceName())
	}

	defaults := vt.DefaultUnits()
	sys := units.System{
		Energy: firstNonEmpty(cfg.EnergyUnit, meta.EnergyUnit, defaults.Energy),
		Length: firstNonEmpty(cfg.LengthUnit, meta.LengthUnit, defaults.Length),
	}
	conv, err := sys.Conversion()
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindConfiguration, "config", err)
	}

	vocab, err := inputs.NewVocabulary(meta.Species, meta.SpeciesEncoding)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindConfiguration, "config", err)
	}

	info := Info{
		ModelType:       vt,
		Source:          meta.Source,
		Device:          handle.DeviceName(),
		Precision:       precision,
		Units:           sys,
		Species:         vocab.Species(),
		SpeciesEncoding: vocab.Encoding(),
		Charge:          cfg.Charge,
		Spin:            cfg.Spin,
	}
	if vt.NeedsNeighbors() {
		info.Cutoff = firstPositive(cfg.Cutoff, meta.Cutoff, neighbor.DefaultCutoff)
		info.MaxNeighbors = firstPositive(cfg.MaxNeighbors, meta.MaxNeighbors, neighbor.DefaultMaxNeighbors)
		if meta.Cutoff > 0 && info.Cutoff != meta.Cutoff {
			logger.Warn("cutoff overrides the artifact's",
				zap.Float64("cutoff", info.Cutoff), zap.Float64("artifact_cutoff", meta.Cutoff))
		}
	}

	adapter, err := inputs.New(inputs.Config{
		Variant:    vt,
		Precision:  dtype,
		Length:     conv.Length,
		Vocabulary: vocab,
		Charge:     cfg.Charge,
		Spin:       cfg.Spin,
		Neighbors: neighbor.Options{
			Cutoff:       info.Cutoff,
			MaxNeighbors: info.MaxNeighbors,
			Parallel:     parallel.Default(),
		},
	})
	if err != nil {
		return nil, err
	}

	return &Calculator{
		info:       info,
		handle:     handle,
		adapter:    adapter,
		executor:   infer.New(handle.Graph),
		translator: outputs.NewTranslator(vt, conv),
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Calculate evaluates s and replaces the cached results. On failure the
// cache is cleared and the error is returned.
func (c *Calculator) Calculate(s *structure.Structure) error {
	start := time.Now()
	res, pairs, err := c.evaluate(s)
	elapsed := time.Since(start)

	atoms := 0
	if s != nil {
		atoms = s.Len()
	}
	if !c.info.ModelType.NeedsNeighbors() {
		pairs = -1
	}
	c.metrics.ObserveEvaluation(c.info.ModelType.String(), atoms, pairs, elapsed, err)

	if err != nil {
		c.results = nil
		c.last = nil
		return err
	}
	c.results = res
	c.last = s.Clone()

	c.logger.Debug("structure evaluated",
		zap.Int("atoms", atoms),
		zap.Int("pairs", pairs),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func (c *Calculator) evaluate(s *structure.Structure) (*outputs.Results, int, error) {
	adapted, err := c.adapter.Adapt(s)
	if err != nil {
		return nil, 0, err
	}
	raw, err := c.executor.Run(adapted.Inputs)
	if err != nil {
		return nil, adapted.Pairs, err
	}
	res, err := c.translator.Translate(raw, s)
	if err != nil {
		return nil, adapted.Pairs, err
	}
	return res, adapted.Pairs, nil
}

// Results returns the results of the last successful Calculate, or nil.
func (c *Calculator) Results() *outputs.Results {
	return c.results
}

// GetProperty returns the named property for s, calculating only if s
// differs from the last calculated structure. A nil s reads the cache.
// Properties the model type cannot produce fail without calculating.
func (c *Calculator) GetProperty(name string, s *structure.Structure) (outputs.Value, error) {
	if !c.implements(name) {
		return outputs.Value{}, calcerr.New(calcerr.KindUnsupportedProperty, "get",
			"%s models do not produce %q", c.info.ModelType, name)
	}
	if s != nil && (c.last == nil || !s.Equal(c.last)) {
		if err := c.Calculate(s); err != nil {
			return outputs.Value{}, err
		}
	}
	if c.results == nil {
		return outputs.Value{}, calcerr.ErrNotCalculated
	}
	return c.results.Get(name)
}

// GetPotentialEnergy returns the energy of s in eV.
func (c *Calculator) GetPotentialEnergy(s *structure.Structure) (float64, error) {
	v, err := c.GetProperty(outputs.Energy, s)
	if err != nil {
		return 0, err
	}
	return v.Data[0], nil
}

// GetForces returns the forces on the atoms of s in eV/Å.
func (c *Calculator) GetForces(s *structure.Structure) ([][3]float64, error) {
	if _, err := c.GetProperty(outputs.Forces, s); err != nil {
		return nil, err
	}
	return c.results.Forces()
}

// GetStress returns the Voigt stress of s in eV/Å³.
func (c *Calculator) GetStress(s *structure.Structure) ([6]float64, error) {
	if _, err := c.GetProperty(outputs.Stress, s); err != nil {
		return [6]float64{}, err
	}
	return c.results.Stress()
}

// ImplementedProperties lists what the model type can produce.
func (c *Calculator) ImplementedProperties() []string {
	return outputs.Implemented(c.info.ModelType)
}

// ModelType returns the fixed model variant.
func (c *Calculator) ModelType() variant.Type {
	return c.info.ModelType
}

// Info returns the resolved settings.
func (c *Calculator) Info() Info {
	info := c.info
	info.Species = append([]int(nil), c.info.Species...)
	return info
}

// Close releases the artifact. The calculator must not be used afterwards.
func (c *Calculator) Close() error {
	c.results = nil
	c.last = nil
	return c.handle.Close()
}

func (c *Calculator) implements(name string) bool {
	for _, p := range outputs.Implemented(c.info.ModelType) {
		if p == name {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive[T int | float64](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
