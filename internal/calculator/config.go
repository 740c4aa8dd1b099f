package calculator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/graph"
	"github.com/born-ml/mlip/internal/metrics"
	"github.com/born-ml/mlip/internal/units"
)

// Config configures a Calculator. Zero values defer to what the artifact
// declares, then to the model type's defaults.
type Config struct {
	// ModelType is "geometry" or "md". It is fixed for the calculator's
	// lifetime.
	ModelType string `yaml:"model_type" validate:"required,oneof=geometry md"`

	// Exactly one of ArtifactPath and Artifact must be set.
	ArtifactPath string      `yaml:"artifact_path"`
	Artifact     graph.Graph `yaml:"-" validate:"-"`

	Device    string `yaml:"device" validate:"omitempty,oneof=auto cpu webgpu"`
	Precision string `yaml:"precision" validate:"omitempty,oneof=float32 float64"`

	// EnergyUnit and LengthUnit override the artifact's unit metadata.
	EnergyUnit string `yaml:"energy_unit"`
	LengthUnit string `yaml:"length_unit"`

	Cutoff       float64 `yaml:"cutoff" validate:"gte=0"` // Å, md only
	MaxNeighbors int     `yaml:"max_neighbors" validate:"gte=0"`

	Charge int `yaml:"charge"`
	Spin   int `yaml:"spin" validate:"gte=0"`

	// StrictVariant rejects artifacts whose embedded model type differs
	// from ModelType. Defaults to true.
	StrictVariant *bool `yaml:"strict_variant"`

	Logger  *zap.Logger        `yaml:"-" validate:"-"`
	Metrics *metrics.Collector `yaml:"-" validate:"-"`
}

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c without touching the artifact. Every failure is a
// ConfigurationError.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return calcerr.Wrap(calcerr.KindConfiguration, "config", formatValidationError(err))
	}

	hasPath := strings.TrimSpace(c.ArtifactPath) != ""
	switch {
	case hasPath && c.Artifact != nil:
		return calcerr.New(calcerr.KindConfiguration, "config", "artifact_path and an artifact object are mutually exclusive")
	case !hasPath && c.Artifact == nil:
		return calcerr.New(calcerr.KindConfiguration, "config", "one of artifact_path or an artifact object is required")
	}

	if c.EnergyUnit != "" {
		if _, err := units.EnergyFactor(c.EnergyUnit); err != nil {
			return calcerr.Wrap(calcerr.KindConfiguration, "config", err)
		}
	}
	if c.LengthUnit != "" {
		if _, err := units.LengthFactor(c.LengthUnit); err != nil {
			return calcerr.Wrap(calcerr.KindConfiguration, "config", err)
		}
	}
	return nil
}

// Strict reports the effective StrictVariant setting.
func (c *Config) Strict() bool {
	return c.StrictVariant == nil || *c.StrictVariant
}

// LoadConfig reads a YAML configuration file. Unknown keys are rejected.
// The result is not validated; New does that.
func LoadConfig(path string) (*Config, error) {
	//nolint:gosec // G304: config path is user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindConfiguration, "config", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, calcerr.Wrap(calcerr.KindConfiguration, "config", fmt.Errorf("parse: %w", err))
	}
	return &cfg, nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got %q)", field, e.Param(), e.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s (got %v)", field, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
