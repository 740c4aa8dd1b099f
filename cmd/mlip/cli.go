package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/mlip/artifact"
	"github.com/born-ml/mlip/calculator"
	"github.com/born-ml/mlip/internal/neighbor"
	"github.com/born-ml/mlip/internal/parallel"
	"github.com/born-ml/mlip/structure"
)

// newCLIApp creates the CLI application with all commands. Results are
// written to out as JSON.
func newCLIApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "mlip",
		Usage:   "Run compiled interatomic potentials",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log debug output to stderr"},
		},
		Commands: []*cli.Command{
			infoCmd(),
			packCmd(),
			evalCmd(),
			neighborsCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// infoCmd prints the header of a .mlip container.
func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show the header of a .mlip container",
		ArgsUsage: "<model.mlip>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "skip-checksum", Usage: "Do not verify the graph checksum"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("info: expected one container path", 2)
			}
			a, err := artifact.Inspect(c.Args().First(), artifact.ReaderOptions{
				SkipChecksumValidation: c.Bool("skip-checksum"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, infoOutput{
				Header:    a.Header,
				GraphSize: len(a.Graph),
				Checksum:  fmt.Sprintf("%x", a.Checksum),
			})
		},
	}
}

type infoOutput struct {
	Header    artifact.Header `json:"header"`
	GraphSize int             `json:"graph_size"`
	Checksum  string          `json:"sha256"`
}

// packCmd wraps an ONNX graph into a .mlip container.
func packCmd() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Pack an ONNX graph and its metadata into a .mlip container",
		ArgsUsage: "<model.onnx>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Output .mlip path"},
			&cli.StringFlag{Name: "model-type", Aliases: []string{"t"}, Required: true, Usage: "Model type: geometry|md"},
			&cli.StringFlag{Name: "precision", Usage: "Graph precision: float32|float64"},
			&cli.StringFlag{Name: "energy-unit", Usage: "Energy unit of the graph outputs"},
			&cli.StringFlag{Name: "length-unit", Usage: "Length unit of the graph inputs"},
			&cli.Float64Flag{Name: "cutoff", Usage: "Neighbor cutoff in Å (md)"},
			&cli.IntFlag{Name: "max-neighbors", Usage: "Neighbor cap per atom (md)"},
			&cli.StringFlag{Name: "species", Usage: "Comma-separated element symbols or atomic numbers"},
			&cli.StringFlag{Name: "encoding", Usage: "Species encoding: atomic_number|index"},
			&cli.StringFlag{Name: "producer", Usage: "Tool that compiled the graph"},
			&cli.BoolFlag{Name: "no-verify", Usage: "Skip loading the graph before packing"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("pack: expected one ONNX path", 2)
			}
			//nolint:gosec // G304: graph path is user input
			graphBytes, err := os.ReadFile(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("no-verify") {
				if err := artifact.Verify(graphBytes); err != nil {
					return outputError(err)
				}
			}

			species, err := parseSpeciesList(c.String("species"), c.String("encoding") != artifact.EncodingIndex)
			if err != nil {
				return outputError(err)
			}
			h := artifact.Header{
				ModelType:       c.String("model-type"),
				Producer:        c.String("producer"),
				Precision:       c.String("precision"),
				EnergyUnit:      c.String("energy-unit"),
				LengthUnit:      c.String("length-unit"),
				Cutoff:          c.Float64("cutoff"),
				MaxNeighbors:    c.Int("max-neighbors"),
				Species:         species,
				SpeciesEncoding: c.String("encoding"),
			}
			if err := artifact.PackFile(c.String("out"), h, graphBytes); err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{
				"path":       c.String("out"),
				"model_type": h.ModelType,
				"graph_size": len(graphBytes),
			})
		},
	}
}

// evalCmd evaluates structures with a calculator.
func evalCmd() *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "Evaluate structures and print energy, forces and stress",
		ArgsUsage: "<structure> [structure...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML calculator configuration"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Artifact path (overrides config)"},
			&cli.StringFlag{Name: "model-type", Aliases: []string{"t"}, Usage: "Model type: geometry|md (overrides config)"},
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "Device: auto|cpu|webgpu (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("eval: expected at least one structure", 2)
			}

			cfg := &calculator.Config{}
			if path := c.String("config"); path != "" {
				loaded, err := calculator.LoadConfig(path)
				if err != nil {
					return outputError(err)
				}
				cfg = loaded
			}
			if v := c.String("model"); v != "" {
				cfg.ArtifactPath = v
			}
			if v := c.String("model-type"); v != "" {
				cfg.ModelType = v
			}
			if v := c.String("device"); v != "" {
				cfg.Device = v
			}

			logger, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = logger.Sync() }()
			cfg.Logger = logger

			calc, err := calculator.New(*cfg)
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = calc.Close() }()

			results := make([]evalOutput, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				s, err := structure.ReadFile(path)
				if err != nil {
					return outputError(err)
				}
				res, err := evaluate(calc, s)
				if err != nil {
					return outputError(fmt.Errorf("%s: %w", path, err))
				}
				res.Path = path
				results = append(results, res)
			}
			return outputJSON(c.App.Writer, results)
		},
	}
}

type evalOutput struct {
	Path     string        `json:"path"`
	Energy   float64       `json:"energy"`
	Forces   [][3]float64  `json:"forces"`
	Stress   *[6]float64   `json:"stress,omitempty"`
	Energies []float64     `json:"energies,omitempty"`
	Info     evalModelInfo `json:"model"`
}

type evalModelInfo struct {
	ModelType string `json:"model_type"`
	Device    string `json:"device,omitempty"`
	Precision string `json:"precision"`
}

func evaluate(calc *calculator.Calculator, s *structure.Structure) (evalOutput, error) {
	var out evalOutput
	if err := calc.Calculate(s); err != nil {
		return out, err
	}
	res := calc.Results()

	var err error
	if out.Energy, err = res.Energy(); err != nil {
		return out, err
	}
	if out.Forces, err = res.Forces(); err != nil {
		return out, err
	}
	if res.Has(calculator.Stress) {
		stress, err := res.Stress()
		if err != nil {
			return out, err
		}
		out.Stress = &stress
	}
	if res.Has(calculator.Energies) {
		v, err := res.Get(calculator.Energies)
		if err != nil {
			return out, err
		}
		out.Energies = v.Data
	}

	info := calc.Info()
	out.Info = evalModelInfo{
		ModelType: info.ModelType.String(),
		Device:    info.Device,
		Precision: info.Precision,
	}
	return out, nil
}

// neighborsCmd prints neighbor list statistics for a structure.
func neighborsCmd() *cli.Command {
	return &cli.Command{
		Name:      "neighbors",
		Usage:     "Build the neighbor list of a structure",
		ArgsUsage: "<structure>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "cutoff", Value: neighbor.DefaultCutoff, Usage: "Cutoff radius in Å"},
			&cli.IntFlag{Name: "max-neighbors", Value: neighbor.DefaultMaxNeighbors, Usage: "Neighbor cap per atom (0 for none)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("neighbors: expected one structure path", 2)
			}
			s, err := structure.ReadFile(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			list, err := neighbor.Build(s, neighbor.Options{
				Cutoff:       c.Float64("cutoff"),
				MaxNeighbors: c.Int("max-neighbors"),
				Parallel:     parallel.Default(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, neighborsOutput{
				Atoms:     s.Len(),
				Pairs:     list.Len(),
				PerCenter: list.PerCenter(s.Len()),
			})
		},
	}
}

type neighborsOutput struct {
	Atoms     int   `json:"atoms"`
	Pairs     int   `json:"pairs"`
	PerCenter []int `json:"per_center"`
}

// parseSpeciesList parses "H,C,O" or "1,6,8" into atomic numbers, sorted
// ascending when sorted is set. Index encodings keep the given order.
func parseSpeciesList(s string, sorted bool) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		z, err := strconv.Atoi(f)
		if err != nil {
			if z, err = structure.AtomicNumber(f); err != nil {
				return nil, err
			}
		}
		out = append(out, z)
	}
	if sorted {
		sort.Ints(out)
	}
	return out, nil
}

// newLogger returns a console logger on stderr, at debug level if verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err for the CLI.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}
