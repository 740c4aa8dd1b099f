// Copyright 2026 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package artifact packs compiled potentials into .mlip containers.
//
// A .mlip file holds an ONNX graph together with the model type, unit
// system, neighbor cutoff and species vocabulary the graph was compiled
// for. Calculators read these facts instead of relying on configuration.
//
// Example:
//
//	onnxBytes, _ := os.ReadFile("model.onnx")
//	if err := artifact.Verify(onnxBytes); err != nil {
//	    log.Fatal(err)
//	}
//	h := artifact.Header{ModelType: "md", EnergyUnit: "eV", Cutoff: 5}
//	if err := artifact.PackFile("model.mlip", h, onnxBytes); err != nil {
//	    log.Fatal(err)
//	}
package artifact

import (
	"fmt"
	"io"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/onnx"

	"github.com/born-ml/mlip/internal/artifact"
)

// Header describes a packed graph.
type Header = artifact.Header

// Artifact is a decoded container.
type Artifact = artifact.Artifact

// ReaderOptions configures reading.
type ReaderOptions = artifact.ReaderOptions

// Species encodings.
const (
	EncodingAtomicNumber = artifact.EncodingAtomicNumber
	EncodingIndex        = artifact.EncodingIndex
)

// Container errors.
var (
	ErrInvalidMagic       = artifact.ErrInvalidMagic
	ErrUnsupportedVersion = artifact.ErrUnsupportedVersion
	ErrChecksumMismatch   = artifact.ErrChecksumMismatch
	ErrTruncated          = artifact.ErrTruncated
)

// Pack writes a container holding graphBytes to w.
func Pack(w io.Writer, h Header, graphBytes []byte) error {
	return artifact.Write(w, h, graphBytes)
}

// PackFile writes a container holding graphBytes to path.
func PackFile(path string, h Header, graphBytes []byte) error {
	return artifact.WriteFile(path, h, graphBytes)
}

// Inspect reads and validates the container at path.
func Inspect(path string, opts ...ReaderOptions) (*Artifact, error) {
	return artifact.ReadFile(path, opts...)
}

// Read reads and validates a container from r.
func Read(r io.Reader, opts ...ReaderOptions) (*Artifact, error) {
	return artifact.Read(r, opts...)
}

// IsContainer reports whether data starts like a .mlip container.
func IsContainer(data []byte) bool {
	return artifact.IsContainer(data)
}

// Verify checks that graphBytes is an ONNX model the runtime can load.
func Verify(graphBytes []byte) error {
	if _, err := onnx.LoadFromBytes(graphBytes, cpu.New()); err != nil {
		return fmt.Errorf("graph is not loadable: %w", err)
	}
	return nil
}
