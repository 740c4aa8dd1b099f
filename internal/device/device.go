// Package device opens the execution device a graph is bound to.
//
// The default ("auto" or empty) prefers the first available accelerator and
// falls back to the CPU backend.
package device

import (
	"fmt"
	"strings"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
)

// Device names accepted in configuration.
const (
	Auto   = "auto"
	CPU    = "cpu"
	WebGPU = "webgpu"
)

// Device is an opened execution backend.
type Device struct {
	name    string
	backend tensor.Backend
	release func()
}

// Open opens the named device. An empty name means Auto.
func Open(name string) (*Device, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Auto:
		if webgpuAvailable() {
			if d, err := openWebGPU(); err == nil {
				return d, nil
			}
		}
		return openCPU(), nil
	case CPU:
		return openCPU(), nil
	case WebGPU:
		return openWebGPU()
	default:
		return nil, fmt.Errorf("unknown device %q (want %s, %s or %s)", name, Auto, CPU, WebGPU)
	}
}

func openCPU() *Device {
	return &Device{name: CPU, backend: cpu.New()}
}

// Name returns the canonical device name.
func (d *Device) Name() string {
	return d.name
}

// Backend returns the Born backend tensors are computed on.
func (d *Device) Backend() tensor.Backend {
	return d.backend
}

// Kind returns the Born device type.
func (d *Device) Kind() tensor.Device {
	return d.backend.Device()
}

// SupportsFloat64 reports whether the device computes in double precision.
// WebGPU shaders are float32 only.
func (d *Device) SupportsFloat64() bool {
	return d.name != WebGPU
}

// Close releases device resources. It is safe to call more than once.
func (d *Device) Close() error {
	if d.release != nil {
		d.release()
		d.release = nil
	}
	return nil
}
