//go:build windows

package device

import (
	"fmt"

	"github.com/born-ml/born/backend/webgpu"
)

func webgpuAvailable() bool {
	return webgpu.IsAvailable()
}

func openWebGPU() (*Device, error) {
	gpu, err := webgpu.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize webgpu: %w", err)
	}
	return &Device{name: WebGPU, backend: gpu, release: gpu.Release}, nil
}
