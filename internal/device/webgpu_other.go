//go:build !windows

package device

import "errors"

var errWebGPUUnsupported = errors.New("webgpu backend is only built on windows")

func webgpuAvailable() bool {
	return false
}

func openWebGPU() (*Device, error) {
	return nil, errWebGPUUnsupported
}
