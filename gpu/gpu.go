//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu registers the GPU ray-trace accelerator.
//
// Import this package to trace ghosts with a wgpu/hal compute shader
// instead of the CPU worker pool. Sessions in "auto" or "gpu" accelerator
// mode pick it up.
//
// If GPU initialization fails (no Vulkan adapter, software renderer only)
// the registration is skipped with a warning and sessions in "auto" mode
// trace on the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/lensflare/gpu" // enable GPU ray tracing
package gpu

import (
	"github.com/gogpu/lensflare"
	gpuimpl "github.com/gogpu/lensflare/internal/gpu"
)

func init() {
	if err := lensflare.RegisterAccelerator(&gpuimpl.RayTracer{}); err != nil {
		lensflare.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU
// device from an external provider (e.g., gogpu). This avoids creating a
// separate GPU instance.
//
// The provider should be a gpucontext.DeviceProvider whose device and
// queue expose the HAL types, or implement HalDevice() any and
// HalQueue() any directly.
func SetDeviceProvider(provider any) error {
	return lensflare.SetAcceleratorDeviceProvider(provider)
}
