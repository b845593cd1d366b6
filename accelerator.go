// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"errors"
	"sync"

	"github.com/gogpu/lensflare/internal/raytrace"
)

// ErrFallbackToCPU is returned by an accelerator that cannot run a job.
// The session then traces the frame on the CPU.
var ErrFallbackToCPU = errors.New("lensflare: falling back to CPU ray tracing")

// Accelerator is an optional ray-trace device such as a GPU.
//
// Accelerators live in this module; users opt in with a blank import:
//
//	import _ "github.com/gogpu/lensflare/gpu"
type Accelerator interface {
	raytrace.Tracer

	// Init acquires device resources. Called once during registration.
	Init() error
}

// DeviceProviderAware is implemented by accelerators that can reuse a GPU
// device owned by the host application instead of creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator installs a as the process-wide accelerator.
//
// Init is called first; on failure nothing is registered and the error is
// returned. A previously registered accelerator is closed.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("lensflare: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	Logger().Info("lensflare: accelerator registered", "name", a.Name())
	return nil
}

// RegisteredAccelerator returns the registered accelerator, or nil.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	defer accelMu.RUnlock()
	return accel
}

// SetAcceleratorDeviceProvider hands a host GPU device to the registered
// accelerator. It is a no-op when no accelerator is registered or the
// accelerator cannot share devices.
//
// The provider should implement HalDevice() any and HalQueue() any
// returning wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
