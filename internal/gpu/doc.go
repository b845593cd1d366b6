//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu traces lens-flare ghosts on the GPU.
//
// It leverages the gogpu/wgpu Pure Go WebGPU implementation (zero CGO)
// through its HAL layer. The kernel in shaders/raytrace.wgsl mirrors the
// CPU kernel in internal/raytrace and is compiled to SPIR-V with
// gogpu/naga when the pipeline is created.
//
// # Dispatch
//
// A frame is a single compute dispatch of ceil(T/8) x ceil(T/8) x ghosts
// workgroups. Inputs live in four storage buffers in bind group 0
// and a uniform block in bind group 1:
//
//	group 0 binding 0  interfaces     array<LensInterface>  read
//	group 0 binding 1  ghosts         array<Ghost>          read
//	group 0 binding 2  results        array<TraceVertex>    read_write
//	group 0 binding 3  aperture_mask  array<f32>            read
//	group 1 binding 0  params         Params                uniform
//
// The buffers and bind groups persist across frames for the same lens,
// ghost list and grid; each frame rewrites only the mask and Params.
//
// The results are copied into a mappable staging buffer in the same
// command buffer. Dispatch returns as soon as the work is submitted; the
// fence polls the queue for completion and decodes the staging buffer.
//
// # Fallback
//
// The tracer never renders wrong results silently. Whenever it cannot
// run a job (no device, a mask it cannot upload, a device error) it
// returns an error wrapping lensflare.ErrFallbackToCPU.
//
// The nogpu build tag removes the package.
package gpu
