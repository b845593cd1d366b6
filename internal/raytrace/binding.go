// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raytrace

// Binding slots shared by every device implementation of the kernel.
// Storage buffers are in bind group 0, the parameter block in group 1.
const (
	SlotInterfaces   = 0
	SlotGhosts       = 1
	SlotResults      = 2
	SlotApertureMask = 3
	SlotParameters   = 0
)

// Packed record sizes in float32 values.
const (
	// InterfaceFloats is (center.xyz, radius), (n0, n1, n2, aperture),
	// (coatingLambda, flat, pos, width).
	InterfaceFloats = 12

	// GhostFloats is (bounce1, bounce2).
	GhostFloats = 2
)
