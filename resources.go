// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import "github.com/gogpu/lensflare/internal/raytrace"

// Resource identifies a buffer or image a pass reads or writes.
type Resource int

// Frame resources.
const (
	ResourceParameters Resource = iota
	ResourceApertureMask
	ResourceStarburst
	ResourceRayTrace
	ResourceHDR
	ResourceDisplay
)

var resourceNames = [...]string{
	ResourceParameters:   "parameters",
	ResourceApertureMask: "aperture-mask",
	ResourceStarburst:    "starburst",
	ResourceRayTrace:     "raytrace-results",
	ResourceHDR:          "hdr",
	ResourceDisplay:      "display",
}

func (r Resource) String() string {
	if r >= 0 && int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return "unknown"
}

// Binding slots of the ray-trace program. Storage buffers live in group 0,
// the parameter uniform in group 1.
const (
	SlotInterfaces   = raytrace.SlotInterfaces
	SlotGhosts       = raytrace.SlotGhosts
	SlotResults      = raytrace.SlotResults
	SlotApertureMask = raytrace.SlotApertureMask
	SlotParameters   = raytrace.SlotParameters
)
