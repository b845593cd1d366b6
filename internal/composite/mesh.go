// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import "github.com/gogpu/lensflare/internal/color"

// HueStep is the hue advance between consecutive ghosts.
const HueStep = 0.137

// GhostColor returns the tint of ghost i. It depends only on i.
func GhostColor(i int) color.RGB {
	return color.Hue(HueStep * float32(i))
}

// MeshIndices triangulates a t x t vertex grid into two triangles per
// cell, 6*(t-1)^2 indices in all. Vertex (row, col) has index row*t+col.
func MeshIndices(t int) []uint32 {
	if t < 2 {
		return []uint32{}
	}
	idx := make([]uint32, 0, 6*(t-1)*(t-1))
	for row := range t - 1 {
		for col := range t - 1 {
			i0 := uint32(row*t + col) //nolint:gosec // grid is small
			i1 := i0 + 1
			i2 := i0 + uint32(t) //nolint:gosec // grid is small
			i3 := i2 + 1
			idx = append(idx, i0, i1, i2, i1, i3, i2)
		}
	}
	return idx
}
