// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// pointerReach is how far the light swings off axis at the window edge.
const pointerReach = 0.2

// LightFromPointer maps a pointer position in [-1, 1]^2, +Y down, to the
// direction of a light travelling into the lens.
func LightFromPointer(nx, ny float32) mgl32.Vec3 {
	return mgl32.Vec3{nx * pointerReach, -ny * pointerReach, -1}.Normalize()
}

// PointerToNDC converts a pixel position in a w x h window to [-1, 1]^2,
// +Y down.
func PointerToNDC(x, y, w, h int) (float32, float32) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return 2*(float32(x)+0.5)/float32(w) - 1, 2*(float32(y)+0.5)/float32(h) - 1
}

// Flicker is the slow brightness wobble applied to the starburst.
func Flicker(t float32) float32 {
	s := func(v float32) float32 { return float32(math.Sin(float64(v))) }
	return (1 - (s(5*t)+1)*0.025) * (1 - (s(t)+1)*0.0125)
}

// starburstFade dims the starburst as the light moves sideways off axis.
func starburstFade(light mgl32.Vec3) float32 {
	return 1 - max(0, min(1, float32(math.Abs(float64(light.X()*9)))))
}

// StarburstTemperature is the colour temperature of the starburst tint.
const StarburstTemperature = 6000
