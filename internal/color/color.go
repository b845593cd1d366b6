// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package color provides linear HDR colour helpers and sRGB encoding.
package color

import "math"

// RGB is a linear, unbounded colour.
type RGB struct {
	R, G, B float32
}

// Gray returns an RGB with all channels set to v.
func Gray(v float32) RGB { return RGB{v, v, v} }

// Add returns c + o.
func (c RGB) Add(o RGB) RGB { return RGB{c.R + o.R, c.G + o.G, c.B + o.B} }

// Mul returns the channel-wise product of c and o.
func (c RGB) Mul(o RGB) RGB { return RGB{c.R * o.R, c.G * o.G, c.B * o.B} }

// Scale returns c * s.
func (c RGB) Scale(s float32) RGB { return RGB{c.R * s, c.G * s, c.B * s} }

// Luminance returns the Rec. 709 luminance of c.
func (c RGB) Luminance() float32 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Hue returns a saturated colour for hue h. The cycle has period 1 and
// the channels are offset by 0, 0.33 and 0.66 of a turn.
func Hue(h float32) RGB {
	ch := func(k float64) float32 {
		return float32(0.5 + 0.5*math.Sin((float64(h)+k)*2*math.Pi))
	}
	return RGB{ch(0), ch(0.33), ch(0.66)}
}

// Blackbody approximates the colour of a black body at the given
// temperature in kelvin, normalized so the brightest channel is 1.
// Valid between 1000 K and 40000 K.
func Blackbody(kelvin float32) RGB {
	t := math.Max(1000, math.Min(40000, float64(kelvin))) / 100

	var r, g, b float64
	if t <= 66 {
		r = 255
		g = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		r = 329.698727446 * math.Pow(t-60, -0.1332047592)
		g = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}
	switch {
	case t >= 66:
		b = 255
	case t <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	clamp := func(v float64) float64 { return math.Max(0, math.Min(255, v)) }
	r, g, b = clamp(r), clamp(g), clamp(b)
	m := math.Max(r, math.Max(g, b))
	return RGB{float32(r / m), float32(g / m), float32(b / m)}
}
