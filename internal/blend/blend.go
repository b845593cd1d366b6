// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package blend applies fixed-function blend states to float RGBA pixels.
//
// A State computes out = src*SrcFactor + dst*DstFactor per channel, the
// way a GPU output-merger stage does. HDR targets are unclamped, so the
// additive states can accumulate values well above 1.
package blend

// Factor is a blend factor.
type Factor uint8

// Blend factors.
const (
	Zero Factor = iota
	One
	SrcAlpha
	OneMinusSrcAlpha
	DstAlpha
)

// String returns the factor name.
func (f Factor) String() string {
	switch f {
	case Zero:
		return "zero"
	case One:
		return "one"
	case SrcAlpha:
		return "src-alpha"
	case OneMinusSrcAlpha:
		return "one-minus-src-alpha"
	case DstAlpha:
		return "dst-alpha"
	default:
		return "unknown"
	}
}

// State is a colour blend state. Alpha is blended with the same factors.
type State struct {
	Src Factor
	Dst Factor
}

// Common states.
var (
	// Additive adds the source weighted by its alpha: dst += src*a.
	Additive = State{Src: SrcAlpha, Dst: One}

	// Add adds the source unweighted: dst += src.
	Add = State{Src: One, Dst: One}

	// Over is straight-alpha source-over.
	Over = State{Src: SrcAlpha, Dst: OneMinusSrcAlpha}

	// Replace overwrites the destination.
	Replace = State{Src: One, Dst: Zero}
)

func weight(f Factor, sa, da float32) float32 {
	switch f {
	case One:
		return 1
	case SrcAlpha:
		return sa
	case OneMinusSrcAlpha:
		return 1 - sa
	case DstAlpha:
		return da
	default:
		return 0
	}
}

// Pixel blends the colour (r, g, b, a) into dst[0:4].
func (s State) Pixel(dst []float32, r, g, b, a float32) {
	_ = dst[3]
	sw := weight(s.Src, a, dst[3])
	dw := weight(s.Dst, a, dst[3])
	dst[0] = r*sw + dst[0]*dw
	dst[1] = g*sw + dst[1]*dw
	dst[2] = b*sw + dst[2]*dw
	dst[3] = a*sw + dst[3]*dw
}

// Span blends one colour into every pixel of dst, a packed RGBA row.
func (s State) Span(dst []float32, r, g, b, a float32) {
	for i := 0; i+3 < len(dst); i += 4 {
		s.Pixel(dst[i:i+4], r, g, b, a)
	}
}

// AddRGB adds an RGB triple scaled by k into dst[0:3], leaving alpha.
// It is the hot path of texture compositing.
func AddRGB(dst []float32, rgb [3]float32, k float32) {
	_ = dst[2]
	dst[0] += rgb[0] * k
	dst[1] += rgb[1] * k
	dst[2] += rgb[2] * k
}
