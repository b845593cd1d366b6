// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tonemap compresses an HDR target into an 8-bit sRGB image.
package tonemap

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/lensflare/internal/color"
	"github.com/gogpu/lensflare/internal/composite"
	"github.com/gogpu/lensflare/internal/parallel"
)

// ErrSizeMismatch is returned when source and destination differ in size.
var ErrSizeMismatch = errors.New("tonemap: size mismatch")

// Curve maps a non-negative linear value to [0, 1]. Curves are monotonic
// and map 0 to 0.
type Curve interface {
	Name() string
	Map(x float32) float32
}

// ACES is the Narkowicz fit of the ACES filmic curve.
type ACES struct{}

// Name returns "aces".
func (ACES) Name() string { return "aces" }

// Map applies x(ax+b) / (x(cx+d)+e), clamped to [0, 1].
func (ACES) Map(x float32) float32 {
	const a, b, c, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	x = max(0, x)
	return max(0, min(1, x*(a*x+b)/(x*(c*x+d)+e)))
}

// Reinhard is x / (1 + x).
type Reinhard struct{}

// Name returns "reinhard".
func (Reinhard) Name() string { return "reinhard" }

// Map applies x / (1 + x).
func (Reinhard) Map(x float32) float32 {
	x = max(0, x)
	return x / (1 + x)
}

// Clamp only saturates.
type Clamp struct{}

// Name returns "clamp".
func (Clamp) Name() string { return "clamp" }

// Map clamps x to [0, 1].
func (Clamp) Map(x float32) float32 { return max(0, min(1, x)) }

// ByName returns the curve called name.
func ByName(name string) (Curve, error) {
	switch name {
	case "aces", "":
		return ACES{}, nil
	case "reinhard":
		return Reinhard{}, nil
	case "clamp":
		return Clamp{}, nil
	default:
		return nil, fmt.Errorf("tonemap: unknown curve %q", name)
	}
}

// Operator tone maps HDR targets.
type Operator struct {
	Curve    Curve
	Exposure float32
}

// Apply writes src, scaled by the exposure and mapped through the curve,
// into dst as sRGB. Alpha is written opaque. Rows are processed in
// parallel on pool.
func (o Operator) Apply(pool *parallel.Pool, dst *image.RGBA, src *composite.Target) error {
	b := dst.Bounds()
	if b.Dx() != src.Width || b.Dy() != src.Height {
		return fmt.Errorf("%w: target %dx%d, image %dx%d",
			ErrSizeMismatch, src.Width, src.Height, b.Dx(), b.Dy())
	}
	curve := o.Curve
	if curve == nil {
		curve = ACES{}
	}
	exposure := o.Exposure

	return pool.Run(src.Height, 16, func(y int) {
		in := src.Row(y)
		out := dst.Pix[y*dst.Stride : y*dst.Stride+4*src.Width]
		for x := range src.Width {
			i := 4 * x
			out[i] = color.EncodeSRGB8(curve.Map(in[i] * exposure))
			out[i+1] = color.EncodeSRGB8(curve.Map(in[i+1] * exposure))
			out[i+2] = color.EncodeSRGB8(curve.Map(in[i+2] * exposure))
			out[i+3] = 0xff
		}
	})
}
