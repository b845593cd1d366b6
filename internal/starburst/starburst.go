// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package starburst builds the diffraction starburst texture of a lens.
//
// FromAperture takes the Fraunhofer approximation: the far-field pattern
// of the iris is the power spectrum of its transmission, scaled per
// wavelength. Procedural draws a cheaper blade-count spike pattern.
package starburst

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned while building textures.
var (
	// ErrInvalidResolution is returned for textures smaller than 2x2.
	ErrInvalidResolution = errors.New("starburst: invalid resolution")

	// ErrNoMask is returned when an FFT starburst is requested without an
	// aperture mask.
	ErrNoMask = errors.New("starburst: no aperture mask")
)

// Texture is a square RGB float image centred on the light.
type Texture struct {
	Resolution int

	// Pix holds 3 floats per texel, row major.
	Pix []float32
}

func newTexture(res int) (*Texture, error) {
	if res < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}
	return &Texture{Resolution: res, Pix: make([]float32, 3*res*res)}, nil
}

// At returns the texel at (x, y), or black outside the texture.
func (t *Texture) At(x, y int) [3]float32 {
	if x < 0 || y < 0 || x >= t.Resolution || y >= t.Resolution {
		return [3]float32{}
	}
	i := 3 * (y*t.Resolution + x)
	return [3]float32{t.Pix[i], t.Pix[i+1], t.Pix[i+2]}
}

// Sample bilinearly filters the texture at (u, v) in [0, 1]^2. The
// texture is black outside that range.
func (t *Texture) Sample(u, v float32) [3]float32 {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return [3]float32{}
	}
	res := float32(t.Resolution)
	fx := u*res - 0.5
	fy := v*res - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	a, b := t.At(x0, y0), t.At(x0+1, y0)
	c, d := t.At(x0, y0+1), t.At(x0+1, y0+1)
	var out [3]float32
	for k := range 3 {
		top := a[k] + (b[k]-a[k])*tx
		bottom := c[k] + (d[k]-c[k])*tx
		out[k] = top + (bottom-top)*ty
	}
	return out
}

// Max returns the largest channel value.
func (t *Texture) Max() float32 {
	var m float32
	for _, v := range t.Pix {
		m = max(m, v)
	}
	return m
}

// spectralRGB approximates the colour response of a wavelength in
// nanometers with one Gaussian lobe per channel.
func spectralRGB(lambda float64) [3]float64 {
	g := func(mu, sigma float64) float64 {
		d := (lambda - mu) / sigma
		return math.Exp(-0.5 * d * d)
	}
	return [3]float64{
		g(610, 45) + 0.25*g(430, 20),
		g(545, 40),
		g(455, 30),
	}
}
