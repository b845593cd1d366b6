// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package starburst

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/gogpu/lensflare/internal/aperture"
)

// Spectral sampling of the visible range used to smear the pattern.
const (
	lambdaMin   = 400.0
	lambdaMax   = 700.0
	lambdaRef   = 550.0
	lambdaSteps = 24
)

// compression lifts the faint diffraction spikes relative to the central
// peak: v = log(1+k*p) / log(1+k).
const compression = 4000.0

// FromAperture computes a res x res starburst from the iris mask.
//
// The mask is resampled into the centre half of a res x res field, the
// field is transformed with a 2D FFT (rows, then columns) and the power
// spectrum is shifted so the zero frequency sits in the centre. Each
// wavelength of the visible range then reads the spectrum at a radius
// scaled by lambda/550nm, tinted by its colour response. The result is
// normalized to a peak of 1.
func FromAperture(mask *aperture.Mask, res int) (*Texture, error) {
	if mask == nil {
		return nil, ErrNoMask
	}
	tex, err := newTexture(res)
	if err != nil {
		return nil, err
	}

	power := powerSpectrum(mask, res)
	if peak := floats.Max(power); peak > 0 {
		floats.Scale(1/peak, power)
	}
	norm := math.Log1p(compression)
	for i, p := range power {
		power[i] = math.Log1p(compression*p) / norm
	}

	smear(tex, power, res)

	var peak float32
	for _, v := range tex.Pix {
		peak = max(peak, v)
	}
	if peak > 0 {
		for i := range tex.Pix {
			tex.Pix[i] /= peak
		}
	}
	return tex, nil
}

// powerSpectrum returns the centred |FFT|^2 of the zero-padded mask.
func powerSpectrum(mask *aperture.Mask, res int) []float64 {
	field := make([]complex128, res*res)
	half := float32(res) / 2
	lo := res / 4
	for y := lo; y < lo+res/2; y++ {
		my := (float32(y-lo)+0.5)/half*2 - 1
		for x := lo; x < lo+res/2; x++ {
			mx := (float32(x-lo)+0.5)/half*2 - 1
			field[y*res+x] = complex(float64(mask.Sample(mx, my)), 0)
		}
	}

	fft := fourier.NewCmplxFFT(res)
	line := make([]complex128, res)
	coeff := make([]complex128, res)

	// Rows.
	for y := range res {
		row := field[y*res : (y+1)*res]
		fft.Coefficients(coeff, row)
		copy(row, coeff)
	}
	// Columns.
	for x := range res {
		for y := range res {
			line[y] = field[y*res+x]
		}
		fft.Coefficients(coeff, line)
		for y := range res {
			field[y*res+x] = coeff[y]
		}
	}

	power := make([]float64, res*res)
	shift := res / 2
	for y := range res {
		sy := (y + shift) % res
		for x := range res {
			sx := (x + shift) % res
			a := cmplx.Abs(field[y*res+x])
			power[sy*res+sx] = a * a
		}
	}
	return power
}

// smear accumulates the wavelength-scaled spectrum into tex.
func smear(tex *Texture, power []float64, res int) {
	// Scale about the zero-frequency texel so the pattern stays point
	// symmetric.
	c := float64(res / 2)
	var weight [3]float64
	acc := make([]float64, 3*res*res)

	for s := range lambdaSteps {
		lambda := lambdaMin + (lambdaMax-lambdaMin)*(float64(s)+0.5)/lambdaSteps
		rgb := spectralRGB(lambda)
		for k := range 3 {
			weight[k] += rgb[k]
		}
		scale := lambdaRef / lambda
		for y := range res {
			sy := (float64(y)-c)*scale + c
			for x := range res {
				sx := (float64(x)-c)*scale + c
				p := bilinear(power, res, sx, sy)
				if p == 0 {
					continue
				}
				i := 3 * (y*res + x)
				acc[i] += p * rgb[0]
				acc[i+1] += p * rgb[1]
				acc[i+2] += p * rgb[2]
			}
		}
	}

	for i := range acc {
		w := weight[i%3]
		if w > 0 {
			tex.Pix[i] = float32(acc[i] / w)
		}
	}
}

func bilinear(data []float64, res int, x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	if x0 < 0 || y0 < 0 || x0+1 >= res || y0+1 >= res {
		return 0
	}
	tx := x - float64(x0)
	ty := y - float64(y0)
	a := data[y0*res+x0]
	b := data[y0*res+x0+1]
	c := data[(y0+1)*res+x0]
	d := data[(y0+1)*res+x0+1]
	return (a*(1-tx)+b*tx)*(1-ty) + (c*(1-tx)+d*tx)*ty
}
