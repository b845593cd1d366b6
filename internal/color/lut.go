// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package color

import "math"

// encodeLUT maps a linear value quantized to 12 bits to an 8-bit sRGB code.
var encodeLUT [4096]uint8

func init() {
	for i := range encodeLUT {
		encodeLUT[i] = quantize(EncodeSRGB(float32(i) / 4095))
	}
}

// EncodeSRGB applies the sRGB transfer function to a linear value in
// [0, 1]. Values outside the range are clamped.
func EncodeSRGB(l float32) float32 {
	l = max(0, min(1, l))
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*float32(math.Pow(float64(l), 1.0/2.4)) - 0.055
}

// DecodeSRGB inverts EncodeSRGB.
func DecodeSRGB(s float32) float32 {
	s = max(0, min(1, s))
	if s <= 0.04045 {
		return s / 12.92
	}
	return float32(math.Pow(float64((s+0.055)/1.055), 2.4))
}

// EncodeSRGB8 converts a linear value to an 8-bit sRGB code through a
// 4096-entry table. NaN encodes as 0.
func EncodeSRGB8(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 255
	}
	return encodeLUT[int(l*4095+0.5)]
}

func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
