// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

// Target is a linear, unclamped RGBA float framebuffer.
type Target struct {
	Width, Height int

	// Pix holds 4 floats per pixel, row major, row 0 at the top.
	Pix []float32
}

// NewTarget allocates a cleared target.
func NewTarget(width, height int) *Target {
	width, height = max(0, width), max(0, height)
	return &Target{Width: width, Height: height, Pix: make([]float32, 4*width*height)}
}

// Clear sets every pixel to transparent black.
func (t *Target) Clear() {
	clear(t.Pix)
}

// Row returns the packed pixels of row y.
func (t *Target) Row(y int) []float32 {
	return t.Pix[4*y*t.Width : 4*(y+1)*t.Width]
}

// At returns the pixel at (x, y).
func (t *Target) At(x, y int) [4]float32 {
	i := 4 * (y*t.Width + x)
	return [4]float32{t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3]}
}

// Sum returns the channel sums over the whole target.
func (t *Target) Sum() [4]float64 {
	var s [4]float64
	for i, v := range t.Pix {
		s[i&3] += float64(v)
	}
	return s
}

// toPixel maps NDC to pixel coordinates, +Y up.
func (t *Target) toPixel(x, y float32) (float32, float32) {
	return (x*0.5 + 0.5) * float32(t.Width), (0.5 - y*0.5) * float32(t.Height)
}

// bands splits the rows into at most n contiguous ranges.
func (t *Target) bands(n int) [][2]int {
	if t.Height == 0 {
		return nil
	}
	n = max(1, min(n, t.Height))
	size := (t.Height + n - 1) / n
	out := make([][2]int, 0, n)
	for y := 0; y < t.Height; y += size {
		out = append(out, [2]int{y, min(y+size, t.Height)})
	}
	return out
}
