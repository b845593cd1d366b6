// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package aperture rasterizes the iris of a lens into a coverage mask.
//
// The mask covers the stop-relative square [-1, 1]^2: (1, 0) is the rim of
// the aperture stop. The iris is a regular polygon formed by the blades,
// or a circle when the lens has fewer than three blades.
package aperture

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidResolution is returned for masks smaller than 2x2.
var ErrInvalidResolution = errors.New("aperture: invalid resolution")

// Shape describes the iris.
type Shape struct {
	// Blades is the number of diaphragm blades. Fewer than three gives a
	// round iris.
	Blades int

	// Radius is the circumradius relative to the stop, in [0, 1].
	Radius float32

	// Rotation turns the polygon, in radians.
	Rotation float32
}

// RelativeRadius converts an absolute opening to a stop-relative radius
// clamped to [0, 1].
func RelativeRadius(opening, stopAperture float32) float32 {
	if stopAperture <= 0 {
		return 0
	}
	return max(0, min(1, opening/stopAperture))
}

// Mask is a square single-channel coverage image.
type Mask struct {
	Resolution int

	// Data holds Resolution*Resolution coverage values in [0, 1], row
	// major, row 0 at y = -1.
	Data []float32
}

// Generate rasterizes s into a res x res mask with a one-texel
// anti-aliased edge.
func Generate(res int, s Shape) (*Mask, error) {
	if res < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}

	m := &Mask{Resolution: res, Data: make([]float32, res*res)}
	texel := 2 / float64(res)
	edge := newEdgeFunc(s)

	for y := range res {
		py := (float64(y)+0.5)*texel - 1
		row := m.Data[y*res : (y+1)*res]
		for x := range res {
			px := (float64(x)+0.5)*texel - 1
			d := edge(px, py)
			row[x] = float32(math.Max(0, math.Min(1, d/texel+0.5)))
		}
	}
	return m, nil
}

// newEdgeFunc returns the signed distance from a point to the iris edge,
// positive inside.
func newEdgeFunc(s Shape) func(x, y float64) float64 {
	r := float64(s.Radius)
	if s.Blades < 3 {
		return func(x, y float64) float64 {
			return r - math.Hypot(x, y)
		}
	}

	n := s.Blades
	apothem := r * math.Cos(math.Pi/float64(n))
	normals := make([][2]float64, n)
	for k := range n {
		a := float64(s.Rotation) + (2*float64(k)+1)*math.Pi/float64(n)
		normals[k] = [2]float64{math.Cos(a), math.Sin(a)}
	}
	return func(x, y float64) float64 {
		d := math.Inf(-1)
		for _, nv := range normals {
			d = math.Max(d, x*nv[0]+y*nv[1])
		}
		return apothem - d
	}
}

// At returns the texel at (x, y), or 0 outside the mask.
func (m *Mask) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.Resolution || y >= m.Resolution {
		return 0
	}
	return m.Data[y*m.Resolution+x]
}

// Sample bilinearly filters the mask at stop-relative coordinates.
// Points outside [-1, 1]^2 are opaque.
func (m *Mask) Sample(x, y float32) float32 {
	if x < -1 || x > 1 || y < -1 || y > 1 {
		return 0
	}
	res := float32(m.Resolution)
	fx := (x+1)*0.5*res - 0.5
	fy := (y+1)*0.5*res - 0.5

	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	// Clamp to edge texels.
	cx := func(i int) int { return max(0, min(m.Resolution-1, i)) }
	a := m.At(cx(x0), cx(y0))
	b := m.At(cx(x0+1), cx(y0))
	c := m.At(cx(x0), cx(y0+1))
	d := m.At(cx(x0+1), cx(y0+1))

	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}

// Area returns the mean coverage of the mask, i.e. the open fraction of
// the [-1, 1]^2 square.
func (m *Mask) Area() float64 {
	var sum float64
	for _, v := range m.Data {
		sum += float64(v)
	}
	return sum / float64(len(m.Data))
}
