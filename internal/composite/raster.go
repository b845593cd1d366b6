// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"math"

	"github.com/gogpu/lensflare/internal/blend"
)

// subpixel is the vertex snapping grid. Snapped coordinates make every
// edge function exact in float64, so a shared edge evaluates to exactly
// opposite values in its two triangles.
const subpixel = 256

// vertex is a screen-space vertex with a straight-alpha colour.
type vertex struct {
	x, y       float64
	r, g, b, a float32
}

func snap(v float32) float64 {
	return math.Round(float64(v)*subpixel) / subpixel
}

// triangle is set up once and rasterized by every band it touches.
type triangle struct {
	v          [3]vertex
	area       float64
	minX, maxX int
	minY, maxY int
	topLeft    [3]bool
}

// setupTriangle orients the triangle, computes its pixel bounds and edge
// ownership. It reports false for degenerate or off-target triangles.
func setupTriangle(v0, v1, v2 vertex, w, h int) (triangle, bool) {
	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return triangle{}, false
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	tri := triangle{v: [3]vertex{v0, v1, v2}, area: area}
	minX := min(v0.x, v1.x, v2.x)
	maxX := max(v0.x, v1.x, v2.x)
	minY := min(v0.y, v1.y, v2.y)
	maxY := max(v0.y, v1.y, v2.y)

	// Pixels whose centre can lie inside. Clamp before converting so far
	// off-screen vertices cannot overflow.
	clampTo := func(v float64, hi int) int {
		return int(math.Max(0, math.Min(float64(hi), v)))
	}
	tri.minX = clampTo(math.Floor(minX-0.5), w)
	tri.maxX = clampTo(math.Ceil(maxX+0.5), w)
	tri.minY = clampTo(math.Floor(minY-0.5), h)
	tri.maxY = clampTo(math.Ceil(maxY+0.5), h)
	if tri.minX >= tri.maxX || tri.minY >= tri.maxY {
		return triangle{}, false
	}

	// Edge k is opposite vertex k.
	tri.topLeft[0] = isTopLeft(v1, v2)
	tri.topLeft[1] = isTopLeft(v2, v0)
	tri.topLeft[2] = isTopLeft(v0, v1)
	return tri, true
}

// edge is twice the signed area of (a, b, p). It is positive when p lies
// to the inside of a->b for a triangle with positive area.
func edge(a, b vertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// isTopLeft reports whether a->b is a top or left edge in the positive
// orientation, with y pointing down. Pixel centres exactly on such edges
// belong to the triangle; centres on the other edges belong to the
// neighbour, so shared edges are drawn exactly once.
func isTopLeft(a, b vertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return dy < 0 || (dy == 0 && dx > 0)
}

func covers(w float64, topLeft bool) bool {
	return w > 0 || (w == 0 && topLeft)
}

// rasterize draws the part of tri that lies in rows [y0, y1) with
// Gouraud-interpolated colour.
func rasterize(dst *Target, tri *triangle, y0, y1 int, st blend.State) {
	y0 = max(y0, tri.minY)
	y1 = min(y1, tri.maxY)
	if y0 >= y1 {
		return
	}

	v0, v1, v2 := tri.v[0], tri.v[1], tri.v[2]
	inv := 1 / tri.area
	for y := y0; y < y1; y++ {
		py := float64(y) + 0.5
		row := dst.Row(y)
		for x := tri.minX; x < tri.maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(v1, v2, px, py)
			w1 := edge(v2, v0, px, py)
			w2 := edge(v0, v1, px, py)
			if !covers(w0, tri.topLeft[0]) || !covers(w1, tri.topLeft[1]) || !covers(w2, tri.topLeft[2]) {
				continue
			}
			b0, b1, b2 := float32(w0*inv), float32(w1*inv), float32(w2*inv)
			st.Pixel(row[4*x:4*x+4],
				b0*v0.r+b1*v1.r+b2*v2.r,
				b0*v0.g+b1*v1.g+b2*v2.g,
				b0*v0.b+b1*v1.b+b2*v2.b,
				b0*v0.a+b1*v1.a+b2*v2.a,
			)
		}
	}
}
