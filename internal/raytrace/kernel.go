// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raytrace

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/lensflare/internal/optics"
	"github.com/gogpu/lensflare/lens"
)

// Wavelengths are the red, green and blue sample wavelengths in nanometers.
var Wavelengths = [3]float32{650, 510, 475}

// Edge fade range of the relative surface radius.
const (
	fadeStart = 0.9
	fadeEnd   = 1.0
)

// minDirZ is how strongly the light must travel toward the sensor.
const minDirZ = 1e-4

// MaskSampler returns the aperture transmission at stop-relative
// coordinates in [-1, 1].
type MaskSampler interface {
	Sample(x, y float32) float32
}

// Params are the per-frame inputs of the kernel.
type Params struct {
	// LightDir is the direction the light travels. It must point toward
	// the sensor (negative Z).
	LightDir mgl32.Vec3

	// Spread is the fraction of the sample grid the pupil spans. Values
	// below 1 leave a margin for the soft iris edge. Zero counts as 1.
	Spread float32

	// Pupil is where the grid lies on the entry plane. Tracers fill it
	// with FindPupil when it is unset; TraceSample alone falls back to
	// the whole front element.
	Pupil Pupil

	// PlateSize is the sensor half extent mapped to NDC 1.
	PlateSize float32

	// CoatingQuality is the minimum coating refractive index.
	CoatingQuality float32

	// Stop is the index of the aperture stop interface, or -1.
	Stop int

	// Tessellation is the grid size per ghost.
	Tessellation int
}

// SampleCoord maps grid index i of a T-wide grid to [0, 1].
func SampleCoord(i, t int) float32 {
	if t < 2 {
		return 0.5
	}
	return float32(i) / float32(t-1)
}

// TraceSample traces one ray of ghost g through sys.
//
// (u, v) in [0,1]^2 places the ray on the pupil square scaled by
// 1/Spread. The ray travels toward the sensor, reflects at Bounce2,
// travels back, reflects at Bounce1 and is then followed to the sensor
// plane at interface 0. A zero Vertex is returned for invalid ghosts, rays
// that miss a surface or are totally internally reflected, and light that
// does not reach the sensor.
func TraceSample(sys *lens.System, g lens.Ghost, p *Params, mask MaskSampler, u, v float32) Vertex {
	n := sys.Len()
	if g.Bounce2 < 1 || g.Bounce1 < g.Bounce2+2 || g.Bounce1 > n-2 {
		return Vertex{}
	}
	if p.LightDir.Z() > -minDirZ {
		return Vertex{}
	}

	dir := p.LightDir.Normalize()
	front := sys.Interfaces[n-1]
	pupil := p.Pupil
	if pupil.Radius <= 0 {
		pupil = Pupil{Radius: front.Aperture}
	}
	half := pupil.Radius
	if p.Spread > 0 {
		half /= p.Spread
	}

	w := walker{
		ifs:  sys.Interfaces,
		p:    p,
		mask: mask,
		ray: entryRay(front, dir,
			pupil.Center.X()+(2*u-1)*half,
			pupil.Center.Y()+(2*v-1)*half),
		rgb:      [3]float32{1, 1, 1},
		coverage: 1,
		apU:      2*u - 1,
		apV:      2*v - 1,
	}

	for i := n - 1; i > g.Bounce2; i-- {
		if !w.refract(i) {
			return Vertex{}
		}
	}
	if !w.reflect(g.Bounce2) {
		return Vertex{}
	}
	for i := g.Bounce2 + 1; i < g.Bounce1; i++ {
		if !w.refract(i) {
			return Vertex{}
		}
	}
	if !w.reflect(g.Bounce1) {
		return Vertex{}
	}
	for i := g.Bounce1 - 1; i > 0; i-- {
		if !w.refract(i) {
			return Vertex{}
		}
	}

	sensor := optics.Intersect(w.ray, w.ifs[0])
	if !sensor.OK {
		return Vertex{}
	}

	a := w.coverage * (1 - smoothstep(fadeStart, fadeEnd, w.maxRel))
	return Vertex{
		X: sensor.Pos.X() / p.PlateSize,
		Y: sensor.Pos.Y() / p.PlateSize,
		U: w.apU,
		V: w.apV,
		R: w.rgb[0],
		G: w.rgb[1],
		B: w.rgb[2],
		A: a,
	}
}

// walker carries one ray through the lens.
type walker struct {
	ifs  []lens.Interface
	p    *Params
	mask MaskSampler

	ray      optics.Ray
	rgb      [3]float32
	coverage float32
	maxRel   float32

	apU, apV float32
	crossed  bool

	// geometric walkers only follow the ray and leave rgb alone.
	geometric bool
}

// hit moves the ray onto interface i and applies clipping.
func (w *walker) hit(i int) (optics.Hit, bool) {
	f := w.ifs[i]
	h := optics.Intersect(w.ray, f)
	if !h.OK {
		return h, false
	}
	w.ray.Pos = h.Pos

	r := float32(math.Hypot(float64(h.Pos.X()), float64(h.Pos.Y())))
	if i == w.p.Stop {
		sx, sy := h.Pos.X()/f.Aperture, h.Pos.Y()/f.Aperture
		if !w.crossed {
			w.apU, w.apV = sx, sy
			w.crossed = true
		}
		switch {
		case w.mask != nil:
			w.coverage *= w.mask.Sample(sx, sy)
		case r > f.Aperture:
			w.coverage = 0
		}
		return h, w.coverage > 0
	}

	rel := r / f.Aperture
	if rel > w.maxRel {
		w.maxRel = rel
	}
	return h, w.maxRel <= fadeEnd
}

// media returns the indices on the near and far side of interface f for
// the current travel direction.
func (w *walker) media(f lens.Interface) (from, to float32) {
	if w.ray.Dir.Z() < 0 {
		return f.Outgoing(), f.Incoming()
	}
	return f.Incoming(), f.Outgoing()
}

// coating returns the coating index and thickness of f.
func (w *walker) coating(f lens.Interface) (n1, d1 float32) {
	n1 = max(f.Coating(), w.p.CoatingQuality)
	return n1, optics.CoatingThickness(f.CoatingLambda, n1)
}

func (w *walker) refract(i int) bool {
	h, ok := w.hit(i)
	if !ok {
		return false
	}
	f := w.ifs[i]
	from, to := w.media(f)
	if from == to && f.Flat {
		// Stop or dummy plane in a single medium.
		return true
	}

	dir, ok := optics.Refract(w.ray.Dir, h.Normal, from/to)
	if !ok {
		return false
	}

	if !w.geometric {
		n1, d1 := w.coating(f)
		for c, lambda := range Wavelengths {
			w.rgb[c] *= 1 - optics.FresnelAR(h.Theta, lambda, d1, from, n1, to)
		}
	}
	w.ray.Dir = dir.Normalize()
	return true
}

func (w *walker) reflect(i int) bool {
	h, ok := w.hit(i)
	if !ok {
		return false
	}
	f := w.ifs[i]
	from, to := w.media(f)
	n1, d1 := w.coating(f)
	for c, lambda := range Wavelengths {
		w.rgb[c] *= optics.FresnelAR(h.Theta, lambda, d1, from, n1, to)
	}
	w.ray.Dir = optics.Reflect(w.ray.Dir, h.Normal).Normalize()
	return true
}

func smoothstep(e0, e1, x float32) float32 {
	t := (x - e0) / (e1 - e0)
	t = max(0, min(1, t))
	return t * t * (3 - 2*t)
}
