// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package optics holds the geometric and thin-film optics used to trace
// rays through a lens: ray/surface intersection, Snell refraction,
// specular reflection and anti-reflection-coated Fresnel reflectance.
package optics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/lensflare/lens"
)

// Ray is a half line with a unit direction.
type Ray struct {
	Pos mgl32.Vec3
	Dir mgl32.Vec3
}

// Hit describes a ray/interface intersection.
type Hit struct {
	// Pos is the intersection point.
	Pos mgl32.Vec3

	// Normal is the unit surface normal facing against the ray.
	Normal mgl32.Vec3

	// Theta is the angle of incidence in radians.
	Theta float32

	// OK is false when the ray misses the surface.
	OK bool
}

// Intersect dispatches to IntersectFlat or IntersectSphere.
func Intersect(r Ray, f lens.Interface) Hit {
	if f.Flat {
		return IntersectFlat(r, f)
	}
	return IntersectSphere(r, f)
}

// IntersectFlat intersects r with the plane z = f.Pos.
func IntersectFlat(r Ray, f lens.Interface) Hit {
	dz := r.Dir.Z()
	if dz == 0 {
		return Hit{}
	}
	t := (f.Pos - r.Pos.Z()) / dz
	if t < 0 {
		return Hit{}
	}

	n := mgl32.Vec3{0, 0, 1}
	if dz > 0 {
		n = mgl32.Vec3{0, 0, -1}
	}
	return Hit{
		Pos:    r.Pos.Add(r.Dir.Mul(t)),
		Normal: n,
		Theta:  incidence(r.Dir, n),
		OK:     true,
	}
}

// IntersectSphere intersects r with the spherical cap of f.
//
// The sphere is centred at f.Center with radius |f.Radius|. Of the two
// roots the one on the vertex side of the sphere is chosen: the near root
// when the ray travels toward the centre of curvature, the far root
// otherwise.
func IntersectSphere(r Ray, f lens.Interface) Hit {
	d := r.Pos.Sub(f.Center)
	b := d.Dot(r.Dir)
	c := d.Dot(d) - f.Radius*f.Radius
	disc := b*b - c
	if disc < 0 {
		return Hit{}
	}

	sgn := float32(-1)
	if f.Radius*r.Dir.Z() > 0 {
		sgn = 1
	}
	t := sgn*float32(math.Sqrt(float64(disc))) - b
	if t < 0 {
		return Hit{}
	}

	pos := r.Pos.Add(r.Dir.Mul(t))
	n := pos.Sub(f.Center).Normalize()
	if n.Dot(r.Dir) > 0 {
		n = n.Mul(-1)
	}
	return Hit{Pos: pos, Normal: n, Theta: incidence(r.Dir, n), OK: true}
}

// incidence returns the angle between -dir and n.
func incidence(dir, n mgl32.Vec3) float32 {
	c := float64(-dir.Dot(n))
	c = math.Max(-1, math.Min(1, c))
	return float32(math.Acos(c))
}

// Reflect mirrors d about the normal n.
func Reflect(d, n mgl32.Vec3) mgl32.Vec3 {
	return d.Sub(n.Mul(2 * d.Dot(n)))
}

// Refract bends d through a surface with normal n facing against d.
// eta is the ratio n_from / n_to. The second result is false on total
// internal reflection.
func Refract(d, n mgl32.Vec3, eta float32) (mgl32.Vec3, bool) {
	cosi := d.Dot(n)
	k := 1 - eta*eta*(1-cosi*cosi)
	if k < 0 {
		return mgl32.Vec3{}, false
	}
	return d.Mul(eta).Sub(n.Mul(eta*cosi + float32(math.Sqrt(float64(k))))), true
}

// minTheta keeps FresnelAR away from the 0/0 limit at normal incidence.
const minTheta = 1e-5

// FresnelAR returns the reflectance of a surface carrying a single-layer
// anti-reflection coating.
//
// theta0 is the angle of incidence, lambda the wavelength and d1 the
// physical coating thickness (both in nanometers), n0 the medium the light
// comes from, n1 the coating and n2 the medium behind the coating. The
// result averages s and p polarisation and lies in [0, 1].
func FresnelAR(theta0, lambda, d1, n0, n1, n2 float32) float32 {
	t0 := math.Max(float64(theta0), minTheta)
	s0 := math.Sin(t0)

	a1 := s0 * float64(n0) / float64(n1)
	a2 := s0 * float64(n0) / float64(n2)
	if a1 >= 1 || a2 >= 1 {
		return 1
	}
	t1 := math.Asin(a1)
	t2 := math.Asin(a2)

	// Outer reflection and transmission on the coating's top surface.
	rs01 := -math.Sin(t0-t1) / math.Sin(t0+t1)
	rp01 := math.Tan(t0-t1) / math.Tan(t0+t1)
	ts01 := 2 * math.Sin(t1) * math.Cos(t0) / math.Sin(t0+t1)
	tp01 := ts01 * math.Cos(t0-t1)

	// Inner reflection at the substrate.
	rs12 := -math.Sin(t1-t2) / math.Sin(t1+t2)
	rp12 := math.Tan(t1-t2) / math.Tan(t1+t2)

	// Two transmissions through the top surface plus one inner reflection.
	ris := ts01 * ts01 * rs12
	rip := tp01 * tp01 * rp12

	dy := float64(d1) * float64(n1)
	dx := math.Tan(t1) * dy
	delay := math.Sqrt(dx*dx + dy*dy)
	phase := 4 * math.Pi / float64(lambda) * (delay - dx*s0)

	cp := math.Cos(phase)
	s2 := rs01*rs01 + ris*ris + 2*rs01*ris*cp
	p2 := rp01*rp01 + rip*rip + 2*rp01*rip*cp
	r := (s2 + p2) / 2
	return float32(math.Max(0, math.Min(1, r)))
}

// CoatingThickness returns the quarter-wave thickness of a coating with
// index n1 designed for wavelength lambda0.
func CoatingThickness(lambda0, n1 float32) float32 {
	if n1 <= 0 {
		return 0
	}
	return lambda0 / (4 * n1)
}
