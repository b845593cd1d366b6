// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package optics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/lensflare/lens"
)

func near(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func vecNear(t *testing.T, name string, got, want mgl32.Vec3, eps float32) {
	t.Helper()
	if !got.ApproxEqualThreshold(want, eps) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// =============================================================================
// Intersection Tests
// =============================================================================

func TestIntersectFlat(t *testing.T) {
	f := lens.Interface{Flat: true, Pos: 5}
	r := Ray{Pos: mgl32.Vec3{1, 2, 10}, Dir: mgl32.Vec3{0, 0, -1}}

	hit := Intersect(r, f)
	if !hit.OK {
		t.Fatal("expected a hit")
	}
	vecNear(t, "Pos", hit.Pos, mgl32.Vec3{1, 2, 5}, 1e-6)
	vecNear(t, "Normal", hit.Normal, mgl32.Vec3{0, 0, 1}, 1e-6)
	if !near(hit.Theta, 0, 1e-6) {
		t.Errorf("Theta = %v, want 0", hit.Theta)
	}

	behind := Ray{Pos: mgl32.Vec3{0, 0, 1}, Dir: mgl32.Vec3{0, 0, -1}}
	if Intersect(behind, f).OK {
		t.Error("plane behind the ray reported a hit")
	}
	parallel := Ray{Pos: mgl32.Vec3{0, 0, 10}, Dir: mgl32.Vec3{1, 0, 0}}
	if Intersect(parallel, f).OK {
		t.Error("parallel ray reported a hit")
	}
}

func TestIntersectSphere_VertexSide(t *testing.T) {
	tests := []struct {
		name   string
		radius float32
		dirZ   float32
	}{
		{"convex toward scene, ray to sensor", 10, -1},
		{"concave toward scene, ray to sensor", -10, -1},
		{"convex toward scene, ray to scene", 10, 1},
		{"concave toward scene, ray to scene", -10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Surface vertex at z = 20 on the axis.
			f := lens.Interface{Pos: 20, Radius: tt.radius, Center: mgl32.Vec3{0, 0, 20 - tt.radius}}
			start := float32(50)
			if tt.dirZ > 0 {
				start = -10
			}
			r := Ray{Pos: mgl32.Vec3{0, 0, start}, Dir: mgl32.Vec3{0, 0, tt.dirZ}}
			hit := IntersectSphere(r, f)
			if !hit.OK {
				t.Fatal("expected a hit")
			}
			if !near(hit.Pos.Z(), 20, 1e-4) {
				t.Errorf("hit z = %v, want vertex at 20", hit.Pos.Z())
			}
			if hit.Normal.Dot(r.Dir) > 0 {
				t.Errorf("normal %v does not face the ray", hit.Normal)
			}
		})
	}
}

func TestIntersectSphere_Miss(t *testing.T) {
	f := lens.Interface{Pos: 20, Radius: 10, Center: mgl32.Vec3{0, 0, 10}}
	r := Ray{Pos: mgl32.Vec3{50, 0, 50}, Dir: mgl32.Vec3{0, 0, -1}}
	if IntersectSphere(r, f).OK {
		t.Error("ray outside the sphere reported a hit")
	}
}

// =============================================================================
// Reflection / Refraction Tests
// =============================================================================

func TestReflect(t *testing.T) {
	d := mgl32.Vec3{1, 0, -1}.Normalize()
	got := Reflect(d, mgl32.Vec3{0, 0, 1})
	vecNear(t, "Reflect", got, mgl32.Vec3{1, 0, 1}.Normalize(), 1e-6)
}

func TestRefract_Snell(t *testing.T) {
	n := mgl32.Vec3{0, 0, 1}
	theta := 0.4
	d := mgl32.Vec3{float32(math.Sin(theta)), 0, -float32(math.Cos(theta))}
	eta := float32(1.0 / 1.5)

	out, ok := Refract(d, n, eta)
	if !ok {
		t.Fatal("unexpected total internal reflection")
	}
	if !near(out.Len(), 1, 1e-5) {
		t.Errorf("|out| = %v, want 1", out.Len())
	}
	// n1 sin(t1) = n2 sin(t2)
	if !near(out.X(), float32(math.Sin(theta))*eta, 1e-5) {
		t.Errorf("sin(refracted) = %v, want %v", out.X(), float32(math.Sin(theta))*eta)
	}
	if out.Z() >= 0 {
		t.Errorf("refracted ray turned around: %v", out)
	}
}

func TestRefract_TotalInternalReflection(t *testing.T) {
	n := mgl32.Vec3{0, 0, 1}
	d := mgl32.Vec3{0.9, 0, -float32(math.Sqrt(1 - 0.81))}
	if _, ok := Refract(d, n, 1.5); ok {
		t.Error("expected total internal reflection")
	}
}

// =============================================================================
// Fresnel Tests
// =============================================================================

func TestFresnelAR_Range(t *testing.T) {
	for _, theta := range []float32{0, 0.1, 0.5, 1.0, 1.4} {
		for _, lambda := range []float32{475, 510, 650} {
			r := FresnelAR(theta, lambda, CoatingThickness(530, 1.38), 1, 1.38, 1.6)
			if r < 0 || r > 1 || math.IsNaN(float64(r)) {
				t.Errorf("FresnelAR(theta=%v, lambda=%v) = %v, want [0,1]", theta, lambda, r)
			}
		}
	}
}

func TestFresnelAR_CoatingReducesReflection(t *testing.T) {
	// A quarter-wave coating of index sqrt(n0*n2) cancels reflection at its
	// design wavelength; an index-matched "coating" is the bare surface.
	const n0, n2 = 1.0, 1.5
	ideal := float32(math.Sqrt(n0 * n2))

	bare := FresnelAR(0, 550, 0, n0, n0, n2)
	coated := FresnelAR(0, 550, CoatingThickness(550, ideal), n0, ideal, n2)

	wantBare := float32(((n2 - n0) / (n2 + n0)) * ((n2 - n0) / (n2 + n0)))
	if !near(bare, wantBare, 1e-3) {
		t.Errorf("bare reflectance = %v, want %v", bare, wantBare)
	}
	if coated >= bare/10 {
		t.Errorf("coated reflectance %v not well below bare %v", coated, bare)
	}
}

func TestFresnelAR_TotalReflection(t *testing.T) {
	if r := FresnelAR(1.2, 550, 100, 1.8, 1.38, 1.0); r != 1 {
		t.Errorf("FresnelAR beyond critical angle = %v, want 1", r)
	}
}

func TestCoatingThickness(t *testing.T) {
	if got := CoatingThickness(552, 1.38); !near(got, 100, 1e-3) {
		t.Errorf("CoatingThickness(552, 1.38) = %v, want 100", got)
	}
	if got := CoatingThickness(500, 0); got != 0 {
		t.Errorf("CoatingThickness(500, 0) = %v, want 0", got)
	}
}
