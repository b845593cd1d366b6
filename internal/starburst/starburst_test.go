// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package starburst

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/lensflare/internal/aperture"
)

func hexMask(t *testing.T, res int) *aperture.Mask {
	t.Helper()
	m, err := aperture.Generate(res, aperture.Shape{Blades: 6, Radius: 1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// =============================================================================
// FFT Starburst Tests
// =============================================================================

func TestFromAperture_PeakAtCenter(t *testing.T) {
	const res = 64
	tex, err := FromAperture(hexMask(t, res), res)
	if err != nil {
		t.Fatal(err)
	}

	center := tex.At(res/2, res/2)
	for k, v := range center {
		if math.Abs(float64(v-1)) > 1e-4 {
			t.Errorf("center channel %d = %v, want 1", k, v)
		}
	}
	if m := tex.Max(); m > 1+1e-6 {
		t.Errorf("Max = %v, want <= 1", m)
	}
	for i, v := range tex.Pix {
		if v < 0 || math.IsNaN(float64(v)) {
			t.Fatalf("texel value %d = %v", i, v)
		}
	}
}

func TestFromAperture_PointSymmetric(t *testing.T) {
	const res = 64
	tex, err := FromAperture(hexMask(t, 48), res)
	if err != nil {
		t.Fatal(err)
	}

	c := res / 2
	for _, d := range [][2]int{{3, 0}, {0, 5}, {7, 4}, {-11, 9}, {20, -13}} {
		a := tex.At(c+d[0], c+d[1])
		b := tex.At(c-d[0], c-d[1])
		for k := range 3 {
			if math.Abs(float64(a[k]-b[k])) > 1e-3 {
				t.Errorf("offset %v channel %d: %v vs %v", d, k, a[k], b[k])
			}
		}
	}
}

func TestFromAperture_Errors(t *testing.T) {
	if _, err := FromAperture(nil, 64); !errors.Is(err, ErrNoMask) {
		t.Errorf("nil mask err = %v, want ErrNoMask", err)
	}
	if _, err := FromAperture(hexMask(t, 8), 1); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("res 1 err = %v, want ErrInvalidResolution", err)
	}
}

// =============================================================================
// Procedural Starburst Tests
// =============================================================================

func TestProcedural_RoundIrisIsRadial(t *testing.T) {
	const res = 32
	tex, err := Procedural(res, 0)
	if err != nil {
		t.Fatal(err)
	}
	c := res / 2
	for d := 1; d < c; d++ {
		// (c+d, c) and (c, c+d) sit at the same offset from the centre.
		if a, b := tex.At(c+d, c), tex.At(c, c+d); a != b {
			t.Errorf("offset %d: %v vs %v", d, a, b)
		}
	}
}

func TestProcedural_CenterBrightest(t *testing.T) {
	const res = 64
	tex, err := Procedural(res, 6)
	if err != nil {
		t.Fatal(err)
	}
	center := tex.At(res/2, res/2)
	corner := tex.At(0, 0)
	if corner != ([3]float32{}) {
		t.Errorf("corner = %v, want black", corner)
	}
	for k := range 3 {
		if center[k] <= tex.At(res/2+10, res/2+3)[k] {
			t.Errorf("channel %d not brightest at centre", k)
		}
	}
}

// =============================================================================
// Texture / Cache Tests
// =============================================================================

func TestTexture_Sample(t *testing.T) {
	tex := &Texture{Resolution: 2, Pix: []float32{
		0, 0, 0, 1, 1, 1,
		0, 0, 0, 1, 1, 1,
	}}
	got := tex.Sample(0.5, 0.5)
	for k := range 3 {
		if math.Abs(float64(got[k]-0.5)) > 1e-6 {
			t.Errorf("Sample(0.5,0.5)[%d] = %v, want 0.5", k, got[k])
		}
	}
	if got := tex.Sample(1.5, 0.5); got != ([3]float32{}) {
		t.Errorf("Sample outside = %v", got)
	}
}

func TestCache_Memoizes(t *testing.T) {
	c := NewCache(2)
	mask := hexMask(t, 32)
	k := Key{Mode: ModeFFT, Resolution: 32, Blades: 6, Radius: 1}

	a, err := c.Get(k, mask)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Get(k, mask)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second Get rebuilt the texture")
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats = %+v", s)
	}

	if _, err := c.Get(Key{Mode: "bogus", Resolution: 32}, mask); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestMode_Valid(t *testing.T) {
	for _, m := range []Mode{ModeFFT, ModeProcedural} {
		if !m.Valid() {
			t.Errorf("%q not valid", m)
		}
	}
	if Mode("gauss").Valid() {
		t.Error("unknown mode reported valid")
	}
}

func BenchmarkFromAperture512(b *testing.B) {
	m, _ := aperture.Generate(512, aperture.Shape{Blades: 6, Radius: 1})
	for b.Loop() {
		_, _ = FromAperture(m, 512)
	}
}
