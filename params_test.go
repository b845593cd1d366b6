// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestUpdateParameters(t *testing.T) {
	cfg := DefaultConfig()
	p, err := UpdateParameters(cfg, 29, 1.5, mgl32.Vec3{0, 0, -3})
	if err != nil {
		t.Fatalf("UpdateParameters() = %v", err)
	}
	if p.LightDir != (mgl32.Vec3{0, 0, -1}) {
		t.Errorf("LightDir = %v, want normalized (0, 0, -1)", p.LightDir)
	}
	if p.Time != 1.5 || p.NumInterfaces != 29 {
		t.Errorf("Time = %v NumInterfaces = %d", p.Time, p.NumInterfaces)
	}
	if p.BackbufferSize != [2]int{1920, 1080} {
		t.Errorf("BackbufferSize = %v", p.BackbufferSize)
	}
	if p.ApertureIndex != 14 || p.ApertureResolution != 512 || p.StarburstResolution != 512 {
		t.Errorf("aperture = %d, resolutions %d/%d", p.ApertureIndex, p.ApertureResolution, p.StarburstResolution)
	}
}

func TestUpdateParametersIsPure(t *testing.T) {
	cfg := DefaultConfig()
	light := mgl32.Vec3{0.1, 0.2, -1}
	a, errA := UpdateParameters(cfg, 29, 2, light)
	b, errB := UpdateParameters(cfg, 29, 2, light)
	if errA != nil || errB != nil {
		t.Fatal(errA, errB)
	}
	if a != b {
		t.Errorf("same inputs gave %+v and %+v", a, b)
	}
	if light != (mgl32.Vec3{0.1, 0.2, -1}) {
		t.Error("input light was modified")
	}
}

func TestUpdateParametersInvalidLight(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, light := range []mgl32.Vec3{{}, {nan, 0, -1}, {0, inf, -1}} {
		if _, err := UpdateParameters(DefaultConfig(), 29, 0, light); !errors.Is(err, ErrInvalidLight) {
			t.Errorf("UpdateParameters(%v) = %v, want ErrInvalidLight", light, err)
		}
	}
}

// =============================================================================
// Light helpers
// =============================================================================

func TestLightFromPointer(t *testing.T) {
	center := LightFromPointer(0, 0)
	if center != (mgl32.Vec3{0, 0, -1}) {
		t.Errorf("centre = %v, want (0, 0, -1)", center)
	}

	// Pointer right and up swings the light right and up.
	d := LightFromPointer(1, -1)
	if d.X() <= 0 || d.Y() <= 0 || d.Z() >= 0 {
		t.Errorf("LightFromPointer(1, -1) = %v", d)
	}
	if l := d.Len(); math.Abs(float64(l)-1) > 1e-6 {
		t.Errorf("length = %v, want 1", l)
	}
	want := mgl32.Vec3{0.2, 0.2, -1}.Normalize()
	if !d.ApproxEqual(want) {
		t.Errorf("LightFromPointer(1, -1) = %v, want %v", d, want)
	}
}

func TestPointerToNDC(t *testing.T) {
	tests := []struct {
		x, y, w, h int
		nx, ny     float32
	}{
		{0, 0, 2, 2, -0.5, -0.5},
		{1, 1, 2, 2, 0.5, 0.5},
		{50, 25, 0, 100, 0, 0},
	}
	for _, tt := range tests {
		nx, ny := PointerToNDC(tt.x, tt.y, tt.w, tt.h)
		if nx != tt.nx || ny != tt.ny {
			t.Errorf("PointerToNDC(%d, %d, %d, %d) = (%v, %v), want (%v, %v)",
				tt.x, tt.y, tt.w, tt.h, nx, ny, tt.nx, tt.ny)
		}
	}
}

func TestFlickerRange(t *testing.T) {
	for i := range 1000 {
		f := Flicker(float32(i) * 0.016)
		if f < 0.9 || f > 1 {
			t.Fatalf("Flicker(%v) = %v, want [0.9, 1]", float32(i)*0.016, f)
		}
	}
}

func TestStarburstFade(t *testing.T) {
	if got := starburstFade(mgl32.Vec3{0, 0, -1}); got != 1 {
		t.Errorf("on axis fade = %v, want 1", got)
	}
	if got := starburstFade(mgl32.Vec3{0.2, 0, -1}.Normalize()); got != 0 {
		t.Errorf("far off axis fade = %v, want 0", got)
	}
}
