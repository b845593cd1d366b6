// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lens

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// =============================================================================
// Builder Tests
// =============================================================================

func TestBuild_ReferenceLens(t *testing.T) {
	sys, err := Build(Nikon28to75())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := sys.Len(); got != 29 {
		t.Fatalf("Len() = %d, want 29", got)
	}
	if got := sys.Interfaces[0].Incoming(); got != 1.0 {
		t.Errorf("interface 0 incoming = %v, want 1.0", got)
	}
	for i := 1; i < sys.Len(); i++ {
		in := sys.Interfaces[i].Incoming()
		out := sys.Interfaces[i-1].Outgoing()
		if in != out {
			t.Errorf("interface %d incoming = %v, interface %d outgoing = %v", i, in, i-1, out)
		}
	}
	if got := sys.Interfaces[sys.Len()-1].Outgoing(); got != VacuumIOR {
		t.Errorf("front element outgoing = %v, want %v", got, VacuumIOR)
	}
	if sys.Stop != 14 {
		t.Errorf("Stop = %d, want 14", sys.Stop)
	}
}

func TestBuild_Positions(t *testing.T) {
	p := Nikon28to75()
	sys, err := Build(p)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var distance float32
	for k := 0; k < sys.Len(); k++ {
		entry := p[len(p)-1-k]
		distance += entry.Thickness
		f := sys.Interfaces[k]
		if f.Pos != distance {
			t.Errorf("interface %d Pos = %v, want %v", k, f.Pos, distance)
		}
		if want := distance - entry.Radius; f.Center.Z() != want {
			t.Errorf("interface %d Center.Z = %v, want %v", k, f.Center.Z(), want)
		}
		if f.Center.X() != 0 || f.Center.Y() != 0 {
			t.Errorf("interface %d centre off axis: %v", k, f.Center)
		}
		if f.Aperture != entry.Height || f.Flat != entry.Flat || f.CoatingLambda != entry.Coating {
			t.Errorf("interface %d fields not copied from row %d", k, len(p)-1-k)
		}
	}
	if sys.TotalLength != distance {
		t.Errorf("TotalLength = %v, want %v", sys.TotalLength, distance)
	}

	// The sensor plane is the last row, the front element the first.
	if !sys.Interfaces[0].Flat || sys.Interfaces[0].Aperture != 10 {
		t.Errorf("interface 0 should be the flat sensor plane, got %+v", sys.Interfaces[0])
	}
	if sys.Interfaces[28].Radius != 72.747 {
		t.Errorf("interface 28 radius = %v, want front element 72.747", sys.Interfaces[28].Radius)
	}
}

func TestBuild_CoatingBetweenMedia(t *testing.T) {
	sys, err := Build(Nikon28to75())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i, f := range sys.Interfaces {
		lo, hi := f.Incoming(), f.Outgoing()
		if lo > hi {
			lo, hi = hi, lo
		}
		if c := f.Coating(); c < lo-1e-6 || c > hi+1e-6 {
			t.Errorf("interface %d coating %v outside [%v, %v]", i, c, lo, hi)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	a, errA := Build(Nikon28to75())
	b, errB := Build(Nikon28to75())
	if errA != nil || errB != nil {
		t.Fatalf("Build() errors = %v, %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two builds of the same prescription differ")
	}
}

func TestBuild_Empty(t *testing.T) {
	sys, err := Build(nil)
	if !errors.Is(err, ErrEmptyPrescription) {
		t.Fatalf("Build(nil) error = %v, want ErrEmptyPrescription", err)
	}
	if sys == nil || sys.Len() != 0 || sys.Stop != -1 {
		t.Fatalf("Build(nil) system = %+v, want empty with Stop -1", sys)
	}
	if g := EnumerateGhosts(sys.Len()); len(g) != 0 {
		t.Errorf("EnumerateGhosts(0) = %d ghosts, want 0", len(g))
	}
}

func TestBuild_DoesNotMutatePrescription(t *testing.T) {
	p := Nikon28to75()
	before := Nikon28to75()
	if _, err := Build(p); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !reflect.DeepEqual(p, before) {
		t.Error("Build mutated its input")
	}
}

func TestNikon28to75_ReturnsCopy(t *testing.T) {
	p := Nikon28to75()
	p[0].Radius = 1
	if Nikon28to75()[0].Radius != 72.747 {
		t.Error("Nikon28to75 exposes the shared table")
	}
}

// =============================================================================
// Prescription Tests
// =============================================================================

func TestPrescription_Validate(t *testing.T) {
	tests := []struct {
		name    string
		surface OpticalSurface
		wantErr bool
	}{
		{"curved", OpticalSurface{Radius: 10, Thickness: 1, IOR: 1.5, Height: 5}, false},
		{"flat", OpticalSurface{Flat: true, Thickness: 1, IOR: 1, Height: 5}, false},
		{"zero radius curved", OpticalSurface{Thickness: 1, IOR: 1.5, Height: 5}, true},
		{"ior below one", OpticalSurface{Radius: 10, Thickness: 1, IOR: 0.5, Height: 5}, true},
		{"no aperture", OpticalSurface{Radius: 10, Thickness: 1, IOR: 1.5}, true},
		{"negative thickness", OpticalSurface{Radius: 10, Thickness: -1, IOR: 1.5, Height: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Prescription{tt.surface}.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSurface) {
				t.Errorf("Validate() error = %v, want ErrInvalidSurface", err)
			}
		})
	}

	if err := Nikon28to75().Validate(); err != nil {
		t.Errorf("reference lens Validate() = %v", err)
	}
}

func TestParsePrescription(t *testing.T) {
	src := `[
		{"r": 50, "d": 5, "n": 1.5, "w": 1, "h": 10, "c": 500},
		{"r": -50, "d": 40, "n": 1, "w": 1, "h": 10, "c": 500},
		{"flat": true, "d": 5, "n": 1, "w": 8, "h": 8, "c": 500}
	]`
	p, err := ParsePrescription(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParsePrescription() error = %v", err)
	}
	if len(p) != 3 || p[1].Radius != -50 || !p[2].Flat {
		t.Errorf("ParsePrescription() = %+v", p)
	}

	if _, err := ParsePrescription(strings.NewReader(`[{"r": 1, "bogus": 2}]`)); err == nil {
		t.Error("ParsePrescription accepted an unknown field")
	}
	if _, err := ParsePrescription(strings.NewReader(`[{"r": 0, "d": 1, "n": 1.5, "h": 2}]`)); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("ParsePrescription(zero radius) error = %v, want ErrInvalidSurface", err)
	}
}
