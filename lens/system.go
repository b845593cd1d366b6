// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lens

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VacuumIOR is the refractive index outside the lens.
const VacuumIOR float32 = 1.0

// Interface is one optical surface positioned on the optical axis.
//
// N holds (incoming, coating, outgoing) refractive indices. Incoming is the
// medium on the sensor side of the surface, outgoing the medium on its
// scene side, so N[0] of interface i always equals N[2] of interface i-1.
type Interface struct {
	// Center is the centre of the sphere modelling the surface.
	Center mgl32.Vec3

	// Radius is the signed radius of curvature.
	Radius float32

	// N is (incoming, coating, outgoing).
	N [3]float32

	// Aperture is the clear half extent of the surface.
	Aperture float32

	// CoatingLambda is the design wavelength of the coating in nanometers.
	CoatingLambda float32

	// Flat marks planar surfaces.
	Flat bool

	// Pos is the cumulative axial position of the surface vertex.
	Pos float32

	// Width is the width factor carried over from the prescription.
	Width float32
}

// Incoming returns the refractive index on the sensor side.
func (f Interface) Incoming() float32 { return f.N[0] }

// Coating returns the refractive index of the anti-reflection layer.
func (f Interface) Coating() float32 { return f.N[1] }

// Outgoing returns the refractive index on the scene side.
func (f Interface) Outgoing() float32 { return f.N[2] }

// System is a lens prescription resolved into axis-positioned interfaces.
type System struct {
	// Interfaces are ordered sensor first.
	Interfaces []Interface

	// TotalLength is the accumulated axial length of the lens.
	TotalLength float32

	// Stop is the index of the aperture stop, or -1 when the lens has none.
	Stop int
}

// Len returns the number of interfaces.
func (s *System) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Interfaces)
}

// Build converts a front-to-back prescription into a sensor-first System.
//
// The prescription is walked in reverse. Each row's thickness is added to
// the running distance before the interface is placed, so an interface
// sits on the far side of the gap that precedes it, and its sphere centre
// is at (0, 0, distance-radius).
//
// Build returns ErrEmptyPrescription for an empty table together with an
// empty, usable System.
func Build(p Prescription) (*System, error) {
	sys := &System{Stop: -1}
	if len(p) == 0 {
		sys.Interfaces = []Interface{}
		return sys, ErrEmptyPrescription
	}

	sys.Interfaces = make([]Interface, 0, len(p))
	var distance float32
	for i := len(p) - 1; i >= 0; i-- {
		entry := p[i]
		distance += entry.Thickness

		incoming := entry.IOR
		if len(sys.Interfaces) == 0 {
			incoming = VacuumIOR
		}
		outgoing := VacuumIOR
		if i > 0 {
			outgoing = p[i-1].IOR
		}

		sys.Interfaces = append(sys.Interfaces, Interface{
			Center:        mgl32.Vec3{0, 0, distance - entry.Radius},
			Radius:        entry.Radius,
			N:             [3]float32{incoming, quarterWaveIndex(incoming, outgoing), outgoing},
			Aperture:      entry.Height,
			CoatingLambda: entry.Coating,
			Flat:          entry.Flat,
			Pos:           distance,
			Width:         entry.Width,
		})
	}
	sys.TotalLength = distance
	sys.Stop = findStop(sys.Interfaces)
	return sys, nil
}

// quarterWaveIndex is the ideal single-layer anti-reflection index between
// two media.
func quarterWaveIndex(n0, n2 float32) float32 {
	return float32(math.Sqrt(float64(n0) * float64(n2)))
}

// findStop returns the first flat interface strictly inside the list.
func findStop(ifs []Interface) int {
	for i := 1; i < len(ifs)-1; i++ {
		if ifs[i].Flat {
			return i
		}
	}
	return -1
}
