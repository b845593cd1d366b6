// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lens

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Prescription errors.
var (
	// ErrEmptyPrescription is returned when a prescription has no surfaces.
	ErrEmptyPrescription = errors.New("lens: empty prescription")

	// ErrInvalidSurface is returned when a surface carries non-finite or
	// non-physical values.
	ErrInvalidSurface = errors.New("lens: invalid optical surface")
)

// OpticalSurface is one row of a lens patent prescription.
//
// Rows are listed front to back: the first row faces the scene, the last
// row sits at the sensor. Thickness is the axial gap to the next row and
// IOR is the refractive index of the medium filling that gap.
type OpticalSurface struct {
	// Radius is the signed radius of curvature. Ignored when Flat is set.
	Radius float32 `json:"r"`

	// Thickness is the distance to the next surface along the axis.
	Thickness float32 `json:"d"`

	// IOR is the refractive index of the medium following the surface.
	IOR float32 `json:"n"`

	// Flat marks planar surfaces (aperture stop, sensor plane).
	Flat bool `json:"flat"`

	// Width is the width factor of the surface.
	Width float32 `json:"w"`

	// Height is the clear-aperture half height.
	Height float32 `json:"h"`

	// Coating is the design wavelength of the anti-reflection coating in
	// nanometers. It sets the coating thickness.
	Coating float32 `json:"c"`
}

// Prescription is an ordered, front-to-back list of optical surfaces.
type Prescription []OpticalSurface

// Validate reports whether every surface holds finite, physical values.
// An empty prescription is valid: it describes a degenerate lens with no
// interfaces.
func (p Prescription) Validate() error {
	for i, s := range p {
		for _, v := range [...]float32{s.Radius, s.Thickness, s.IOR, s.Width, s.Height, s.Coating} {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("%w: surface %d has a non-finite value", ErrInvalidSurface, i)
			}
		}
		if s.IOR < 1 {
			return fmt.Errorf("%w: surface %d has refractive index %v < 1", ErrInvalidSurface, i, s.IOR)
		}
		if s.Height <= 0 {
			return fmt.Errorf("%w: surface %d has aperture height %v", ErrInvalidSurface, i, s.Height)
		}
		if s.Thickness < 0 {
			return fmt.Errorf("%w: surface %d has negative thickness %v", ErrInvalidSurface, i, s.Thickness)
		}
		if !s.Flat && s.Radius == 0 {
			return fmt.Errorf("%w: surface %d is curved with zero radius", ErrInvalidSurface, i)
		}
	}
	return nil
}

// ParsePrescription decodes a JSON array of surfaces and validates it.
//
// Each element uses the short keys of the patent tables:
//
//	[{"r": 72.747, "d": 2.3, "n": 1.603, "w": 0.2, "h": 29, "c": 530}, ...]
func ParsePrescription(r io.Reader) (Prescription, error) {
	var p Prescription
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("lens: decode prescription: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// nikon28to75 is the Nikon 28-75mm zoom from its patent, front to back.
// Row 14 is the aperture stop and the last row is the sensor plane.
var nikon28to75 = Prescription{
	{Radius: 72.747, Thickness: 2.300, IOR: 1.60300, Width: 0.2, Height: 29.0, Coating: 530},
	{Radius: 37.000, Thickness: 13.000, IOR: 1.00000, Width: 0.2, Height: 29.0, Coating: 600},
	{Radius: -172.809, Thickness: 2.100, IOR: 1.58913, Width: 2.7, Height: 26.2, Coating: 570},
	{Radius: 39.894, Thickness: 1.000, IOR: 1.00000, Width: 2.7, Height: 26.2, Coating: 660},
	{Radius: 49.820, Thickness: 4.400, IOR: 1.86074, Width: 0.5, Height: 20.0, Coating: 330},
	{Radius: 74.750, Thickness: 53.142, IOR: 1.00000, Width: 0.5, Height: 20.0, Coating: 544},
	{Radius: 63.402, Thickness: 1.600, IOR: 1.86074, Width: 0.5, Height: 16.1, Coating: 740},
	{Radius: 37.530, Thickness: 8.600, IOR: 1.51680, Width: 0.5, Height: 16.1, Coating: 411},
	{Radius: -75.887, Thickness: 1.600, IOR: 1.80458, Width: 0.5, Height: 16.0, Coating: 580},
	{Radius: -97.792, Thickness: 7.063, IOR: 1.00000, Width: 0.5, Height: 16.5, Coating: 730},
	{Radius: 96.034, Thickness: 3.600, IOR: 1.62041, Width: 0.5, Height: 18.0, Coating: 700},
	{Radius: 261.743, Thickness: 0.100, IOR: 1.00000, Width: 0.5, Height: 18.0, Coating: 440},
	{Radius: 54.262, Thickness: 6.000, IOR: 1.69680, Width: 0.5, Height: 18.0, Coating: 800},
	{Radius: -5995.277, Thickness: 1.532, IOR: 1.00000, Width: 0.5, Height: 18.0, Coating: 300},
	{Radius: 0, Thickness: 2.800, IOR: 1.00000, Flat: true, Width: 18.0, Height: 7.0, Coating: 440},
	{Radius: -74.414, Thickness: 2.200, IOR: 1.90265, Width: 0.5, Height: 13.0, Coating: 500},
	{Radius: -62.929, Thickness: 1.450, IOR: 1.51680, Width: 0.1, Height: 13.0, Coating: 770},
	{Radius: 121.380, Thickness: 2.500, IOR: 1.00000, Width: 4.0, Height: 13.1, Coating: 820},
	{Radius: -85.723, Thickness: 1.400, IOR: 1.49782, Width: 4.0, Height: 13.0, Coating: 200},
	{Radius: 31.093, Thickness: 2.600, IOR: 1.80458, Width: 4.0, Height: 13.1, Coating: 540},
	{Radius: 84.758, Thickness: 16.889, IOR: 1.00000, Width: 0.5, Height: 13.0, Coating: 580},
	{Radius: 459.690, Thickness: 1.400, IOR: 1.86074, Width: 1.0, Height: 15.0, Coating: 533},
	{Radius: 40.240, Thickness: 7.300, IOR: 1.49782, Width: 1.0, Height: 15.0, Coating: 666},
	{Radius: -49.771, Thickness: 0.100, IOR: 1.00000, Width: 1.0, Height: 15.2, Coating: 500},
	{Radius: 62.369, Thickness: 7.000, IOR: 1.67025, Width: 1.0, Height: 16.0, Coating: 487},
	{Radius: -76.454, Thickness: 5.200, IOR: 1.00000, Width: 1.0, Height: 16.0, Coating: 671},
	{Radius: -32.524, Thickness: 2.000, IOR: 1.80454, Width: 0.5, Height: 17.0, Coating: 487},
	{Radius: -50.194, Thickness: 39.683, IOR: 1.00000, Width: 0.5, Height: 17.0, Coating: 732},
	{Radius: 0, Thickness: 5.0, IOR: 1.00000, Flat: true, Width: 10.0, Height: 10.0, Coating: 500},
}

// Nikon28to75 returns a copy of the reference Nikon 28-75mm prescription.
// The returned slice is owned by the caller.
func Nikon28to75() Prescription {
	p := make(Prescription, len(nikon28to75))
	copy(p, nikon28to75)
	return p
}
