// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Parameters is the per-frame parameter block shared by every pass.
type Parameters struct {
	Time     float32
	LightDir mgl32.Vec3

	Spread    float32
	PlateSize float32

	ApertureIndex   int
	ApertureOpening float32
	Blades          int

	ApertureResolution  int
	StarburstResolution int

	NumInterfaces  int
	CoatingQuality float32

	BackbufferSize [2]int
}

// UpdateParameters builds the parameter block of one frame. It has no
// side effects. The light direction is normalized; a zero or non-finite
// direction yields ErrInvalidLight.
func UpdateParameters(cfg Config, numInterfaces int, time float32, lightDir mgl32.Vec3) (Parameters, error) {
	for _, v := range lightDir {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Parameters{}, fmt.Errorf("%w: %v", ErrInvalidLight, lightDir)
		}
	}
	if lightDir.Len() == 0 {
		return Parameters{}, fmt.Errorf("%w: zero vector", ErrInvalidLight)
	}

	return Parameters{
		Time:                time,
		LightDir:            lightDir.Normalize(),
		Spread:              cfg.Spread,
		PlateSize:           cfg.PlateSize,
		ApertureIndex:       cfg.ApertureIndex,
		ApertureOpening:     cfg.ApertureOpening,
		Blades:              cfg.Blades,
		ApertureResolution:  cfg.ApertureResolution,
		StarburstResolution: cfg.StarburstResolution,
		NumInterfaces:       numInterfaces,
		CoatingQuality:      cfg.CoatingQuality,
		BackbufferSize:      [2]int{cfg.BackbufferWidth, cfg.BackbufferHeight},
	}, nil
}
