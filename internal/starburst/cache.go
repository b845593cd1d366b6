// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package starburst

import (
	"fmt"

	"github.com/gogpu/lensflare/internal/aperture"
	"github.com/gogpu/lensflare/internal/cache"
)

// Mode selects how the starburst is built.
type Mode string

// Starburst modes.
const (
	ModeFFT        Mode = "fft"
	ModeProcedural Mode = "procedural"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeFFT || m == ModeProcedural
}

// Key identifies a starburst texture. Equal keys give equal textures.
type Key struct {
	Mode       Mode
	Resolution int
	Blades     int
	Radius     float32
}

// Cache memoizes starburst textures. The iris rarely changes between
// frames, so the FFT normally runs once per session.
type Cache struct {
	textures *cache.Cache[Key, *Texture]
}

// NewCache returns a cache holding up to capacity textures.
func NewCache(capacity int) *Cache {
	return &Cache{textures: cache.New[Key, *Texture](capacity)}
}

// Get returns the texture for k, building it from mask on a miss. mask
// must be the iris k describes.
func (c *Cache) Get(k Key, mask *aperture.Mask) (*Texture, error) {
	return c.textures.GetOrCompute(k, func() (*Texture, error) {
		switch k.Mode {
		case ModeFFT:
			return FromAperture(mask, k.Resolution)
		case ModeProcedural:
			return Procedural(k.Resolution, k.Blades)
		default:
			return nil, fmt.Errorf("starburst: unknown mode %q", k.Mode)
		}
	})
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() cache.Stats {
	return c.textures.Stats()
}
