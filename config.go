// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/lensflare/internal/starburst"
	"github.com/gogpu/lensflare/internal/tonemap"
)

// Accelerator selection modes.
const (
	AcceleratorAuto = "auto"
	AcceleratorCPU  = "cpu"
	AcceleratorGPU  = "gpu"
)

// Config holds every tunable of a session.
//
// The zero value is not usable; start from DefaultConfig. LoadConfig and
// ParseConfig overlay a JSON document on the defaults, so a file only
// needs the keys it changes.
type Config struct {
	// BackbufferWidth and BackbufferHeight size the output image.
	BackbufferWidth  int `json:"backbuffer_width"`
	BackbufferHeight int `json:"backbuffer_height"`

	// Tessellation is the ray grid size per ghost.
	Tessellation int `json:"tessellation"`

	// Spread is the fraction of the ray grid the entrance pupil spans.
	Spread float32 `json:"spread"`

	// PlateSize is the sensor half extent mapped to the image edge.
	PlateSize float32 `json:"plate_size"`

	// CoatingQuality is the minimum anti-reflection coating index.
	CoatingQuality float32 `json:"coating_quality"`

	// ApertureIndex is the interface holding the iris. -1 selects the
	// first interior flat surface of the lens.
	ApertureIndex int `json:"aperture_index"`

	// ApertureOpening is the iris radius in lens units.
	ApertureOpening float32 `json:"aperture_opening"`

	// Blades is the number of iris blades. Fewer than three is round.
	Blades int `json:"blades"`

	// ApertureResolution is the iris mask size in texels.
	ApertureResolution int `json:"aperture_resolution"`

	// StarburstResolution is the starburst texture size in texels.
	StarburstResolution int `json:"starburst_resolution"`

	// StarburstMode is "fft" or "procedural".
	StarburstMode string `json:"starburst_mode"`

	// StarburstSize is the half height of the starburst sprite in NDC.
	StarburstSize float32 `json:"starburst_size"`

	// StarburstIntensity scales the starburst.
	StarburstIntensity float32 `json:"starburst_intensity"`

	// MaxGhosts caps how many ghosts are composited. Zero or negative
	// composites every ghost.
	MaxGhosts int `json:"max_ghosts"`

	// GhostIntensity scales every ghost.
	GhostIntensity float32 `json:"ghost_intensity"`

	// Exposure multiplies the HDR image before tone mapping.
	Exposure float32 `json:"exposure"`

	// ToneCurve is "aces", "reinhard" or "clamp".
	ToneCurve string `json:"tone_curve"`

	// Workers sizes the CPU worker pool. Zero uses GOMAXPROCS.
	Workers int `json:"workers"`

	// Accelerator is "auto", "cpu" or "gpu".
	Accelerator string `json:"accelerator"`

	// AllowEmptyLens accepts a prescription without surfaces. Such a
	// session renders black frames.
	AllowEmptyLens bool `json:"allow_empty_lens"`
}

// DefaultConfig returns the configuration of the reference renderer.
func DefaultConfig() Config {
	return Config{
		BackbufferWidth:     1920,
		BackbufferHeight:    1080,
		Tessellation:        32,
		Spread:              0.75,
		PlateSize:           10,
		CoatingQuality:      1.25,
		ApertureIndex:       14,
		ApertureOpening:     7,
		Blades:              6,
		ApertureResolution:  512,
		StarburstResolution: 512,
		StarburstMode:       string(starburst.ModeFFT),
		StarburstSize:       0.6,
		StarburstIntensity:  1,
		MaxGhosts:           10,
		GhostIntensity:      100,
		Exposure:            1,
		ToneCurve:           "aces",
		Workers:             0,
		Accelerator:         AcceleratorAuto,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}
	switch {
	case c.BackbufferWidth <= 0 || c.BackbufferHeight <= 0:
		return bad("backbuffer %dx%d", c.BackbufferWidth, c.BackbufferHeight)
	case c.Tessellation < 2:
		return bad("tessellation %d < 2", c.Tessellation)
	case !(c.Spread > 0):
		return bad("spread %v", c.Spread)
	case !(c.PlateSize > 0):
		return bad("plate size %v", c.PlateSize)
	case !(c.CoatingQuality > 0):
		return bad("coating quality %v", c.CoatingQuality)
	case c.ApertureIndex < -1:
		return bad("aperture index %d", c.ApertureIndex)
	case !(c.ApertureOpening >= 0):
		return bad("aperture opening %v", c.ApertureOpening)
	case c.Blades < 0:
		return bad("blades %d", c.Blades)
	case c.ApertureResolution < 2:
		return bad("aperture resolution %d", c.ApertureResolution)
	case c.StarburstResolution < 2:
		return bad("starburst resolution %d", c.StarburstResolution)
	case !starburst.Mode(c.StarburstMode).Valid():
		return bad("starburst mode %q", c.StarburstMode)
	case !(c.StarburstSize >= 0) || !(c.StarburstIntensity >= 0):
		return bad("starburst size %v intensity %v", c.StarburstSize, c.StarburstIntensity)
	case !(c.GhostIntensity >= 0):
		return bad("ghost intensity %v", c.GhostIntensity)
	case !(c.Exposure > 0):
		return bad("exposure %v", c.Exposure)
	case c.Workers < 0:
		return bad("workers %d", c.Workers)
	}
	if _, err := tonemap.ByName(c.ToneCurve); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Accelerator {
	case AcceleratorAuto, AcceleratorCPU, AcceleratorGPU:
	default:
		return bad("accelerator %q", c.Accelerator)
	}
	return nil
}

// ParseConfig decodes a JSON document over DefaultConfig and validates the
// result. Unknown keys are rejected.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("lensflare: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a JSON config file. See ParseConfig.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is user supplied by design of the CLI
	if err != nil {
		return Config{}, fmt.Errorf("lensflare: load config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}
