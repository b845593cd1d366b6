// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/lensflare/lens"
)

// =============================================================================
// Options
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if len(o.prescription) != 29 {
		t.Errorf("default prescription has %d surfaces, want 29", len(o.prescription))
	}
	if o.config != DefaultConfig() {
		t.Error("default options should carry DefaultConfig")
	}
	if o.accelerator != nil {
		t.Error("no accelerator should be preset")
	}
}

func TestOptionsApplyInOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tessellation = 8

	o := defaultOptions()
	for _, opt := range []Option{
		WithBackbuffer(64, 32),
		WithConfig(cfg), // resets the backbuffer
		WithMaxGhosts(0),
		WithWorkers(3),
		WithStarburstMode("procedural"),
		WithPrescription(lens.Prescription{}),
	} {
		opt(&o)
	}

	c := o.config
	if c.BackbufferWidth != 1920 || c.BackbufferHeight != 1080 {
		t.Errorf("backbuffer = %dx%d, want WithConfig to reset it", c.BackbufferWidth, c.BackbufferHeight)
	}
	if c.Tessellation != 8 || c.MaxGhosts != 0 || c.Workers != 3 || c.StarburstMode != "procedural" {
		t.Errorf("config = %+v", c)
	}
	if len(o.prescription) != 0 {
		t.Errorf("prescription has %d surfaces, want 0", len(o.prescription))
	}
}

func TestWithAcceleratorLeavesCPUMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Accelerator = AcceleratorCPU

	o := defaultOptions()
	WithConfig(cfg)(&o)
	WithAccelerator(&mockAccelerator{name: "m"})(&o)

	if o.config.Accelerator != AcceleratorAuto {
		t.Errorf("Accelerator = %q, want %q", o.config.Accelerator, AcceleratorAuto)
	}
}

// =============================================================================
// Config
// =============================================================================

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.ApertureIndex != 14 || cfg.ApertureOpening != 7 || cfg.Blades != 6 {
		t.Errorf("iris = index %d opening %v blades %d", cfg.ApertureIndex, cfg.ApertureOpening, cfg.Blades)
	}
	if cfg.Spread != 0.75 || cfg.PlateSize != 10 || cfg.CoatingQuality != 1.25 {
		t.Errorf("trace = spread %v plate %v coating %v", cfg.Spread, cfg.PlateSize, cfg.CoatingQuality)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.BackbufferWidth = 0 }},
		{"negative height", func(c *Config) { c.BackbufferHeight = -1 }},
		{"tessellation 1", func(c *Config) { c.Tessellation = 1 }},
		{"zero spread", func(c *Config) { c.Spread = 0 }},
		{"zero plate", func(c *Config) { c.PlateSize = 0 }},
		{"zero coating", func(c *Config) { c.CoatingQuality = 0 }},
		{"aperture index -2", func(c *Config) { c.ApertureIndex = -2 }},
		{"negative opening", func(c *Config) { c.ApertureOpening = -1 }},
		{"negative blades", func(c *Config) { c.Blades = -1 }},
		{"aperture resolution 1", func(c *Config) { c.ApertureResolution = 1 }},
		{"starburst resolution 0", func(c *Config) { c.StarburstResolution = 0 }},
		{"starburst mode", func(c *Config) { c.StarburstMode = "wave" }},
		{"negative starburst size", func(c *Config) { c.StarburstSize = -1 }},
		{"negative ghost intensity", func(c *Config) { c.GhostIntensity = -1 }},
		{"zero exposure", func(c *Config) { c.Exposure = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"tone curve", func(c *Config) { c.ToneCurve = "filmic" }},
		{"accelerator", func(c *Config) { c.Accelerator = "tpu" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`{"tessellation": 16, "tone_curve": "reinhard", "max_ghosts": 0}`))
	if err != nil {
		t.Fatalf("ParseConfig() = %v", err)
	}
	want := DefaultConfig()
	want.Tessellation = 16
	want.ToneCurve = "reinhard"
	want.MaxGhosts = 0
	if cfg != want {
		t.Errorf("ParseConfig() = %+v\nwant %+v", cfg, want)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", `{"tesselation": 16}`},
		{"syntax", `{"tessellation": }`},
		{"invalid value", `{"exposure": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig(strings.NewReader(tt.doc)); err == nil {
				t.Error("ParseConfig() = nil, want error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flare.json")
	if err := os.WriteFile(path, []byte(`{"blades": 8}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if cfg.Blades != 8 {
		t.Errorf("Blades = %d, want 8", cfg.Blades)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want os.ErrNotExist", err)
	}
}
