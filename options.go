// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import "github.com/gogpu/lensflare/lens"

// Option configures a Session during creation.
//
// Example:
//
//	s, err := lensflare.New(
//	    lensflare.WithBackbuffer(1280, 720),
//	    lensflare.WithMaxGhosts(0), // draw every ghost
//	)
type Option func(*sessionOptions)

type sessionOptions struct {
	config       Config
	prescription lens.Prescription
	accelerator  Accelerator
}

func defaultOptions() sessionOptions {
	return sessionOptions{
		config:       DefaultConfig(),
		prescription: lens.Nikon28to75(),
	}
}

// WithConfig replaces the whole configuration. Options applied after it
// still override single fields.
func WithConfig(cfg Config) Option {
	return func(o *sessionOptions) {
		o.config = cfg
	}
}

// WithPrescription renders a different lens. The default is the Nikon
// 28-75mm reference lens.
func WithPrescription(p lens.Prescription) Option {
	return func(o *sessionOptions) {
		o.prescription = p
	}
}

// WithBackbuffer sets the output image size.
func WithBackbuffer(width, height int) Option {
	return func(o *sessionOptions) {
		o.config.BackbufferWidth = width
		o.config.BackbufferHeight = height
	}
}

// WithTessellation sets the ray grid size per ghost.
func WithTessellation(t int) Option {
	return func(o *sessionOptions) {
		o.config.Tessellation = t
	}
}

// WithMaxGhosts caps the composited ghosts. Zero or negative draws all.
func WithMaxGhosts(n int) Option {
	return func(o *sessionOptions) {
		o.config.MaxGhosts = n
	}
}

// WithWorkers sizes the CPU worker pool.
func WithWorkers(n int) Option {
	return func(o *sessionOptions) {
		o.config.Workers = n
	}
}

// WithStarburstMode selects "fft" or "procedural".
func WithStarburstMode(mode string) Option {
	return func(o *sessionOptions) {
		o.config.StarburstMode = mode
	}
}

// WithAccelerator uses a for ray tracing instead of the registered
// accelerator. The session does not close it.
func WithAccelerator(a Accelerator) Option {
	return func(o *sessionOptions) {
		o.accelerator = a
		if a != nil && o.config.Accelerator == AcceleratorCPU {
			o.config.Accelerator = AcceleratorAuto
		}
	}
}
