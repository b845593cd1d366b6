// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("lensflare: session is closed")

	// ErrInvalidLight is returned for a zero or non-finite light direction.
	ErrInvalidLight = errors.New("lensflare: invalid light direction")

	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = errors.New("lensflare: invalid config")

	// ErrNoAccelerator is returned when a GPU tracer is required but none
	// is registered.
	ErrNoAccelerator = errors.New("lensflare: no accelerator registered")

	// ErrGraphCycle is returned when pass dependencies form a cycle.
	ErrGraphCycle = errors.New("lensflare: pass graph has a cycle")

	// ErrGraphConflict is returned when two passes both create the same
	// resource from scratch.
	ErrGraphConflict = errors.New("lensflare: conflicting resource writers")
)

// SetupError reports a failure while creating a session. No session is
// returned alongside it.
type SetupError struct {
	// Stage names the setup step: "config", "prescription", "lens",
	// "accelerator", "tonemap" or "graph".
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("lensflare: setup %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// FrameError reports a failure while rendering a frame. The displayed
// image keeps the last successfully rendered frame.
type FrameError struct {
	// Pass is the name of the failing pass or barrier.
	Pass string
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("lensflare: frame pass %s: %v", e.Pass, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
