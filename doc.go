// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lensflare renders physically derived camera lens flares.
//
// A [Session] owns a lens system built from a patent prescription, the
// list of ghosts (pairs of internal reflections) that lens produces, and
// every per-frame buffer. Each call to [Session.Render] traces a grid of
// rays through every ghost, rasterizes the resulting ghost meshes into an
// HDR framebuffer with additive blending, adds a diffraction starburst
// and tone maps the result to an 8-bit sRGB image.
//
// # Quick Start
//
//	s, err := lensflare.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	light := lensflare.LightFromPointer(0.3, -0.1)
//	if _, err := s.Render(ctx, 0, light); err != nil {
//	    log.Fatal(err)
//	}
//	png.Encode(w, s.Image())
//
// # Frame Graph
//
// A frame is a set of passes that declare the resources they read and
// write. At session creation the passes are ordered from those
// declarations and a barrier is placed in front of every pass that reads
// the output of an asynchronous pass. [Session.Plan] shows the result.
//
// # Acceleration
//
// Ray tracing runs on a CPU worker pool by default. Importing
// github.com/gogpu/lensflare/gpu registers a compute-shader tracer that
// is used when a GPU is available:
//
//	import _ "github.com/gogpu/lensflare/gpu"
//
// # Logging
//
// The package is silent by default. Use [SetLogger] to route its
// diagnostics into a log/slog handler.
package lensflare
