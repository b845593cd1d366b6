// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raytrace traces the ghost rays of a lens system into a dense
// vertex grid.
//
// Every ghost owns a Tessellation x Tessellation grid of samples spread
// across the entrance pupil. A dispatch fills the grid of every ghost and
// returns a [Fence]; the grid is only safe to read after the fence has been
// waited on.
//
// The CPU tracer runs on an internal/parallel pool. Other tracers, such as
// the GPU compute tracer in internal/gpu, implement the same [Tracer]
// contract and write the same [Buffer] layout.
package raytrace
