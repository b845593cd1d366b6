// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package composite draws traced ghosts and the starburst into an HDR
// target with additive blending.
//
// Rasterization is split into horizontal bands that run in parallel on an
// internal/parallel pool. A band owns its rows exclusively and visits
// primitives in submission order, so the floating-point sums of a frame
// do not depend on scheduling.
package composite
