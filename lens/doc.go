// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lens models a multi-element camera lens for flare simulation.
//
// A lens starts life as a [Prescription]: the front-to-back table of
// surfaces found in optical patents. [Build] turns it into a [System], an
// ordered list of [Interface] values positioned on the optical axis with
// index 0 at the sensor and the last index facing the scene.
// [EnumerateGhosts] then lists every two-bounce reflection path (a [Ghost])
// the flare renderer traces.
//
// Everything in this package is computed once per session and is
// read-only afterwards.
package lens
