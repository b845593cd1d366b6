// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lens

// Ghost is a light path that reflects off two interior interfaces before
// reaching the sensor.
//
// Bounce2 is the sensor-side member of the pair and Bounce1 the
// scene-side member: Bounce2+2 <= Bounce1. Light travelling toward the
// sensor reflects first at Bounce2, travels back toward the scene,
// reflects at Bounce1 and then continues to the sensor.
type Ghost struct {
	Bounce1 int
	Bounce2 int
}

// GhostCount returns the number of ghosts EnumerateGhosts yields for n
// interfaces.
func GhostCount(n int) int {
	if n < 4 {
		return 0
	}
	// Bounce2 in [1, n-4], Bounce1 in [Bounce2+2, n-2].
	m := n - 4
	return m * (m + 1) / 2
}

// EnumerateGhosts lists every admissible bounce pair for n interfaces.
//
// The order is Bounce2 ascending, then Bounce1 ascending. Downstream
// buffers are indexed by position in this list, so the order is part of
// the contract. Neither bounce is ever the first or last interface and
// the two bounces are never adjacent.
func EnumerateGhosts(n int) []Ghost {
	ghosts := make([]Ghost, 0, GhostCount(n))
	for b2 := 1; b2 < n-1; b2++ {
		for b1 := b2 + 2; b1 < n-1; b1++ {
			ghosts = append(ghosts, Ghost{Bounce1: b1, Bounce2: b2})
		}
	}
	return ghosts
}
