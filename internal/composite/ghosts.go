// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"github.com/gogpu/lensflare/internal/blend"
	"github.com/gogpu/lensflare/internal/parallel"
	"github.com/gogpu/lensflare/internal/raytrace"
)

// bandsPerWorker oversubscribes the pool so uneven bands balance out.
const bandsPerWorker = 2

// GhostOptions control ghost compositing.
type GhostOptions struct {
	// MaxGhosts caps how many ghosts are drawn, lowest index first.
	// Zero or negative draws every ghost.
	MaxGhosts int

	// Intensity scales every ghost.
	Intensity float32
}

// DrawCount returns how many of n ghosts are drawn under the cap.
func (o GhostOptions) DrawCount(n int) int {
	if o.MaxGhosts > 0 && n > o.MaxGhosts {
		return o.MaxGhosts
	}
	return n
}

// DrawGhosts rasterizes the traced grids of buf into dst with additive
// blending and returns the number of ghosts drawn.
//
// indices is the grid triangulation from MeshIndices. Each vertex is
// tinted by GhostColor of its ghost, its traced throughput and
// o.Intensity; its coverage is the blend alpha. Triangles touching a
// vertex with zero coverage are dropped, since those vertices carry no
// valid sensor position.
func DrawGhosts(pool *parallel.Pool, dst *Target, buf *raytrace.Buffer, indices []uint32, o GhostOptions) (int, error) {
	if buf.Len() == 0 {
		return 0, nil
	}
	n := o.DrawCount(buf.Ghosts)
	if len(indices) < 3 {
		return n, nil
	}

	tris := make([]triangle, 0, n*len(indices)/3)
	for g := range n {
		tint := GhostColor(g).Scale(o.Intensity)
		verts := buf.Ghost(g)
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := verts[indices[i]], verts[indices[i+1]], verts[indices[i+2]]
			if a.A <= 0 || b.A <= 0 || c.A <= 0 {
				continue
			}
			tri, ok := setupTriangle(
				screenVertex(dst, a, tint.R, tint.G, tint.B),
				screenVertex(dst, b, tint.R, tint.G, tint.B),
				screenVertex(dst, c, tint.R, tint.G, tint.B),
				dst.Width, dst.Height,
			)
			if ok {
				tris = append(tris, tri)
			}
		}
	}
	if len(tris) == 0 {
		return n, nil
	}

	bands := dst.bands(pool.Workers() * bandsPerWorker)
	err := pool.Run(len(bands), 1, func(i int) {
		y0, y1 := bands[i][0], bands[i][1]
		for k := range tris {
			rasterize(dst, &tris[k], y0, y1, blend.Additive)
		}
	})
	return n, err
}

func screenVertex(dst *Target, v raytrace.Vertex, tr, tg, tb float32) vertex {
	x, y := dst.toPixel(v.X, v.Y)
	return vertex{x: snap(x), y: snap(y), r: v.R * tr, g: v.G * tg, b: v.B * tb, a: v.A}
}
