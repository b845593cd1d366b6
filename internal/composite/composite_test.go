// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"math"
	"testing"

	"github.com/gogpu/lensflare/internal/color"
	"github.com/gogpu/lensflare/internal/parallel"
	"github.com/gogpu/lensflare/internal/raytrace"
	"github.com/gogpu/lensflare/internal/starburst"
)

func near(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

// fullScreenBuffer returns a buffer whose ghosts each cover the whole
// target with a 2x2 grid of white, fully covered vertices.
func fullScreenBuffer(ghosts int) *raytrace.Buffer {
	buf := raytrace.NewBuffer(ghosts, 2)
	for g := range ghosts {
		for row := range 2 {
			for col := range 2 {
				buf.Vertices[buf.Index(g, row, col)] = raytrace.Vertex{
					X: float32(2*col - 1),
					Y: float32(1 - 2*row),
					R: 1, G: 1, B: 1, A: 1,
				}
			}
		}
	}
	return buf
}

// =============================================================================
// Mesh / Colour Tests
// =============================================================================

func TestMeshIndices(t *testing.T) {
	for tess := 0; tess <= 33; tess++ {
		idx := MeshIndices(tess)
		want := 0
		if tess >= 2 {
			want = 6 * (tess - 1) * (tess - 1)
		}
		if len(idx) != want {
			t.Errorf("MeshIndices(%d) has %d indices, want %d", tess, len(idx), want)
		}
		for _, i := range idx {
			if int(i) >= tess*tess {
				t.Fatalf("MeshIndices(%d) index %d out of range", tess, i)
			}
		}
	}
	if got := MeshIndices(2); len(got) != 6 || got[0] != 0 || got[1] != 1 || got[2] != 2 || got[4] != 3 {
		t.Errorf("MeshIndices(2) = %v", got)
	}
}

func TestGhostColor(t *testing.T) {
	for i := range 20 {
		if GhostColor(i) != GhostColor(i) {
			t.Fatalf("GhostColor(%d) not deterministic", i)
		}
		if GhostColor(i) != color.Hue(0.137*float32(i)) {
			t.Errorf("GhostColor(%d) = %v", i, GhostColor(i))
		}
	}
	if GhostColor(0) == GhostColor(1) {
		t.Error("neighbouring ghosts share a colour")
	}
}

// =============================================================================
// Rasterizer Tests
// =============================================================================

func TestDrawGhosts_CoversEachPixelOnce(t *testing.T) {
	pool := parallel.NewPool(3)
	defer pool.Close()

	for _, size := range [][2]int{{8, 8}, {13, 7}, {16, 9}} {
		dst := NewTarget(size[0], size[1])
		n, err := DrawGhosts(pool, dst, fullScreenBuffer(1), MeshIndices(2), GhostOptions{Intensity: 1})
		if err != nil || n != 1 {
			t.Fatalf("DrawGhosts = %d, %v", n, err)
		}
		want := GhostColor(0)
		for y := range dst.Height {
			for x := range dst.Width {
				px := dst.At(x, y)
				if !near(px[0], want.R, 1e-5) || !near(px[1], want.G, 1e-5) || !near(px[2], want.B, 1e-5) {
					t.Fatalf("%dx%d pixel (%d,%d) = %v, want %v once", size[0], size[1], x, y, px, want)
				}
			}
		}
	}
}

func TestDrawGhosts_CapLowestFirst(t *testing.T) {
	pool := parallel.NewPool(2)
	defer pool.Close()

	tests := []struct {
		name string
		max  int
		want int
	}{
		{"capped", 2, 2},
		{"uncapped", 0, 3},
		{"negative uncapped", -1, 3},
		{"cap above count", 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewTarget(4, 4)
			n, err := DrawGhosts(pool, dst, fullScreenBuffer(3), MeshIndices(2), GhostOptions{MaxGhosts: tt.max, Intensity: 1})
			if err != nil {
				t.Fatal(err)
			}
			if n != tt.want {
				t.Errorf("drew %d ghosts, want %d", n, tt.want)
			}
			var want color.RGB
			for g := range tt.want {
				want = want.Add(GhostColor(g))
			}
			px := dst.At(1, 2)
			if !near(px[0], want.R, 1e-5) || !near(px[1], want.G, 1e-5) || !near(px[2], want.B, 1e-5) {
				t.Errorf("pixel = %v, want %v", px, want)
			}
		})
	}
}

func TestDrawGhosts_ZeroCoverageDropped(t *testing.T) {
	pool := parallel.NewPool(2)
	defer pool.Close()

	buf := fullScreenBuffer(1)
	buf.Vertices[buf.Index(0, 0, 1)].A = 0 // shared by both triangles
	dst := NewTarget(8, 8)
	if _, err := DrawGhosts(pool, dst, buf, MeshIndices(2), GhostOptions{Intensity: 1}); err != nil {
		t.Fatal(err)
	}
	if s := dst.Sum(); s != ([4]float64{}) {
		t.Errorf("target sum = %v, want black", s)
	}
}

func TestDrawGhosts_Empty(t *testing.T) {
	pool := parallel.NewPool(1)
	defer pool.Close()

	dst := NewTarget(4, 4)
	n, err := DrawGhosts(pool, dst, raytrace.NewBuffer(0, 8), MeshIndices(8), GhostOptions{MaxGhosts: 10, Intensity: 1})
	if err != nil || n != 0 {
		t.Errorf("DrawGhosts(empty) = %d, %v", n, err)
	}
}

func TestDrawGhosts_IndependentOfWorkerCount(t *testing.T) {
	const tess = 9
	buf := raytrace.NewBuffer(4, tess)
	for g := range 4 {
		for row := range tess {
			for col := range tess {
				u := float64(col)/(tess-1)*2 - 1
				v := float64(row)/(tess-1)*2 - 1
				wobble := 0.1 * math.Sin(float64(3*g)+u*4) * math.Cos(v*3)
				buf.Vertices[buf.Index(g, row, col)] = raytrace.Vertex{
					X: float32(0.8*u + wobble),
					Y: float32(0.7*v - wobble),
					R: float32(0.3 + 0.2*u*u), G: 0.5, B: float32(0.6 - 0.1*v),
					A: float32(1 - 0.5*u*u),
				}
			}
		}
	}

	render := func(workers int) *Target {
		pool := parallel.NewPool(workers)
		defer pool.Close()
		dst := NewTarget(37, 23)
		if _, err := DrawGhosts(pool, dst, buf, MeshIndices(tess), GhostOptions{Intensity: 3}); err != nil {
			t.Fatal(err)
		}
		return dst
	}

	a, b := render(1), render(5)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("float %d differs: %v vs %v", i, a.Pix[i], b.Pix[i])
		}
	}
	if s := a.Sum(); s[0] == 0 {
		t.Error("nothing was drawn")
	}
}

// =============================================================================
// Starburst Compositing Tests
// =============================================================================

func TestAddStarburst(t *testing.T) {
	pool := parallel.NewPool(2)
	defer pool.Close()

	tex := &starburst.Texture{Resolution: 2, Pix: make([]float32, 12)}
	for i := range tex.Pix {
		tex.Pix[i] = 1
	}

	dst := NewTarget(40, 20)
	err := AddStarburst(pool, dst, tex, Sprite{Size: 0.5, Tint: color.RGB{R: 2, G: 1, B: 0.5}})
	if err != nil {
		t.Fatal(err)
	}

	center := dst.At(20, 10)
	if center != [4]float32{2, 1, 0.5, 0} {
		t.Errorf("centre = %v", center)
	}
	// Half height 0.5 NDC = 5 px, so the square spans x in [15, 25).
	if px := dst.At(2, 10); px != ([4]float32{}) {
		t.Errorf("pixel outside sprite = %v", px)
	}
	if px := dst.At(20, 1); px != ([4]float32{}) {
		t.Errorf("pixel above sprite = %v", px)
	}
}

func TestAddStarburst_NoOp(t *testing.T) {
	pool := parallel.NewPool(1)
	defer pool.Close()

	dst := NewTarget(8, 8)
	tex := &starburst.Texture{Resolution: 2, Pix: []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}}
	for _, s := range []Sprite{
		{Size: 0, Tint: color.Gray(1)},
		{Size: 1},
		{Size: 0.1, Center: [2]float32{5, 5}, Tint: color.Gray(1)},
	} {
		if err := AddStarburst(pool, dst, tex, s); err != nil {
			t.Fatal(err)
		}
	}
	if err := AddStarburst(pool, dst, nil, Sprite{Size: 1, Tint: color.Gray(1)}); err != nil {
		t.Fatal(err)
	}
	if s := dst.Sum(); s != ([4]float64{}) {
		t.Errorf("sum = %v, want nothing drawn", s)
	}
}

func TestTarget_Bands(t *testing.T) {
	dst := NewTarget(3, 10)
	bands := dst.bands(4)
	covered := 0
	next := 0
	for _, b := range bands {
		if b[0] != next {
			t.Fatalf("bands not contiguous: %v", bands)
		}
		covered += b[1] - b[0]
		next = b[1]
	}
	if covered != 10 {
		t.Errorf("bands cover %d rows, want 10", covered)
	}
	if NewTarget(3, 0).bands(4) != nil {
		t.Error("empty target has bands")
	}
}

func BenchmarkDrawGhosts(b *testing.B) {
	pool := parallel.NewPool(0)
	defer pool.Close()

	buf := fullScreenBuffer(10)
	dst := NewTarget(1920, 1080)
	idx := MeshIndices(2)
	for b.Loop() {
		dst.Clear()
		_, _ = DrawGhosts(pool, dst, buf, idx, GhostOptions{MaxGhosts: 10, Intensity: 1})
	}
}
