// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raytrace

// VertexFloats is the number of float32 values in a packed Vertex.
// On a GPU a vertex is two vec4: (X, Y, U, V) and (R, G, B, A).
const VertexFloats = 8

// Vertex is the traced result of one sample of one ghost.
type Vertex struct {
	// X, Y is the position on the sensor in normalized device coordinates.
	X, Y float32

	// U, V is where the ray crossed the aperture stop, relative to the stop
	// radius.
	U, V float32

	// R, G, B is the per-channel throughput of the path.
	R, G, B float32

	// A is the coverage: aperture mask times edge fade. Zero for rays that
	// were clipped, missed a surface or were totally internally reflected.
	A float32
}

// Pack writes v into dst, which must hold at least VertexFloats values.
func (v Vertex) Pack(dst []float32) {
	_ = dst[VertexFloats-1]
	dst[0], dst[1], dst[2], dst[3] = v.X, v.Y, v.U, v.V
	dst[4], dst[5], dst[6], dst[7] = v.R, v.G, v.B, v.A
}

// UnpackVertex reads a vertex written by Pack.
func UnpackVertex(src []float32) Vertex {
	_ = src[VertexFloats-1]
	return Vertex{
		X: src[0], Y: src[1], U: src[2], V: src[3],
		R: src[4], G: src[5], B: src[6], A: src[7],
	}
}

// Buffer is the dense ray-trace result of a whole frame.
//
// Vertices holds Ghosts*Tessellation*Tessellation records. The record of
// ghost g at grid position (row, col) lives at (g*T+row)*T+col.
type Buffer struct {
	Ghosts       int
	Tessellation int
	Vertices     []Vertex
}

// NewBuffer allocates a zeroed buffer for the given ghost count and grid
// size.
func NewBuffer(ghosts, tessellation int) *Buffer {
	if ghosts < 0 {
		ghosts = 0
	}
	if tessellation < 0 {
		tessellation = 0
	}
	return &Buffer{
		Ghosts:       ghosts,
		Tessellation: tessellation,
		Vertices:     make([]Vertex, ghosts*tessellation*tessellation),
	}
}

// Len returns the number of records.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Vertices)
}

// Index returns the position of ghost g's record at (row, col).
func (b *Buffer) Index(g, row, col int) int {
	t := b.Tessellation
	return (g*t+row)*t + col
}

// At returns ghost g's record at (row, col).
func (b *Buffer) At(g, row, col int) Vertex {
	return b.Vertices[b.Index(g, row, col)]
}

// Ghost returns the T*T records of ghost g, row-major.
func (b *Buffer) Ghost(g int) []Vertex {
	n := b.Tessellation * b.Tessellation
	return b.Vertices[g*n : (g+1)*n]
}

// Reset zeroes every record.
func (b *Buffer) Reset() {
	clear(b.Vertices)
}

// ByteSize returns the packed size of the buffer in bytes.
func (b *Buffer) ByteSize() uint64 {
	return uint64(b.Len()) * VertexFloats * 4 //nolint:gosec // Len is non-negative
}
