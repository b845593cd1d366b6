//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/lensflare/internal/aperture"
	"github.com/gogpu/lensflare/internal/raytrace"
	"github.com/gogpu/lensflare/lens"
)

// GPU record sizes. They match the structs in shaders/raytrace.wgsl.
const (
	interfaceWords = raytrace.InterfaceFloats
	ghostWords     = raytrace.GhostFloats
	paramsBytes    = 64
)

// minBufferBytes keeps bindings valid when a buffer would be empty.
const minBufferBytes = 16

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// packInterfaces writes each interface as three vec4:
// (center.xyz, radius), (n0, n1, n2, aperture), (lambda, flat, pos, width).
func packInterfaces(ifs []lens.Interface) []byte {
	buf := make([]byte, max(len(ifs)*interfaceWords*4, minBufferBytes))
	for i, f := range ifs {
		w := [interfaceWords]float32{
			f.Center.X(), f.Center.Y(), f.Center.Z(), f.Radius,
			f.N[0], f.N[1], f.N[2], f.Aperture,
			f.CoatingLambda, 0, f.Pos, f.Width,
		}
		if f.Flat {
			w[9] = 1
		}
		off := i * interfaceWords * 4
		for j, v := range w {
			putF32(buf[off+j*4:], v)
		}
	}
	return buf
}

func packGhosts(ghosts []lens.Ghost) []byte {
	buf := make([]byte, max(len(ghosts)*ghostWords*4, minBufferBytes))
	for i, g := range ghosts {
		off := i * ghostWords * 4
		binary.LittleEndian.PutUint32(buf[off:], uint32(g.Bounce1))   //nolint:gosec // interface indices are small
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(g.Bounce2)) //nolint:gosec // interface indices are small
	}
	return buf
}

// packParams lays out the Params uniform.
func packParams(p *raytrace.Params, interfaces, ghosts, maskRes int) []byte {
	buf := make([]byte, paramsBytes)
	putF32(buf[0:], p.LightDir.X())
	putF32(buf[4:], p.LightDir.Y())
	putF32(buf[8:], p.LightDir.Z())
	putF32(buf[12:], p.Spread)
	putF32(buf[16:], p.PlateSize)
	putF32(buf[20:], p.CoatingQuality)
	binary.LittleEndian.PutUint32(buf[24:], uint32(int32(p.Stop))) //nolint:gosec // -1 wraps to the i32 bit pattern
	binary.LittleEndian.PutUint32(buf[28:], uint32(p.Tessellation)) //nolint:gosec // validated by Job.Validate
	binary.LittleEndian.PutUint32(buf[32:], uint32(interfaces))     //nolint:gosec // small
	binary.LittleEndian.PutUint32(buf[36:], uint32(ghosts))         //nolint:gosec // small
	binary.LittleEndian.PutUint32(buf[40:], uint32(maskRes))        //nolint:gosec // small
	putF32(buf[48:], p.Pupil.Center.X())
	putF32(buf[52:], p.Pupil.Center.Y())
	putF32(buf[56:], p.Pupil.Radius)
	return buf
}

// packMask returns the mask texels and resolution. A nil mask packs a
// dummy texel with resolution 0, which makes the shader clip to the stop
// radius.
func packMask(m *aperture.Mask) ([]byte, int) {
	if m == nil || m.Resolution == 0 {
		return make([]byte, minBufferBytes), 0
	}
	buf := make([]byte, max(len(m.Data)*4, minBufferBytes))
	for i, v := range m.Data {
		putF32(buf[i*4:], v)
	}
	return buf, m.Resolution
}

// unpackVertices decodes GPU vertex records into dst.
func unpackVertices(src []byte, dst []raytrace.Vertex) {
	var w [raytrace.VertexFloats]float32
	stride := raytrace.VertexFloats * 4
	for i := range dst {
		off := i * stride
		if off+stride > len(src) {
			return
		}
		for j := range w {
			w[j] = getF32(src[off+j*4:])
		}
		dst[i] = raytrace.UnpackVertex(w[:])
	}
}
