// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raytrace

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/lensflare/internal/optics"
	"github.com/gogpu/lensflare/lens"
)

// Pupil is the square of the entry plane the sample grid is laid over.
type Pupil struct {
	// Center is the middle of the square on the entry plane.
	Center mgl32.Vec2

	// Radius is the half side length. Zero means unset.
	Radius float32
}

// pupilScan is the grid size of each pupil search pass.
const pupilScan = 32

// FindPupil returns the entrance pupil of sys for light travelling along
// dir: the bounding square of entry points whose rays get through the
// aperture stop on their way in, with mask applied at the stop.
//
// A coarse pass over the front element is refined by a second pass over
// the square it found. Without a stop, or when no ray gets through, the
// whole front element is returned.
func FindPupil(sys *lens.System, dir mgl32.Vec3, stop int, mask MaskSampler) Pupil {
	n := sys.Len()
	if n == 0 {
		return Pupil{}
	}
	full := Pupil{Radius: sys.Interfaces[n-1].Aperture}
	if stop < 1 || stop >= n-1 || dir.Z() > -minDirZ {
		return full
	}
	dir = dir.Normalize()

	coarse, ok := scanPupil(sys, dir, stop, mask, full)
	if !ok {
		return full
	}
	if fine, ok := scanPupil(sys, dir, stop, mask, coarse); ok {
		return fine
	}
	return coarse
}

// scanPupil traces a pupilScan grid over area and returns the bounding
// square of the entry points that reach the stop, grown by one grid step.
func scanPupil(sys *lens.System, dir mgl32.Vec3, stop int, mask MaskSampler, area Pupil) (Pupil, bool) {
	step := 2 * area.Radius / (pupilScan - 1)
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	lit := false
	for j := range pupilScan {
		y := area.Center.Y() - area.Radius + float32(j)*step
		for i := range pupilScan {
			x := area.Center.X() - area.Radius + float32(i)*step
			if !reachesStop(sys, dir, stop, mask, x, y) {
				continue
			}
			lit = true
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if !lit {
		return Pupil{}, false
	}
	return Pupil{
		Center: mgl32.Vec2{(minX + maxX) / 2, (minY + maxY) / 2},
		Radius: max(maxX-minX, maxY-minY)/2 + step,
	}, true
}

func reachesStop(sys *lens.System, dir mgl32.Vec3, stop int, mask MaskSampler, x, y float32) bool {
	n := sys.Len()
	p := Params{Stop: stop}
	w := walker{
		ifs:       sys.Interfaces,
		p:         &p,
		mask:      mask,
		ray:       entryRay(sys.Interfaces[n-1], dir, x, y),
		coverage:  1,
		geometric: true,
	}
	for i := n - 1; i >= stop; i-- {
		if !w.refract(i) {
			return false
		}
	}
	return true
}

// entryRay starts a ray through (x, y) on the front element's vertex
// plane, backed off along dir so it starts clear of the element's sag.
// dir must be normalized.
func entryRay(front lens.Interface, dir mgl32.Vec3, x, y float32) optics.Ray {
	back := (front.Aperture + 1) / -dir.Z()
	return optics.Ray{Pos: mgl32.Vec3{x, y, front.Pos}.Sub(dir.Mul(back)), Dir: dir}
}
