// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"math"

	"github.com/gogpu/lensflare/internal/blend"
	"github.com/gogpu/lensflare/internal/color"
	"github.com/gogpu/lensflare/internal/parallel"
	"github.com/gogpu/lensflare/internal/starburst"
)

// Sprite places a starburst texture on the target.
type Sprite struct {
	// Center is the sprite centre in NDC.
	Center [2]float32

	// Size is the half height of the sprite in NDC. The width follows
	// from the target aspect so the sprite stays square on screen.
	Size float32

	// Tint multiplies every texel.
	Tint color.RGB
}

// AddStarburst adds tex, placed by s, into dst.
func AddStarburst(pool *parallel.Pool, dst *Target, tex *starburst.Texture, s Sprite) error {
	if tex == nil || s.Size <= 0 || dst.Width == 0 || dst.Height == 0 {
		return nil
	}
	if s.Tint == (color.RGB{}) {
		return nil
	}

	halfH := s.Size * float32(dst.Height) / 2
	halfW := halfH
	cx, cy := dst.toPixel(s.Center[0], s.Center[1])

	x0 := max(0, int(math.Floor(float64(cx-halfW))))
	x1 := min(dst.Width, int(math.Ceil(float64(cx+halfW))))
	y0 := max(0, int(math.Floor(float64(cy-halfH))))
	y1 := min(dst.Height, int(math.Ceil(float64(cy+halfH))))
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	tint := [3]float32{s.Tint.R, s.Tint.G, s.Tint.B}
	rows := y1 - y0
	return pool.Run(rows, 8, func(i int) {
		y := y0 + i
		v := (float32(y) + 0.5 - (cy - halfH)) / (2 * halfH)
		row := dst.Row(y)
		for x := x0; x < x1; x++ {
			u := (float32(x) + 0.5 - (cx - halfW)) / (2 * halfW)
			texel := tex.Sample(u, v)
			if texel == ([3]float32{}) {
				continue
			}
			texel[0] *= tint[0]
			texel[1] *= tint[1]
			texel[2] *= tint[2]
			blend.AddRGB(row[4*x:4*x+3], texel, 1)
		}
	})
}
