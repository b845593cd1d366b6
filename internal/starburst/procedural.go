// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package starburst

import "math"

// Procedural draws a spike pattern for an iris with the given number of
// blades: one spike per blade edge pair, so an even blade count gives
// blades spikes and an odd count twice as many. Fewer than three blades
// gives a plain radial glow.
func Procedural(res, blades int) (*Texture, error) {
	tex, err := newTexture(res)
	if err != nil {
		return nil, err
	}

	spikes := 0
	switch {
	case blades < 3:
	case blades%2 == 0:
		spikes = blades
	default:
		spikes = 2 * blades
	}

	c := float64(res) / 2
	for y := range res {
		dy := (float64(y) + 0.5 - c) / c
		for x := range res {
			dx := (float64(x) + 0.5 - c) / c
			r := math.Hypot(dx, dy)
			if r >= 1 {
				continue
			}

			glow := math.Exp(-r * 24)
			var spike float64
			if spikes > 0 {
				a := math.Atan2(dy, dx)
				s := math.Abs(math.Cos(float64(spikes) / 2 * a))
				spike = math.Pow(s, 400) * math.Exp(-r*5)
			}
			v := glow + spike
			fade := 1 - r*r

			i := 3 * (y*res + x)
			for k, rgb := range spectralRGB(550 + 120*r) {
				tex.Pix[i+k] = float32(v * fade * (0.5 + 0.5*rgb))
			}
		}
	}
	return tex, nil
}
