// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/lensflare/internal/aperture"
	"github.com/gogpu/lensflare/internal/color"
	"github.com/gogpu/lensflare/internal/composite"
	"github.com/gogpu/lensflare/internal/raytrace"
	"github.com/gogpu/lensflare/internal/starburst"
	"github.com/gogpu/lensflare/internal/tonemap"
)

// Pass names.
const (
	PassClearHDR           = "clear-hdr"
	PassAperture           = "aperture"
	PassStarburst          = "starburst"
	PassRayTrace           = "raytrace"
	PassGhosts             = "ghosts"
	PassStarburstComposite = "starburst-composite"
	PassToneMap            = "tonemap"
)

// stage is a Pass built from functions.
type stage struct {
	name   string
	reads  []Resource
	writes []Resource
	async  bool
	skip   func(s *Session) bool
	run    func(s *Session, ctx context.Context) error
}

func (p *stage) Name() string         { return p.name }
func (p *stage) Reads() []Resource    { return p.reads }
func (p *stage) Writes() []Resource   { return p.writes }
func (p *stage) Async() bool          { return p.async }
func (p *stage) Skip(s *Session) bool { return p.skip != nil && p.skip(s) }

func (p *stage) Execute(ctx context.Context, s *Session) error {
	return p.run(s, ctx)
}

// framePasses returns the passes of a frame. The list is deliberately not
// in execution order; compile derives it.
func framePasses() []Pass {
	return []Pass{
		&stage{
			name:   PassToneMap,
			reads:  []Resource{ResourceHDR},
			writes: []Resource{ResourceDisplay},
			run:    (*Session).toneMap,
		},
		&stage{
			name:   PassGhosts,
			reads:  []Resource{ResourceParameters, ResourceRayTrace, ResourceHDR},
			writes: []Resource{ResourceHDR},
			skip:   (*Session).noGhosts,
			run:    (*Session).drawGhosts,
		},
		&stage{
			name:   PassStarburstComposite,
			reads:  []Resource{ResourceParameters, ResourceStarburst, ResourceHDR},
			writes: []Resource{ResourceHDR},
			skip:   (*Session).noStarburst,
			run:    (*Session).drawStarburst,
		},
		&stage{
			name:   PassRayTrace,
			reads:  []Resource{ResourceParameters, ResourceApertureMask},
			writes: []Resource{ResourceRayTrace},
			async:  true,
			skip:   (*Session).noGhosts,
			run:    (*Session).traceGhosts,
		},
		&stage{
			name:   PassClearHDR,
			writes: []Resource{ResourceHDR},
			run:    (*Session).clearHDR,
		},
		&stage{
			name:   PassStarburst,
			reads:  []Resource{ResourceParameters, ResourceApertureMask},
			writes: []Resource{ResourceStarburst},
			run:    (*Session).buildStarburst,
		},
		&stage{
			name:   PassAperture,
			reads:  []Resource{ResourceParameters},
			writes: []Resource{ResourceApertureMask},
			run:    (*Session).buildAperture,
		},
	}
}

func (s *Session) noGhosts() bool {
	return len(s.ghosts) == 0
}

// noStarburst skips the starburst when it would add nothing. A lens
// without surfaces forms no image at all.
func (s *Session) noStarburst() bool {
	return s.system.Len() == 0 || s.params.LightDir.Z() >= 0 || s.cfg.StarburstIntensity == 0 || s.cfg.StarburstSize == 0
}

func (s *Session) clearHDR(context.Context) error {
	s.hdr.Clear()
	return nil
}

type maskKey struct {
	res   int
	shape aperture.Shape
}

func (s *Session) buildAperture(context.Context) error {
	p := &s.params
	key := maskKey{
		res: p.ApertureResolution,
		shape: aperture.Shape{
			Blades: p.Blades,
			Radius: aperture.RelativeRadius(p.ApertureOpening, s.stopAperture()),
		},
	}

	mask, err := s.masks.GetOrCompute(key, func() (*aperture.Mask, error) {
		Logger().Debug("lensflare: generating aperture mask",
			"resolution", key.res, "blades", key.shape.Blades, "radius", key.shape.Radius)
		return aperture.Generate(key.res, key.shape)
	})
	if err != nil {
		return err
	}
	s.mask = mask
	s.maskShape = key.shape
	return nil
}

// stopAperture is the clear radius of the iris surface. Without one the
// opening is taken as fully open.
func (s *Session) stopAperture() float32 {
	if i := s.params.ApertureIndex; i >= 0 && i < s.system.Len() {
		return s.system.Interfaces[i].Aperture
	}
	return s.params.ApertureOpening
}

func (s *Session) buildStarburst(context.Context) error {
	tex, err := s.bursts.Get(starburst.Key{
		Mode:       starburst.Mode(s.cfg.StarburstMode),
		Resolution: s.params.StarburstResolution,
		Blades:     s.maskShape.Blades,
		Radius:     s.maskShape.Radius,
	}, s.mask)
	if err != nil {
		return err
	}
	s.burst = tex
	return nil
}

func (s *Session) traceGhosts(ctx context.Context) error {
	job := raytrace.Job{
		System: s.system,
		Ghosts: s.ghosts,
		Params: raytrace.Params{
			LightDir:       s.params.LightDir,
			Spread:         s.params.Spread,
			PlateSize:      s.params.PlateSize,
			CoatingQuality: s.params.CoatingQuality,
			Stop:           s.params.ApertureIndex,
			Tessellation:   s.cfg.Tessellation,
		},
		Out: s.results,
	}
	if s.mask != nil {
		job.Mask = s.mask
	}
	// Resolved here so a CPU retrace samples the same pupil.
	job.ResolvePupil()

	tracer := s.tracer
	fence, err := tracer.Dispatch(ctx, job)
	if err != nil && tracer != s.cpu && errors.Is(err, ErrFallbackToCPU) {
		if !s.warnedFallback {
			Logger().Warn("lensflare: accelerator declined job, tracing on CPU",
				"accelerator", tracer.Name(), "err", err)
			s.warnedFallback = true
		}
		tracer = s.cpu
		fence, err = tracer.Dispatch(ctx, job)
	}
	if err != nil {
		return err
	}
	s.fences[PassRayTrace] = fence
	s.stats.Tracer = tracer.Name()
	s.stats.GhostsTraced = len(s.ghosts)
	return nil
}

func (s *Session) drawGhosts(context.Context) error {
	n, err := composite.DrawGhosts(s.pool, s.hdr, s.results, s.indices, composite.GhostOptions{
		MaxGhosts: s.cfg.MaxGhosts,
		Intensity: s.cfg.GhostIntensity,
	})
	s.stats.GhostsDrawn = n
	return err
}

func (s *Session) drawStarburst(context.Context) error {
	light := s.params.LightDir
	k := s.cfg.StarburstIntensity * starburstFade(light) * Flicker(s.params.Time)
	if k == 0 {
		return nil
	}
	return composite.AddStarburst(s.pool, s.hdr, s.burst, composite.Sprite{
		Center: [2]float32{light.X() * 0.5, light.Y() * 0.5},
		Size:   s.cfg.StarburstSize,
		Tint:   color.Blackbody(StarburstTemperature).Scale(k),
	})
}

func (s *Session) toneMap(context.Context) error {
	op := tonemap.Operator{Curve: s.curve, Exposure: s.cfg.Exposure}
	if err := op.Apply(s.pool, s.back, s.hdr); err != nil {
		return fmt.Errorf("tone map: %w", err)
	}
	return nil
}
