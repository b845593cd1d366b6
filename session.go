// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	"github.com/gogpu/lensflare/internal/aperture"
	"github.com/gogpu/lensflare/internal/cache"
	"github.com/gogpu/lensflare/internal/composite"
	"github.com/gogpu/lensflare/internal/parallel"
	"github.com/gogpu/lensflare/internal/raytrace"
	"github.com/gogpu/lensflare/internal/starburst"
	"github.com/gogpu/lensflare/internal/tonemap"
	"github.com/gogpu/lensflare/lens"
)

// Session owns everything needed to render flares of one lens: the lens
// system, its ghosts, the ray-trace results, the iris mask and starburst,
// the HDR target and the displayed image.
//
// Render calls are serialized; a Session may be shared between goroutines
// but only renders one frame at a time.
type Session struct {
	mu sync.Mutex

	cfg    Config
	system *lens.System
	ghosts []lens.Ghost
	params Parameters

	pool   *parallel.Pool
	cpu    *raytrace.CPU
	tracer raytrace.Tracer
	curve  tonemap.Curve

	results *raytrace.Buffer // nil when the lens has no ghosts
	indices []uint32

	masks     *cache.Cache[maskKey, *aperture.Mask]
	mask      *aperture.Mask
	maskShape aperture.Shape
	bursts    *starburst.Cache
	burst     *starburst.Texture

	hdr     *composite.Target
	display *image.RGBA
	back    *image.RGBA

	plan   Plan
	fences map[string]raytrace.Fence
	stats  FrameStats
	frame  uint64

	warnedFallback bool
	closed         bool
}

// PassTiming is the wall time of one executed pass.
type PassTiming struct {
	Name     string
	Duration time.Duration
}

// FrameStats describes one rendered frame.
type FrameStats struct {
	// Frame counts successfully rendered frames, starting at 0.
	Frame uint64

	// Time is the animation time the frame was rendered at.
	Time float32

	// Duration is the wall time of the whole frame.
	Duration time.Duration

	// Passes lists executed passes in order. Barrier waits are reported
	// as "barrier(pass:resource)".
	Passes []PassTiming

	// Skipped lists passes that had nothing to do.
	Skipped []string

	GhostsTraced int
	GhostsDrawn  int

	// Tracer names the tracer that ran the ray-trace pass.
	Tracer string
}

// cacheEntries bounds the mask and starburst caches. An interactive
// session rarely cycles through more iris shapes than this.
const cacheEntries = 8

// New creates a session. Without options it renders the Nikon 28-75mm
// reference lens with DefaultConfig.
//
// Errors are returned as *SetupError.
func New(opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, &SetupError{Stage: "config", Err: err}
	}
	if err := o.prescription.Validate(); err != nil {
		return nil, &SetupError{Stage: "prescription", Err: err}
	}
	sys, err := lens.Build(o.prescription)
	if err != nil && !(errors.Is(err, lens.ErrEmptyPrescription) && cfg.AllowEmptyLens) {
		return nil, &SetupError{Stage: "lens", Err: err}
	}
	if cfg.ApertureIndex < 0 || cfg.ApertureIndex >= sys.Len() {
		cfg.ApertureIndex = sys.Stop
	}

	curve, err := tonemap.ByName(cfg.ToneCurve)
	if err != nil {
		return nil, &SetupError{Stage: "tonemap", Err: err}
	}

	var accel raytrace.Tracer
	switch cfg.Accelerator {
	case AcceleratorAuto, AcceleratorGPU:
		if o.accelerator != nil {
			accel = o.accelerator
		} else if a := RegisteredAccelerator(); a != nil {
			accel = a
		}
		if accel == nil && cfg.Accelerator == AcceleratorGPU {
			return nil, &SetupError{Stage: "accelerator", Err: ErrNoAccelerator}
		}
	}

	plan, err := compile(framePasses())
	if err != nil {
		return nil, &SetupError{Stage: "graph", Err: err}
	}

	// Nothing below can fail.
	s := &Session{
		cfg:     cfg,
		system:  sys,
		ghosts:  lens.EnumerateGhosts(sys.Len()),
		pool:    parallel.NewPool(cfg.Workers),
		curve:   curve,
		masks:   cache.New[maskKey, *aperture.Mask](cacheEntries),
		bursts:  starburst.NewCache(cacheEntries),
		hdr:     composite.NewTarget(cfg.BackbufferWidth, cfg.BackbufferHeight),
		display: newBlack(cfg.BackbufferWidth, cfg.BackbufferHeight),
		back:    newBlack(cfg.BackbufferWidth, cfg.BackbufferHeight),
		plan:    plan,
		fences:  make(map[string]raytrace.Fence),
	}
	s.cpu = raytrace.NewCPU(s.pool)
	s.tracer = s.cpu
	if accel != nil {
		s.tracer = accel
	}
	if len(s.ghosts) > 0 {
		s.results = raytrace.NewBuffer(len(s.ghosts), cfg.Tessellation)
		s.indices = composite.MeshIndices(cfg.Tessellation)
	}

	log := Logger()
	log.Info("lensflare: session created",
		"interfaces", sys.Len(),
		"ghosts", len(s.ghosts),
		"stop", cfg.ApertureIndex,
		"tracer", s.tracer.Name(),
		"workers", s.pool.Workers())
	log.Debug("lensflare: buffers",
		"raytrace_bytes", s.results.ByteSize(),
		"hdr_bytes", 4*4*cfg.BackbufferWidth*cfg.BackbufferHeight,
		"plan", plan.String())
	return s, nil
}

func newBlack(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	return img
}

// Render renders one frame at animation time t with light travelling
// along lightDir (into the lens is -Z).
//
// On failure the error is a *FrameError and the displayed image keeps the
// previous frame. ctx is checked between passes.
func (s *Session) Render(ctx context.Context, t float32, lightDir mgl32.Vec3) (FrameStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return FrameStats{}, ErrClosed
	}

	start := time.Now()
	s.stats = FrameStats{Frame: s.frame, Time: t}

	params, err := UpdateParameters(s.cfg, s.system.Len(), t, lightDir)
	if err != nil {
		return s.stats, &FrameError{Pass: "parameters", Err: err}
	}
	s.params = params

	for _, step := range s.plan {
		if err := ctx.Err(); err != nil {
			s.drain()
			return s.stats, &FrameError{Pass: step.String(), Err: err}
		}
		begin := time.Now()

		if step.Kind == StepBarrier {
			f, ok := s.fences[step.Name]
			if !ok {
				continue
			}
			delete(s.fences, step.Name)
			if err := f.Wait(ctx); err != nil {
				s.drain()
				return s.stats, &FrameError{Pass: step.String(), Err: err}
			}
			s.stats.Passes = append(s.stats.Passes, PassTiming{Name: step.String(), Duration: time.Since(begin)})
			continue
		}

		if sk, ok := step.pass.(skipper); ok && sk.Skip(s) {
			s.stats.Skipped = append(s.stats.Skipped, step.Name)
			continue
		}
		if err := step.pass.Execute(ctx, s); err != nil {
			s.drain()
			return s.stats, &FrameError{Pass: step.Name, Err: err}
		}
		s.stats.Passes = append(s.stats.Passes, PassTiming{Name: step.Name, Duration: time.Since(begin)})
	}

	s.display, s.back = s.back, s.display
	s.frame++
	s.stats.Duration = time.Since(start)

	log := Logger()
	if log.Enabled(ctx, slog.LevelDebug) {
		for _, p := range s.stats.Passes {
			log.Debug("lensflare: pass", "frame", s.stats.Frame, "pass", p.Name, "duration", p.Duration)
		}
	}
	return s.stats, nil
}

// drain waits for every outstanding dispatch so nothing writes into the
// session's buffers after a failed frame.
func (s *Session) drain() {
	for name, f := range s.fences {
		_ = f.Wait(context.Background())
		delete(s.fences, name)
	}
}

// Image returns the last rendered frame. The image is reused by a later
// Render; use Snapshot to keep a copy.
func (s *Session) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// Snapshot returns a copy of the last rendered frame.
func (s *Session) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := *s.display
	img.Pix = slices.Clone(s.display.Pix)
	return &img
}

// HDR returns a copy of the linear RGBA framebuffer of the last frame,
// row major with four float32 per pixel.
func (s *Session) HDR() (width, height int, pix []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hdr.Width, s.hdr.Height, slices.Clone(s.hdr.Pix)
}

// Plan returns the compiled pass order.
func (s *Session) Plan() Plan {
	return slices.Clone(s.plan)
}

// Config returns the effective configuration. ApertureIndex is resolved
// to the interface actually used as the iris.
func (s *Session) Config() Config {
	return s.cfg
}

// System returns the lens system. It must not be modified.
func (s *Session) System() *lens.System {
	return s.system
}

// Ghosts returns the enumerated ghosts in trace order.
func (s *Session) Ghosts() []lens.Ghost {
	return slices.Clone(s.ghosts)
}

// Tracer returns the name of the tracer the session dispatches to.
func (s *Session) Tracer() string {
	return s.tracer.Name()
}

// Close releases the worker pool and buffers. A registered accelerator
// stays open. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.drain()
	s.cpu.Close()
	s.pool.Close()
	s.results = nil
	s.masks.Clear()
	s.mask, s.burst = nil, nil
	Logger().Info("lensflare: session closed", "frames", s.frame)
	return nil
}

func (s *Session) String() string {
	return fmt.Sprintf("lensflare.Session{interfaces: %d, ghosts: %d, tracer: %s}",
		s.system.Len(), len(s.ghosts), s.tracer.Name())
}
