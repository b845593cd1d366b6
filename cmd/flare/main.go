// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command flare renders lens flares of a bright light to a PNG file.
//
// Usage:
//
//	flare -output flare.png -x 0.3 -y -0.2
//	flare -config flare.json -lens lens.json -frames 120 -v
//
// The light position -x/-y is given like a pointer position in [-1, 1],
// +Y down. With -frames > 1 the animation is advanced in 0.016 s steps and
// the last frame is written.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/image/draw"

	"github.com/gogpu/lensflare"
	_ "github.com/gogpu/lensflare/gpu" // enable GPU ray tracing when available
	"github.com/gogpu/lensflare/lens"
)

// frameStep is the animation time advanced per frame.
const frameStep = 0.016

// logEvery is how often a frame summary is logged.
const logEvery = 60

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "flare:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "JSON config file (partial files overlay the defaults)")
		lensPath   = flag.String("lens", "", "JSON lens prescription (default: Nikon 28-75mm)")
		output     = flag.String("output", "flare.png", "output PNG file")
		width      = flag.Int("width", 0, "image width (overrides config)")
		height     = flag.Int("height", 0, "image height (overrides config)")
		ghosts     = flag.Int("ghosts", 0, "max composited ghosts, 0 or negative for all (overrides config)")
		tess       = flag.Int("tessellation", 0, "ray grid size per ghost (overrides config)")
		accel      = flag.String("accelerator", "", `"auto", "cpu" or "gpu" (overrides config)`)
		mode       = flag.String("starburst", "", `"fft" or "procedural" (overrides config)`)
		lightX     = flag.Float64("x", 0.15, "light x in [-1, 1]")
		lightY     = flag.Float64("y", -0.1, "light y in [-1, 1], +Y down")
		frames     = flag.Int("frames", 1, "frames to render")
		scale      = flag.Float64("scale", 1, "resample the output by this factor")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	lensflare.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log := lensflare.Logger()

	cfg := lensflare.DefaultConfig()
	if *configPath != "" {
		c, err := lensflare.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = c
	}

	// Flags override the file only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.BackbufferWidth = *width
		case "height":
			cfg.BackbufferHeight = *height
		case "ghosts":
			cfg.MaxGhosts = *ghosts
		case "tessellation":
			cfg.Tessellation = *tess
		case "accelerator":
			cfg.Accelerator = *accel
		case "starburst":
			cfg.StarburstMode = *mode
		}
	})

	opts := []lensflare.Option{lensflare.WithConfig(cfg)}
	if *lensPath != "" {
		p, err := loadPrescription(*lensPath)
		if err != nil {
			return err
		}
		opts = append(opts, lensflare.WithPrescription(p))
	}
	if *frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", *frames)
	}
	if *scale <= 0 {
		return fmt.Errorf("scale must be positive, got %v", *scale)
	}

	s, err := lensflare.New(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	light := lensflare.LightFromPointer(float32(*lightX), float32(*lightY))
	for i := range *frames {
		t := float32(i) * frameStep
		stats, err := s.Render(ctx, t, light)
		if err != nil {
			return err
		}
		if i%logEvery == 0 || i == *frames-1 {
			log.Info("frame",
				"frame", stats.Frame,
				"duration", stats.Duration,
				"tracer", stats.Tracer,
				"ghosts_traced", stats.GhostsTraced,
				"ghosts_drawn", stats.GhostsDrawn)
		}
	}

	img := s.Snapshot()
	if *scale != 1 {
		img = resample(img, *scale)
	}
	if err := savePNG(*output, img); err != nil {
		return err
	}
	log.Info("saved", "path", *output, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

func loadPrescription(path string) (lens.Prescription, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return lens.ParsePrescription(f)
}

// resample scales img by factor with a Catmull-Rom filter.
func resample(img *image.RGBA, factor float64) *image.RGBA {
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
