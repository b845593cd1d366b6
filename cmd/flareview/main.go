// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command flareview shows lens flares interactively. The mouse pointer
// places the light; Space pauses the animation, S saves the current frame
// to flare.png and Escape quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/lensflare"
	_ "github.com/gogpu/lensflare/gpu" // enable GPU ray tracing when available
	"github.com/gogpu/lensflare/lens"
)

// timeStep is the animation time advanced per frame.
const timeStep = 0.016

// logEvery is how often a frame summary is logged.
const logEvery = 60

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "flareview:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "JSON config file (partial files overlay the defaults)")
		lensPath   = flag.String("lens", "", "JSON lens prescription (default: Nikon 28-75mm)")
		width      = flag.Int("width", 960, "render width")
		height     = flag.Int("height", 540, "render height")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	lensflare.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := lensflare.DefaultConfig()
	if *configPath != "" {
		c, err := lensflare.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	opts := []lensflare.Option{
		lensflare.WithConfig(cfg),
		lensflare.WithBackbuffer(*width, *height),
	}
	if *lensPath != "" {
		f, err := os.Open(*lensPath)
		if err != nil {
			return err
		}
		p, err := lens.ParsePrescription(f)
		f.Close()
		if err != nil {
			return err
		}
		opts = append(opts, lensflare.WithPrescription(p))
	}

	s, err := lensflare.New(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	v := &viewer{session: s, width: *width, height: *height}
	ebiten.SetWindowTitle("flareview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(*width, *height)
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// viewer implements ebiten.Game.
type viewer struct {
	session       *lensflare.Session
	width, height int

	time   float32
	paused bool

	// Where the frame was last drawn on the screen.
	scale            float64
	offsetX, offsetY float64

	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
}

// Update implements ebiten.Game.
func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := v.save("flare.png"); err != nil {
			lensflare.Logger().Warn("flareview: save failed", "err", err)
		}
	}

	nx, ny := v.pointer()
	stats, err := v.session.Render(context.Background(), v.time, lensflare.LightFromPointer(nx, ny))
	if err != nil {
		// Keep showing the previous frame.
		lensflare.Logger().Warn("flareview: frame failed", "err", err)
		return nil
	}
	if stats.Frame%logEvery == 0 {
		lensflare.Logger().Info("flareview: frame",
			"frame", stats.Frame,
			"duration", stats.Duration,
			"tracer", stats.Tracer,
			"ghosts", stats.GhostsDrawn)
	}
	if !v.paused {
		v.time += timeStep
	}
	return nil
}

// pointer maps the cursor into [-1, 1]^2 of the rendered frame.
func (v *viewer) pointer() (float32, float32) {
	cx, cy := ebiten.CursorPosition()
	if v.scale <= 0 {
		return lensflare.PointerToNDC(cx, cy, v.width, v.height)
	}
	x := int((float64(cx) - v.offsetX) / v.scale)
	y := int((float64(cy) - v.offsetY) / v.scale)
	nx, ny := lensflare.PointerToNDC(x, y, v.width, v.height)
	return max(-1, min(1, nx)), max(-1, min(1, ny))
}

// Draw implements ebiten.Game. The frame is scaled to fit the window
// with its aspect ratio kept.
func (v *viewer) Draw(screen *ebiten.Image) {
	img := v.session.Image()
	b := img.Bounds()
	if v.offscreen == nil || v.offscreen.Bounds().Dx() != b.Dx() || v.offscreen.Bounds().Dy() != b.Dy() {
		v.offscreen = ebiten.NewImage(b.Dx(), b.Dy())
	}
	v.offscreen.WritePixels(img.Pix)

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW, nativeH := float64(b.Dx()), float64(b.Dy())
	v.scale = min(float64(screenW)/nativeW, float64(screenH)/nativeH)
	v.offsetX = (float64(screenW) - nativeW*v.scale) / 2
	v.offsetY = (float64(screenH) - nativeH*v.scale) / 2

	v.drawOpts = ebiten.DrawImageOptions{}
	v.drawOpts.GeoM.Scale(v.scale, v.scale)
	v.drawOpts.GeoM.Translate(v.offsetX, v.offsetY)
	v.drawOpts.Filter = ebiten.FilterLinear
	screen.DrawImage(v.offscreen, &v.drawOpts)
}

// Layout implements ebiten.Game.
func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (v *viewer) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, v.session.Snapshot()); err != nil {
		f.Close()
		return err
	}
	lensflare.Logger().Info("flareview: saved", "path", path)
	return f.Close()
}
