// Package render adapts the engine's per-tick frame state to an Ebitengine
// window: particle and link drawing, bloom compositing and the stats overlay.
package render

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/engine"
	"github.com/cybre/aurora-visualizer/internal/scene"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

const (
	// bloomScale is the downsample factor of the bloom buffer; blurring at
	// reduced resolution is what spreads the glow.
	bloomScale = 4

	cameraSway = 6.0

	sensitivityStep = 0.1
)

var digitKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// Window implements ebiten.Game over a render loop. Update advances the
// pipeline exactly once per display tick, Draw composites the most recent
// frame.
type Window struct {
	logger *slog.Logger
	loop   *engine.Loop
	store  *settings.Store
	env    *scene.Environment
	order  []scene.ID

	onSceneKey   func(scene.ID)
	onFeedToggle func(enabled bool)
	feedEnabled  bool

	frame engine.Frame

	sceneImg *ebiten.Image
	bloomImg *ebiten.Image

	width  int
	height int
}

// NewWindow constructs the game adapter. order maps the digit keys 1..9 to
// scene variants.
func NewWindow(logger *slog.Logger, loop *engine.Loop, store *settings.Store, env *scene.Environment, order []scene.ID) *Window {
	return &Window{
		logger:      logger,
		loop:        loop,
		store:       store,
		env:         env,
		order:       order,
		feedEnabled: true,
		width:       int(env.Width),
		height:      int(env.Height),
	}
}

// OnSceneKey redirects the digit keys to fn instead of switching locally.
// A secondary window uses this to route scene changes through the primary so
// both windows stay on the same variant.
func (w *Window) OnSceneKey(fn func(id scene.ID)) {
	w.onSceneKey = fn
}

// OnFeedToggle enables the space key as a feed on/off toggle, invoking fn
// with the new state. A secondary window uses this to tell the primary to
// pause its pushes.
func (w *Window) OnFeedToggle(fn func(enabled bool)) {
	w.onFeedToggle = fn
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.loop.Stopped() {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.loop.Stop()
		return ebiten.Termination
	}
	for i, key := range digitKeys {
		if i >= len(w.order) {
			break
		}
		if inpututil.IsKeyJustPressed(key) {
			w.requestScene(w.order[i])
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		w.store.Set(settings.KeyShowStats, !w.store.Bool(settings.KeyShowStats))
		w.loop.PublishSettings()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		w.adjustSensitivities(-sensitivityStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		w.adjustSensitivities(sensitivityStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		w.toggleFeed()
	}

	frame, err := w.loop.Tick(context.Background())
	if err != nil {
		if eris.Is(err, engine.ErrStopped) {
			return ebiten.Termination
		}
		// Switch failures leave the loop running; keep rendering.
		w.logger.Warn("scene switch failed", slog.Any("error", err))
	}
	w.frame = frame
	return nil
}

func (w *Window) requestScene(id scene.ID) {
	if w.onSceneKey != nil {
		w.onSceneKey(id)
		return
	}
	w.loop.RequestScene(id)
}

// adjustSensitivities moves all three band sensitivities together; the store
// clamps each to its bounds.
func (w *Window) adjustSensitivities(delta float64) {
	w.store.Adjust(settings.KeyBassSensitivity, delta)
	w.store.Adjust(settings.KeyMidSensitivity, delta)
	w.store.Adjust(settings.KeyHighSensitivity, delta)
	w.loop.PublishSettings()
}

func (w *Window) toggleFeed() {
	if w.onFeedToggle == nil {
		return
	}
	w.feedEnabled = !w.feedEnabled
	w.onFeedToggle(w.feedEnabled)
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.ensureBuffers()

	bg := w.frame.Scene.Background
	if bg.A == 0 {
		bg = color.RGBA{8, 9, 16, 255}
	}
	w.sceneImg.Fill(bg)

	for _, link := range w.frame.Scene.Links {
		clr := link.Color
		clr.A = uint8(float32(clr.A) * link.Strength)
		vector.StrokeLine(w.sceneImg, link.X1, link.Y1, link.X2, link.Y2, 1, clr, true)
	}
	for _, p := range w.frame.Scene.Points {
		vector.DrawFilledCircle(w.sceneImg, p.X, p.Y, p.Size, p.Color, true)
	}

	op := &ebiten.DrawImageOptions{}
	w.applyCamera(op)
	screen.DrawImage(w.sceneImg, op)

	w.drawBloom(screen)

	if w.store.Bool(settings.KeyShowStats) {
		w.drawStats(screen)
	}
}

// Layout implements ebiten.Game and keeps the scene environment in sync with
// the window size.
func (w *Window) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < 320 {
		outsideW = 320
	}
	if outsideH < 240 {
		outsideH = 240
	}
	w.width = outsideW
	w.height = outsideH
	w.env.Width = float64(outsideW)
	w.env.Height = float64(outsideH)
	return outsideW, outsideH
}

func (w *Window) ensureBuffers() {
	if w.sceneImg == nil || w.sceneImg.Bounds().Dx() != w.width || w.sceneImg.Bounds().Dy() != w.height {
		w.sceneImg = ebiten.NewImage(w.width, w.height)
		w.bloomImg = ebiten.NewImage(max(1, w.width/bloomScale), max(1, w.height/bloomScale))
	}
}

// applyCamera zooms about the window center and adds an orbiting sway driven
// by the camera angle.
func (w *Window) applyCamera(op *ebiten.DrawImageOptions) {
	cam := w.frame.Camera
	cx := float64(w.width) / 2
	cy := float64(w.height) / 2

	op.GeoM.Translate(-cx, -cy)
	op.GeoM.Scale(cam.Zoom, cam.Zoom)
	op.GeoM.Translate(cx, cy)
	op.GeoM.Translate(math.Cos(cam.Angle)*cameraSway, math.Sin(cam.Angle)*cameraSway)
	op.Filter = ebiten.FilterLinear
}

// drawBloom downsamples the scene with the threshold folded into a color
// scale, then splats the small buffer back additively at offsets spread by
// the radius.
func (w *Window) drawBloom(screen *ebiten.Image) {
	bloom := w.frame.Bloom
	if bloom.Strength <= 0.001 {
		return
	}

	w.bloomImg.Clear()
	down := &ebiten.DrawImageOptions{}
	down.GeoM.Scale(1.0/bloomScale, 1.0/bloomScale)
	down.Filter = ebiten.FilterLinear
	cut := float32(1 - bloom.Threshold*0.8)
	down.ColorScale.Scale(cut, cut, cut, 1)
	w.bloomImg.DrawImage(w.sceneImg, down)

	spread := bloom.Radius * bloomScale
	offsets := [][2]float64{
		{0, 0},
		{-spread, 0}, {spread, 0},
		{0, -spread}, {0, spread},
	}
	alpha := float32(math.Min(bloom.Strength, 2) * 0.25)
	for _, off := range offsets {
		up := &ebiten.DrawImageOptions{}
		up.GeoM.Scale(bloomScale, bloomScale)
		up.GeoM.Translate(off[0], off[1])
		up.Filter = ebiten.FilterLinear
		up.Blend = ebiten.BlendLighter
		up.ColorScale.ScaleAlpha(alpha)
		screen.DrawImage(w.bloomImg, up)
	}
}

func (w *Window) drawStats(screen *ebiten.Image) {
	f := w.frame
	beat := " "
	if f.Beat.Beat {
		beat = "*"
	}
	msg := fmt.Sprintf(
		"fps %5.1f  tps %5.1f\nscene %s\nbass %.2f  mid %.2f  high %.2f  overall %.2f\nbeat %s pulse %.2f\nbloom %.2f  zoom %.2f\npoints %d  links %d\n%s",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		f.ActiveScene,
		f.Features.Bass, f.Features.Mid, f.Features.High, f.Features.Overall,
		beat, f.Beat.Pulse,
		f.Bloom.Strength, f.Camera.Zoom,
		len(f.Scene.Points), len(f.Scene.Links),
		w.tunableLines(),
	)
	ebitenutil.DebugPrintAt(screen, msg, 8, 8)
}

// tunableLines lists the keyboard-adjustable entries with their bounds.
func (w *Window) tunableLines() string {
	shown := map[string]bool{
		settings.KeyBassSensitivity: true,
		settings.KeyMidSensitivity:  true,
		settings.KeyHighSensitivity: true,
		settings.KeySmoothing:       true,
	}
	var b strings.Builder
	for _, entry := range w.store.Entries() {
		if !shown[entry.Key] {
			continue
		}
		value, ok := entry.Value.(float64)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s %.2f [%.2f..%.2f]\n", entry.Label, value, entry.Min, entry.Max)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Run opens the window and blocks until the loop stops or the window closes.
func Run(title string, w *Window) error {
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle(title)
	if err := ebiten.RunGame(w); err != nil {
		return eris.Wrap(err, "run render window")
	}
	return nil
}
