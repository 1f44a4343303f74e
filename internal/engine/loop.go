// Package engine drives the per-frame pipeline: time delta, audio feature
// refresh, broadcast, reactive parameter remapping, camera, and the active
// scene variant, in a fixed order.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/beat"
	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/reactive"
	"github.com/cybre/aurora-visualizer/internal/scene"
	"github.com/cybre/aurora-visualizer/internal/settings"
	"github.com/cybre/aurora-visualizer/internal/utils"
)

// ErrStopped is returned by Tick after Stop; no frame is in flight once Stop
// has returned.
var ErrStopped = eris.New("render loop stopped")

// maxDelta caps the time step after a stall so simulations don't explode.
const maxDelta = 0.25

// Publisher is the primary-side view of the broadcast channel. All methods
// are fire-and-forget and no-ops without a connected receiver.
type Publisher interface {
	HasReceiver() bool
	PushSettings(snapshot map[string]any)
	PushAudio(features dsp.Features)
	PushScene(id string)
	PushTime(seconds float64)
}

// BloomParams are the post-processing uniforms recomputed every tick.
type BloomParams struct {
	Strength  float64
	Threshold float64
	Radius    float64
}

// Camera is the orbit state advanced independently of the active variant.
type Camera struct {
	Angle float64
	Zoom  float64
}

func (c *Camera) advance(delta, orbitSpeed, pulse float64) {
	c.Angle += orbitSpeed * delta
	c.Zoom = utils.Lerp(1, 1.12, pulse)
}

// Frame is everything an adapter needs to render one tick.
type Frame struct {
	Delta       float64
	Elapsed     float64
	Features    dsp.Features
	Beat        beat.State
	Bloom       BloomParams
	Camera      Camera
	Scene       scene.Frame
	ActiveScene scene.ID
}

// Config wires a Loop. Publisher is nil for a secondary or standalone window.
type Config struct {
	Store     *settings.Store
	Scenes    *scene.Manager
	Source    FeatureSource
	Publisher Publisher
	Now       func() time.Time
}

// Loop is one window's render loop driver. Tick runs on a single goroutine;
// RequestScene, SyncTime and Stop may be called from any goroutine.
type Loop struct {
	store     *settings.Store
	scenes    *scene.Manager
	source    FeatureSource
	publisher Publisher
	now       func() time.Time

	started bool
	last    time.Time
	elapsed float64
	stopped atomic.Bool

	mu           sync.Mutex
	pendingScene *scene.ID
	pendingTime  *float64

	beat          *beat.Detector
	bloomSmoothed float64
	camera        Camera
}

// NewLoop constructs a Loop from cfg.
func NewLoop(cfg Config) *Loop {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Loop{
		store:     cfg.Store,
		scenes:    cfg.Scenes,
		source:    cfg.Source,
		publisher: cfg.Publisher,
		now:       now,
		beat:      beat.NewDetector(beat.Options{}),
		camera:    Camera{Zoom: 1},
	}
}

// RequestScene queues a scene switch to be applied at the start of the next
// tick. Requests coalesce: only the latest survives.
func (l *Loop) RequestScene(id scene.ID) {
	l.mu.Lock()
	pending := id
	l.pendingScene = &pending
	l.mu.Unlock()
}

// SyncTime overrides the animation clock with the primary's pushed value.
func (l *Loop) SyncTime(seconds float64) {
	l.mu.Lock()
	pending := seconds
	l.pendingTime = &pending
	l.mu.Unlock()
}

// Stop halts the loop. Synchronous: once it returns, the next Tick returns
// ErrStopped and no further scene updates run.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	return l.stopped.Load()
}

// Tick advances the pipeline by one frame and returns the render state.
// A scene-switch failure is reported in the returned error but leaves the
// loop running with the frame rendered from the surviving state.
func (l *Loop) Tick(ctx context.Context) (Frame, error) {
	if l.stopped.Load() {
		return Frame{}, ErrStopped
	}

	now := l.now()
	delta := 0.0
	if l.started {
		delta = utils.Clamp(now.Sub(l.last).Seconds(), 0.0, maxDelta)
	}
	l.started = true
	l.last = now
	l.elapsed += delta

	pendingScene, pendingTime := l.takePending()
	if pendingTime != nil {
		l.elapsed = *pendingTime
	}

	var switchErr error
	if pendingScene != nil {
		switchErr = l.switchScene(ctx, *pendingScene)
	}

	features := l.source.Features()
	beatState := l.beat.Step(now, features)

	if l.publisher != nil && l.publisher.HasReceiver() {
		l.publisher.PushAudio(features)
		l.publisher.PushTime(l.elapsed)
	}

	snapshot := l.store.Snapshot()
	bloomRaw := reactive.ControlFromSettings(l.store, settings.GroupBloom).Map(features)
	smoothing := utils.Clamp(floatFrom(snapshot, settings.KeySmoothing), 0.05, 1.0)
	l.bloomSmoothed += (bloomRaw - l.bloomSmoothed) * smoothing

	l.camera.advance(delta, floatFrom(snapshot, settings.KeyOrbitSpeed), beatState.Pulse)

	l.scenes.Update(delta, l.store, features)

	frame := Frame{
		Delta:    delta,
		Elapsed:  l.elapsed,
		Features: features,
		Beat:     beatState,
		Bloom: BloomParams{
			Strength:  l.bloomSmoothed,
			Threshold: floatFrom(snapshot, settings.KeyBloomThreshold),
			Radius:    floatFrom(snapshot, settings.KeyBloomRadius),
		},
		Camera:      l.camera,
		Scene:       l.scenes.Frame(),
		ActiveScene: l.scenes.ActiveID(),
	}
	return frame, switchErr
}

func (l *Loop) takePending() (*scene.ID, *float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pendingScene, pendingTime := l.pendingScene, l.pendingTime
	l.pendingScene = nil
	l.pendingTime = nil
	return pendingScene, pendingTime
}

func (l *Loop) switchScene(ctx context.Context, id scene.ID) error {
	if id == l.scenes.ActiveID() {
		return nil
	}
	if err := l.scenes.SwitchTo(ctx, id); err != nil {
		return err
	}
	// Keep the settings table and any receivers in agreement with the
	// switch; a fresh variant re-reads settings during init anyway.
	l.store.Set(settings.KeyScene, string(id))
	if l.publisher != nil && l.publisher.HasReceiver() {
		l.publisher.PushScene(string(id))
	}
	return nil
}

// PublishSettings pushes the full settings snapshot, used after local edits.
func (l *Loop) PublishSettings() {
	if l.publisher != nil && l.publisher.HasReceiver() {
		l.publisher.PushSettings(l.store.Snapshot())
	}
}
