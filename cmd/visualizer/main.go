package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/cybre/aurora-visualizer/internal/bridge"
	"github.com/cybre/aurora-visualizer/internal/capture"
	"github.com/cybre/aurora-visualizer/internal/engine"
	"github.com/cybre/aurora-visualizer/internal/render"
	"github.com/cybre/aurora-visualizer/internal/scene"
	"github.com/cybre/aurora-visualizer/internal/settings"
	"github.com/cybre/aurora-visualizer/internal/ui"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

func main() {
	cfg := parseCLIFlags()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runVisualizer(ctx, cfg); err != nil && !eris.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runVisualizer(ctx context.Context, cfg runtimeOptions) error {
	logger := setupLogger(cfg.debug, cfg.headless)

	store := settings.NewStore()
	env := &scene.Environment{
		Width:     float64(cfg.width),
		Height:    float64(cfg.height),
		Rand:      rng,
		Assets:    scene.ProceduralAssets{},
		Resources: scene.NewResourceSet(),
	}
	scenes := scene.NewManager(env)
	scenes.RegisterDefaults()

	if cfg.connect != "" {
		return runSecondary(ctx, logger, cfg, store, scenes, env)
	}
	return runPrimary(ctx, logger, cfg, store, scenes, env)
}

func setupLogger(debug, headless bool) *slog.Logger {
	logOutput := os.Stdout
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	if headless && !debug {
		logLevel = slog.LevelWarn
	}
	if headless {
		logOutput = os.Stderr
	}

	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	return logger
}

func runPrimary(
	ctx context.Context,
	logger *slog.Logger,
	cfg runtimeOptions,
	store *settings.Store,
	scenes *scene.Manager,
	env *scene.Environment,
) error {
	if err := portaudio.Initialize(); err != nil {
		return eris.Wrap(err, "initialize PortAudio")
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return eris.Wrap(err, "enumerate audio devices")
	}
	defaultDevice, err := portaudio.DefaultInputDevice()
	if err != nil {
		return eris.Wrap(err, "resolve default audio input device")
	}

	device, initialScene, err := selectDeviceAndScene(devices, scenes.IDs(), defaultDevice.Index, cfg)
	if err != nil {
		return eris.Wrap(err, "select device/scene")
	}
	if device.MaxInputChannels < 1 {
		return eris.Errorf("device %s has no input channels; select a loopback/monitor device", device.Name)
	}

	channels := sanitizeChannelCount(cfg.channels, int(device.MaxInputChannels))
	if cfg.channels > 0 && cfg.channels > int(device.MaxInputChannels) {
		logger.Warn("requested channels exceed device capabilities",
			slog.Int("requested", cfg.channels),
			slog.Int("max", int(device.MaxInputChannels)),
			slog.Int("using", channels),
		)
	}
	frameSize := cfg.frameSize
	if frameSize <= 0 {
		frameSize = 1024
	}

	frameCh := make(chan []float32, 32)
	source := engine.NewLiveSource(frameCh, channels, frameSize, store)

	loopCfg := engine.Config{Store: store, Scenes: scenes, Source: source}
	var broadcaster *bridge.Broadcaster
	if cfg.listen != "" {
		broadcaster = bridge.NewBroadcaster(logger, store.Snapshot)
		if err := broadcaster.Listen(cfg.listen); err != nil {
			return err
		}
		loopCfg.Publisher = broadcaster
	}

	loop := engine.NewLoop(loopCfg)
	loop.RequestScene(initialScene)
	if broadcaster != nil {
		broadcaster.OnSceneRequest(func(id string) {
			loop.RequestScene(scene.ID(id))
		})
		broadcaster.OnStatus(func(enabled bool) {
			logger.Info("receiver feed toggled", slog.Bool("enabled", enabled))
		})
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		defer close(frameCh)
		return capture.Run(gctx, logger, frameCh, capture.Options{
			Device:     device,
			SampleRate: cfg.sampleRate,
			FrameSize:  frameSize,
			Channels:   channels,
			Latency:    cfg.latency,
		})
	})
	if broadcaster != nil {
		defer broadcaster.Close()
		g.Go(func() error {
			return broadcaster.Serve(gctx)
		})
	}

	receivers := func() bool { return false }
	if broadcaster != nil {
		receivers = broadcaster.HasReceiver
	}

	frontendErr := runFrontend(gctx, logger, cfg, "Aurora Visualizer", loop, store, env, scenes, receivers, nil)
	loop.Stop()
	cancel()

	if err := g.Wait(); err != nil && !eris.Is(err, context.Canceled) {
		return err
	}
	return frontendErr
}

func runSecondary(
	ctx context.Context,
	logger *slog.Logger,
	cfg runtimeOptions,
	store *settings.Store,
	scenes *scene.Manager,
	env *scene.Environment,
) error {
	receiver, err := bridge.Dial(cfg.connect, logger)
	if err != nil {
		return err
	}

	remote := engine.NewRemoteSource()
	loop := engine.NewLoop(engine.Config{Store: store, Scenes: scenes, Source: remote})

	receiver.OnSettings(func(snapshot map[string]any) {
		store.Apply(snapshot)
		if id, ok := snapshot[settings.KeyScene].(string); ok && id != "" {
			loop.RequestScene(scene.ID(id))
		}
	})
	receiver.OnAudio(remote.Set)
	receiver.OnScene(func(id string) {
		loop.RequestScene(scene.ID(id))
	})
	receiver.OnTime(loop.SyncTime)

	logger.Info("mirroring primary window", slog.String("addr", cfg.connect))

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		return receiver.Run(gctx)
	})

	// Scene keys on a secondary go through the back channel so the primary
	// switches first and announces the change to every window; switching
	// locally would silently fork the two scenes.
	configure := func(w *render.Window) {
		w.OnSceneKey(func(id scene.ID) {
			if err := receiver.SendSceneRequest(string(id)); err != nil {
				logger.Warn("failed to send scene request", slog.Any("error", err))
			}
		})
		w.OnFeedToggle(func(enabled bool) {
			if err := receiver.SendStatus(enabled); err != nil {
				logger.Warn("failed to send status change", slog.Any("error", err))
			}
		})
	}

	connected := func() bool { return true }

	frontendErr := runFrontend(gctx, logger, cfg, "Aurora Visualizer (secondary)", loop, store, env, scenes, connected, configure)
	loop.Stop()
	// Best effort: tell the primary to stop pushing before the connection
	// drops.
	_ = receiver.SendStatus(false)
	cancel()

	if err := g.Wait(); err != nil && !eris.Is(err, context.Canceled) {
		return err
	}
	return frontendErr
}

// runFrontend blocks on the window or the terminal monitor. The windowed
// path must run on the main goroutine.
func runFrontend(
	ctx context.Context,
	logger *slog.Logger,
	cfg runtimeOptions,
	title string,
	loop *engine.Loop,
	store *settings.Store,
	env *scene.Environment,
	scenes *scene.Manager,
	receivers func() bool,
	configure func(*render.Window),
) error {
	if cfg.headless {
		return runMonitor(ctx, logger, loop, receivers)
	}
	window := render.NewWindow(logger, loop, store, env, scenes.IDs())
	if configure != nil {
		configure(window)
	}
	return render.Run(title, window)
}

func runMonitor(ctx context.Context, logger *slog.Logger, loop *engine.Loop, receivers func() bool) error {
	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := ui.NewMonitor(cancel)
	defer monitor.Close()

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-monitorCtx.Done():
			return monitorCtx.Err()
		case <-ticker.C:
			frame, err := loop.Tick(monitorCtx)
			if err != nil {
				if eris.Is(err, engine.ErrStopped) {
					return nil
				}
				logger.Warn("scene switch failed", slog.Any("error", err))
			}
			monitor.Update(toMonitorFrame(frame, receivers()))
		}
	}
}

func toMonitorFrame(frame engine.Frame, connected bool) ui.MonitorFrame {
	return ui.MonitorFrame{
		Bass:         frame.Features.Bass,
		Mid:          frame.Features.Mid,
		High:         frame.Features.High,
		Overall:      frame.Features.Overall,
		Beat:         frame.Beat.Beat,
		BeatStrength: frame.Beat.Strength,
		BeatPulse:    frame.Beat.Pulse,
		Bloom:        frame.Bloom.Strength,
		Zoom:         frame.Camera.Zoom,
		Scene:        string(frame.ActiveScene),
		Elapsed:      frame.Elapsed,
		Points:       len(frame.Scene.Points),
		Links:        len(frame.Scene.Links),
		Receivers:    connected,
	}
}
