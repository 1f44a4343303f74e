package main

import (
	"flag"
	"time"
)

type runtimeOptions struct {
	listen      string
	connect     string
	deviceIndex int
	sampleRate  float64
	frameSize   int
	channels    int
	latency     time.Duration
	sceneID     string
	width       int
	height      int
	headless    bool
	debug       bool
}

func parseCLIFlags() runtimeOptions {
	var (
		cfg       runtimeOptions
		latencyMs int
	)

	flag.StringVar(&cfg.listen, "listen", "", "address to broadcast frames on for secondary windows (e.g. :7723)")
	flag.StringVar(&cfg.connect, "connect", "", "primary address to mirror (runs as a secondary window, no audio capture)")
	flag.IntVar(&cfg.deviceIndex, "device", -1, "audio input device index (leave blank to choose interactively)")
	flag.Float64Var(&cfg.sampleRate, "sample-rate", 0, "capture sample rate (0 = device default)")
	flag.IntVar(&cfg.frameSize, "frame-size", 1024, "analysis frame size in samples")
	flag.IntVar(&cfg.channels, "channels", 2, "number of input channels to capture (<= device max)")
	flag.IntVar(&latencyMs, "latency-ms", 0, "override input latency in milliseconds (0 = device default)")
	flag.StringVar(&cfg.sceneID, "scene", "", "starting scene variant (leave blank to choose interactively)")
	flag.IntVar(&cfg.width, "width", 1280, "window width")
	flag.IntVar(&cfg.height, "height", 720, "window height")
	flag.BoolVar(&cfg.headless, "headless", false, "render a terminal band monitor instead of a window")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	flag.Parse()

	cfg.latency = time.Duration(latencyMs) * time.Millisecond

	return cfg
}
