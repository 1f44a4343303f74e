// Package capture streams interleaved float32 audio frames from a PortAudio
// input device into a channel consumed by the render loop's live source.
package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"
)

// Options describes the stream to open. Device must be an input-capable
// device; zero SampleRate, FrameSize and Channels fall back to the device
// default rate, 1024 samples and mono respectively.
type Options struct {
	Device     *portaudio.DeviceInfo
	SampleRate float64
	FrameSize  int
	Channels   int
	Latency    time.Duration
}

// Effective returns a copy of o with defaults filled in from the device.
func (o Options) Effective() Options {
	if o.SampleRate <= 0 {
		if o.Device != nil && o.Device.DefaultSampleRate > 0 {
			o.SampleRate = o.Device.DefaultSampleRate
		} else {
			o.SampleRate = 44100
		}
	}
	if o.FrameSize <= 0 {
		o.FrameSize = 1024
	}
	if o.Channels <= 0 {
		o.Channels = 1
	}
	if o.Device != nil && int(o.Device.MaxInputChannels) > 0 && o.Channels > int(o.Device.MaxInputChannels) {
		o.Channels = int(o.Device.MaxInputChannels)
	}
	return o
}

// Run opens the stream and feeds captured frames into out until ctx is done.
// The callback copies each buffer and drops the oldest queued frame when the
// consumer falls behind, so a stalled render loop never blocks the audio
// thread. Run does not close out.
func Run(ctx context.Context, logger *slog.Logger, out chan []float32, opts Options) error {
	if opts.Device == nil {
		return eris.New("audio device is not specified")
	}
	if opts.Device.MaxInputChannels < 1 {
		return eris.Errorf("device %s has no input channels; select a loopback/monitor device", opts.Device.Name)
	}

	opts = opts.Effective()

	logger.Info("using audio input device",
		slog.String("name", opts.Device.Name),
		slog.Float64("sample_rate", opts.SampleRate),
		slog.Int("channels", opts.Channels),
		slog.Int("frame_size", opts.FrameSize))

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   opts.Device,
			Channels: opts.Channels,
			Latency:  opts.Device.DefaultLowInputLatency,
		},
		SampleRate:      opts.SampleRate,
		FramesPerBuffer: opts.FrameSize,
	}
	if opts.Latency > 0 {
		params.Input.Latency = opts.Latency
	}

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		frame := make([]float32, len(in))
		copy(frame, in)

		select {
		case out <- frame:
		default:
			select {
			case <-out:
			default:
			}
			select {
			case out <- frame:
			default:
			}
		}
	})
	if err != nil {
		return eris.Wrap(err, "open audio stream")
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return eris.Wrap(err, "start audio stream")
	}
	defer stream.Stop()

	<-ctx.Done()
	return ctx.Err()
}
