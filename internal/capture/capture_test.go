package capture

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveDefaults(t *testing.T) {
	device := &portaudio.DeviceInfo{DefaultSampleRate: 48000, MaxInputChannels: 2}

	opts := Options{Device: device}.Effective()

	assert.Equal(t, 48000.0, opts.SampleRate)
	assert.Equal(t, 1024, opts.FrameSize)
	assert.Equal(t, 1, opts.Channels)
}

func TestEffectiveClampsChannelsToDevice(t *testing.T) {
	device := &portaudio.DeviceInfo{DefaultSampleRate: 44100, MaxInputChannels: 2}

	opts := Options{Device: device, Channels: 8, SampleRate: 22050, FrameSize: 512}.Effective()

	assert.Equal(t, 2, opts.Channels)
	assert.Equal(t, 22050.0, opts.SampleRate)
	assert.Equal(t, 512, opts.FrameSize)
}

func TestRunRejectsMissingDevice(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := Run(context.Background(), logger, make(chan []float32, 1), Options{})

	assert.Error(t, err)
}

func TestRunRejectsOutputOnlyDevice(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	device := &portaudio.DeviceInfo{Name: "hdmi-out", MaxInputChannels: 0}

	err := Run(context.Background(), logger, make(chan []float32, 1), Options{Device: device})

	assert.Error(t, err)
}
