package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

func sineFrame(frameSize int, freqBin float64) []float32 {
	frame := make([]float32, frameSize)
	for i := range frame {
		frame[i] = float32(math.Sin(2 * math.Pi * freqBin * float64(i) / float64(frameSize)))
	}
	return frame
}

func TestLiveSourceSilentWithoutProducer(t *testing.T) {
	frames := make(chan []float32, 4)
	source := NewLiveSource(frames, 1, 1024, settings.NewStore())

	assert.Equal(t, dsp.Features{}, source.Features())
}

func TestLiveSourceDrainsToNewestFrame(t *testing.T) {
	frames := make(chan []float32, 4)
	source := NewLiveSource(frames, 1, 1024, settings.NewStore())

	// Queue a loud bass frame behind a silent one; only the newest counts.
	frames <- sineFrame(1024, 10)
	frames <- make([]float32, 1024)

	features := source.Features()
	assert.Zero(t, features.Bass)
	assert.Zero(t, features.Overall)
}

func TestLiveSourceKeepsLastWithoutNewFrame(t *testing.T) {
	frames := make(chan []float32, 4)
	source := NewLiveSource(frames, 1, 1024, settings.NewStore())

	frames <- sineFrame(1024, 10)
	first := source.Features()
	assert.Greater(t, first.Bass, 0.0)

	assert.Equal(t, first, source.Features(), "features persist until the next frame arrives")
}

func TestRemoteSourceHoldsLatest(t *testing.T) {
	source := NewRemoteSource()

	assert.Equal(t, dsp.Features{}, source.Features())

	want := dsp.Features{Bass: 0.3, Mid: 0.2, High: 0.1, Overall: 0.2}
	source.Set(want)
	assert.Equal(t, want, source.Features())

	next := dsp.Features{Bass: 0.9}
	source.Set(next)
	assert.Equal(t, next, source.Features())
}
