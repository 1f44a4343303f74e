package engine

import (
	"sync"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

// FeatureSource yields the band features for the current tick.
type FeatureSource interface {
	Features() dsp.Features
}

// LiveSource analyzes captured audio frames. It drains the capture channel
// down to the most recent frame each tick; when no new frame arrived it keeps
// the previous features, and with no producer at all it stays silent, so the
// pipeline runs identically without an audio device.
type LiveSource struct {
	frames   <-chan []float32
	channels int
	store    *settings.Store

	spectrum *dsp.Spectrum
	analyzer *dsp.BandAnalyzer
	mono     []float64
	last     dsp.Features
}

// NewLiveSource constructs a live source reading interleaved frames of the
// given channel count, analyzed at frameSize resolution.
func NewLiveSource(frames <-chan []float32, channels, frameSize int, store *settings.Store) *LiveSource {
	return &LiveSource{
		frames:   frames,
		channels: channels,
		store:    store,
		spectrum: dsp.NewSpectrum(frameSize),
		analyzer: dsp.NewBandAnalyzer(),
	}
}

// Features implements FeatureSource.
func (s *LiveSource) Features() dsp.Features {
	var frame []float32
	for {
		select {
		case f, ok := <-s.frames:
			if !ok {
				return s.last
			}
			frame = f
		default:
			if frame == nil {
				return s.last
			}
			s.mono = dsp.ToMono(frame, s.channels, s.mono)
			magnitudes := s.spectrum.Magnitudes(s.mono)

			snapshot := s.store.Snapshot()
			sens := dsp.Sensitivity{
				Bass: floatFrom(snapshot, settings.KeyBassSensitivity),
				Mid:  floatFrom(snapshot, settings.KeyMidSensitivity),
				High: floatFrom(snapshot, settings.KeyHighSensitivity),
			}
			s.last = s.analyzer.Analyze(magnitudes, sens)
			return s.last
		}
	}
}

func floatFrom(snapshot map[string]any, key string) float64 {
	v, _ := snapshot[key].(float64)
	return v
}

// RemoteSource holds the features most recently pushed across the broadcast
// channel. Writes come from the receiver goroutine, reads from the render
// loop, hence the lock.
type RemoteSource struct {
	mu   sync.Mutex
	last dsp.Features
}

// NewRemoteSource constructs an initially silent remote source.
func NewRemoteSource() *RemoteSource {
	return &RemoteSource{}
}

// Set replaces the stored features.
func (s *RemoteSource) Set(features dsp.Features) {
	s.mu.Lock()
	s.last = features
	s.mu.Unlock()
}

// Features implements FeatureSource.
func (s *RemoteSource) Features() dsp.Features {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
