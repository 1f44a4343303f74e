package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum computes normalized magnitude spectra from mono frames. It reuses
// scratch buffers to keep allocations predictable for real-time processing.
type Spectrum struct {
	frameSize     int
	window        []float64
	windowedFrame []float64
	magnitudes    []float64
}

// NewSpectrum constructs a Spectrum for the given analysis frame size.
func NewSpectrum(frameSize int) *Spectrum {
	if frameSize <= 0 {
		panic("dsp: frameSize must be > 0")
	}
	return &Spectrum{
		frameSize:     frameSize,
		window:        HannWindow(frameSize),
		windowedFrame: make([]float64, frameSize),
		magnitudes:    make([]float64, frameSize/2+1),
	}
}

// Magnitudes returns the Hann-windowed FFT magnitude spectrum of frame,
// normalized so a full-scale sine lands near 1.0. The frame length must match
// the configured frameSize. The returned slice is reused across calls.
func (s *Spectrum) Magnitudes(frame []float64) []float64 {
	if len(frame) != s.frameSize {
		panic("dsp: frame length mismatch")
	}

	copy(s.windowedFrame, frame)
	ApplyWindowInPlace(s.windowedFrame, s.window)

	spectrum := fft.FFTReal(s.windowedFrame)
	half := len(spectrum)/2 + 1
	if len(s.magnitudes) != half {
		s.magnitudes = make([]float64, half)
	}

	// The Hann window halves the coherent gain, hence the extra factor of 2
	// on top of the usual 2/N single-sided scaling.
	scale := 4.0 / float64(s.frameSize)
	for i := 0; i < half; i++ {
		s.magnitudes[i] = cmplx.Abs(spectrum[i]) * scale
	}
	return s.magnitudes
}

// ToMono averages interleaved multi-channel data into a mono frame.
func ToMono(samples []float32, channels int, dst []float64) []float64 {
	if channels <= 0 {
		channels = 1
	}
	frameLen := len(samples) / channels
	if cap(dst) < frameLen {
		dst = make([]float64, frameLen)
	} else {
		dst = dst[:frameLen]
	}
	if frameLen == 0 {
		return dst
	}
	idx := 0
	for i := 0; i < frameLen; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(samples[idx])
			idx++
		}
		dst[i] = sum / float64(channels)
	}
	return dst
}

// HannWindow returns a precomputed Hann window for the requested size.
func HannWindow(n int) []float64 {
	if n <= 0 {
		return nil
	}
	window := make([]float64, n)
	if n == 1 {
		window[0] = 1
		return window
	}
	for i := 0; i < n; i++ {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return window
}

// ApplyWindowInPlace multiplies samples by a window function in-place.
func ApplyWindowInPlace(samples []float64, window []float64) {
	switch {
	case len(samples) == 0:
		return
	case len(samples) != len(window):
		panic("dsp: window length mismatch")
	}
	for i := range samples {
		samples[i] *= window[i]
	}
}
