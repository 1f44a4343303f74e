// Package beat detects energy transients in the band feature stream and
// maintains a decaying pulse envelope for beat-driven visual accents.
package beat

import (
	"time"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/utils"
)

// Options tunes the Detector.
type Options struct {
	EnergyWindow int
	Threshold    float64
	MinInterval  time.Duration
	PulseDecay   float64
}

// State is the per-tick beat summary.
type State struct {
	Beat     bool
	Strength float64
	Pulse    float64
}

// Detector compares instantaneous overall energy against a rolling average
// and flags a beat when the ratio exceeds the threshold, with a refractory
// interval to suppress double triggers.
type Detector struct {
	opts Options

	energyHistory []float64
	energySum     float64
	energyCount   int
	energyIndex   int

	lastBeat time.Time
	pulse    float64
}

// NewDetector returns a Detector with defaults tuned for the ~60 ticks/s
// regime of the render loop.
func NewDetector(opts Options) *Detector {
	if opts.EnergyWindow <= 0 {
		opts.EnergyWindow = 45
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 1.4
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = 180 * time.Millisecond
	}
	if opts.PulseDecay <= 0 {
		opts.PulseDecay = 0.9
	}

	return &Detector{
		opts:          opts,
		energyHistory: make([]float64, opts.EnergyWindow),
	}
}

// Step ingests the latest features and returns the current beat state.
func (d *Detector) Step(ts time.Time, features dsp.Features) State {
	energy := features.Overall

	d.energySum -= d.energyHistory[d.energyIndex]
	d.energyHistory[d.energyIndex] = energy
	d.energySum += energy
	d.energyIndex = (d.energyIndex + 1) % len(d.energyHistory)
	if d.energyCount < len(d.energyHistory) {
		d.energyCount++
	}
	avgEnergy := d.energySum / float64(max(d.energyCount, 1))

	beat, strength := d.detect(ts, energy, avgEnergy)
	if beat {
		d.lastBeat = ts
		d.pulse = utils.Clamp(strength*1.2, d.pulse, 1.0)
	} else {
		d.pulse *= d.opts.PulseDecay
	}

	return State{Beat: beat, Strength: strength, Pulse: d.pulse}
}

func (d *Detector) detect(ts time.Time, energy, avgEnergy float64) (bool, float64) {
	if avgEnergy <= 1e-9 {
		return false, 0
	}
	if !d.lastBeat.IsZero() && ts.Sub(d.lastBeat) < d.opts.MinInterval {
		return false, 0
	}

	threshold := d.opts.Threshold * avgEnergy
	if energy <= threshold {
		return false, 0
	}

	return true, utils.Clamp((energy-threshold)/(1-threshold+1e-9), 0, 1)
}
