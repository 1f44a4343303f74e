// Package reactive maps audio band levels through user-tunable response
// curves into concrete simulation parameters.
package reactive

import (
	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

// Control is a four-term linear model describing one visual parameter's audio
// responsiveness: a base intensity plus three band weights, each in [0,100].
type Control struct {
	Intensity  float64
	BassWeight float64
	MidWeight  float64
	HighWeight float64
}

// Map evaluates the control against the given features:
//
//	intensity/100 * (1 + bass*bassWeight/100 + mid*midWeight/100 + high*highWeight/100)
//
// The output is unbounded above and never negative for non-negative inputs.
// Intensity gates multiplicatively: at zero intensity the result is zero no
// matter the weights. Callers clamp per parameter where a cap matters.
func (c Control) Map(f dsp.Features) float64 {
	boost := 1 +
		f.Bass*c.BassWeight/100 +
		f.Mid*c.MidWeight/100 +
		f.High*c.HighWeight/100
	return c.Intensity / 100 * boost
}

// ControlFromSettings reads the four entries of a named control group
// (<prefix>Intensity, <prefix>BassWeight, <prefix>MidWeight,
// <prefix>HighWeight) out of a single snapshot so the fields cannot tear
// across a concurrent write.
func ControlFromSettings(st *settings.Store, prefix string) Control {
	snapshot := st.Snapshot()
	return Control{
		Intensity:  floatFrom(snapshot, prefix+"Intensity"),
		BassWeight: floatFrom(snapshot, prefix+"BassWeight"),
		MidWeight:  floatFrom(snapshot, prefix+"MidWeight"),
		HighWeight: floatFrom(snapshot, prefix+"HighWeight"),
	}
}

func floatFrom(snapshot map[string]any, key string) float64 {
	v, _ := snapshot[key].(float64)
	return v
}
