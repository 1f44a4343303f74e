package dsp

import (
	"github.com/cybre/aurora-visualizer/internal/utils"
)

// Fractional spectrum split shared by every window. The bottom 8% of bins
// carries the bass content at typical capture rates, the next 32% the mids,
// and the remainder the highs.
const (
	bassFraction = 0.08
	midFraction  = 0.40

	// minAnalysisBins is the smallest spectrum for which all three bands are
	// at least one bin wide. Anything shorter analyzes as silence.
	minAnalysisBins = 13
)

// Features is the per-frame band summary every downstream stage consumes.
// Each component is clamped to [0,1]; Overall is the mean of the other three.
type Features struct {
	Bass    float64 `json:"bass"`
	Mid     float64 `json:"mid"`
	High    float64 `json:"high"`
	Overall float64 `json:"overall"`
}

// Sensitivity holds the per-band gain multipliers applied before clamping.
type Sensitivity struct {
	Bass float64
	Mid  float64
	High float64
}

// BandAnalyzer reduces a normalized magnitude spectrum to three band levels.
type BandAnalyzer struct{}

// NewBandAnalyzer constructs a BandAnalyzer.
func NewBandAnalyzer() *BandAnalyzer {
	return &BandAnalyzer{}
}

// Analyze averages the normalized bin magnitudes of each band, applies the
// band's sensitivity, and clamps the result to 1. A spectrum shorter than the
// minimum analysis resolution (or absent entirely) yields zero features: a
// valid silent state, not an error, so a window without an audio source runs
// the identical pipeline.
func (a *BandAnalyzer) Analyze(magnitudes []float64, sens Sensitivity) Features {
	n := len(magnitudes)
	if n < minAnalysisBins {
		return Features{}
	}

	bassEnd := int(float64(n) * bassFraction)
	midEnd := int(float64(n) * midFraction)

	bass := bandLevel(magnitudes[:bassEnd], sens.Bass)
	mid := bandLevel(magnitudes[bassEnd:midEnd], sens.Mid)
	high := bandLevel(magnitudes[midEnd:], sens.High)

	return Features{
		Bass:    bass,
		Mid:     mid,
		High:    high,
		Overall: (bass + mid + high) / 3,
	}
}

func bandLevel(bins []float64, sensitivity float64) float64 {
	if len(bins) == 0 {
		return 0
	}
	var sum float64
	for _, mag := range bins {
		sum += mag
	}
	avg := sum / float64(len(bins))
	return utils.Clamp(avg*sensitivity, 0.0, 1.0)
}

// NormalizeBytes converts a [0,255] byte spectrum into [0,1] floats, reusing
// dst when it has the capacity.
func NormalizeBytes(spectrum []byte, dst []float64) []float64 {
	if cap(dst) < len(spectrum) {
		dst = make([]float64, len(spectrum))
	} else {
		dst = dst[:len(spectrum)]
	}
	for i, v := range spectrum {
		dst[i] = float64(v) / 255.0
	}
	return dst
}
