package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func unitSensitivity() Sensitivity {
	return Sensitivity{Bass: 1, Mid: 1, High: 1}
}

func TestAnalyzeZeroSpectrum(t *testing.T) {
	analyzer := NewBandAnalyzer()
	spectrum := make([]float64, 256)

	features := analyzer.Analyze(spectrum, Sensitivity{Bass: 5, Mid: 5, High: 5})

	assert.Equal(t, Features{}, features)
}

func TestAnalyzeComponentsInRange(t *testing.T) {
	analyzer := NewBandAnalyzer()
	spectrum := make([]float64, 512)
	for i := range spectrum {
		spectrum[i] = float64(i%7) / 3.0 // some bins deliberately above 1
	}

	features := analyzer.Analyze(spectrum, Sensitivity{Bass: 2.5, Mid: 1, High: 0.3})

	for _, v := range []float64{features.Bass, features.Mid, features.High, features.Overall} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.InDelta(t, (features.Bass+features.Mid+features.High)/3, features.Overall, 1e-12)
}

func TestAnalyzeBassOnlySpectrum(t *testing.T) {
	analyzer := NewBandAnalyzer()
	spectrum := make([]float64, 100)
	bassEnd := 8 // 8% of 100 bins
	for i := 0; i < bassEnd; i++ {
		spectrum[i] = 200.0 / 255.0
	}

	features := analyzer.Analyze(spectrum, Sensitivity{Bass: 1.5, Mid: 1, High: 1})

	// 200/255 * 1.5 exceeds 1, so the bass band saturates.
	assert.Equal(t, 1.0, features.Bass)
	assert.Equal(t, 0.0, features.Mid)
	assert.Equal(t, 0.0, features.High)
	assert.InDelta(t, 1.0/3.0, features.Overall, 1e-12)
}

func TestAnalyzeTooFewBins(t *testing.T) {
	analyzer := NewBandAnalyzer()
	spectrum := make([]float64, 12)
	for i := range spectrum {
		spectrum[i] = 1
	}

	assert.Equal(t, Features{}, analyzer.Analyze(spectrum, unitSensitivity()))
	assert.Equal(t, Features{}, analyzer.Analyze(nil, unitSensitivity()))
}

func TestAnalyzeMinimumViableResolution(t *testing.T) {
	analyzer := NewBandAnalyzer()
	spectrum := make([]float64, 13)
	for i := range spectrum {
		spectrum[i] = 0.5
	}

	features := analyzer.Analyze(spectrum, unitSensitivity())

	assert.InDelta(t, 0.5, features.Bass, 1e-12)
	assert.InDelta(t, 0.5, features.Mid, 1e-12)
	assert.InDelta(t, 0.5, features.High, 1e-12)
}

func TestAnalyzeSensitivityScaling(t *testing.T) {
	analyzer := NewBandAnalyzer()
	spectrum := make([]float64, 200)
	for i := range spectrum {
		spectrum[i] = 0.2
	}

	features := analyzer.Analyze(spectrum, Sensitivity{Bass: 2, Mid: 1, High: 0.5})

	assert.InDelta(t, 0.4, features.Bass, 1e-12)
	assert.InDelta(t, 0.2, features.Mid, 1e-12)
	assert.InDelta(t, 0.1, features.High, 1e-12)
}

func TestNormalizeBytes(t *testing.T) {
	out := NormalizeBytes([]byte{0, 51, 255}, nil)

	assert.InDelta(t, 0.0, out[0], 1e-12)
	assert.InDelta(t, 0.2, out[1], 1e-12)
	assert.InDelta(t, 1.0, out[2], 1e-12)
}
