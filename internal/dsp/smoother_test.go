package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmootherFirstSamplePassesThrough(t *testing.T) {
	s := NewSmoother(0.2)

	assert.Equal(t, 0.8, s.Step(0.8))
	assert.Equal(t, 0.8, s.Value())
}

func TestSmootherConverges(t *testing.T) {
	s := NewSmoother(0.5)
	s.Step(0)

	v := 0.0
	for i := 0; i < 32; i++ {
		v = s.Step(1)
	}

	assert.InDelta(t, 1.0, v, 1e-6)
}

func TestSmootherStepFormula(t *testing.T) {
	s := NewSmoother(0.25)
	s.Step(0)

	assert.InDelta(t, 0.25, s.Step(1), 1e-12)
	assert.InDelta(t, 0.4375, s.Step(1), 1e-12)
}
