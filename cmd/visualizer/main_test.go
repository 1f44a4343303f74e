package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cybre/aurora-visualizer/internal/beat"
	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/engine"
	"github.com/cybre/aurora-visualizer/internal/scene"
)

func TestToMonitorFrameCarriesReceiverState(t *testing.T) {
	frame := engine.Frame{
		Features:    dsp.Features{Bass: 0.4, Mid: 0.3, High: 0.2, Overall: 0.3},
		Beat:        beat.State{Beat: true, Strength: 0.8, Pulse: 0.9},
		Bloom:       engine.BloomParams{Strength: 0.6},
		Elapsed:     12.5,
		ActiveScene: scene.FlowingPoints,
	}

	got := toMonitorFrame(frame, true)
	assert.True(t, got.Receivers)
	assert.Equal(t, "flowing-points", got.Scene)
	assert.Equal(t, 0.4, got.Bass)
	assert.True(t, got.Beat)

	assert.False(t, toMonitorFrame(frame, false).Receivers)
}
