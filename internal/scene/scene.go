// Package scene tracks which simulation variant is active and owns the
// init/update/cleanup lifecycle for exactly one active variant per window.
package scene

import (
	"context"
	"image/color"
	"math/rand"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

// ID names one selectable simulation variant.
type ID string

// The closed set of registered variants.
const (
	LinkedParticles ID = "linked-particles"
	FlowingPoints   ID = "flowing-points"
	PointCloud      ID = "point-cloud"
)

// Variant is one simulation/visual mode with its own state buffers and
// lifecycle. Init runs once before the first Update; Cleanup exactly once
// before a different variant becomes active or the window closes and must
// release every tracked resource.
type Variant interface {
	ID() ID
	Init(ctx context.Context, env *Environment) error
	Update(delta float64, st *settings.Store, features dsp.Features)
	Frame() Frame
	Cleanup()
}

// Environment carries the per-window context a variant initializes against.
type Environment struct {
	Width     float64
	Height    float64
	Rand      *rand.Rand
	Assets    AssetLoader
	Resources *ResourceSet
}

// AssetLoader resolves external assets referenced by a variant during Init.
// Load failures propagate out of Init and leave the manager empty.
type AssetLoader interface {
	LoadPointCloud(ctx context.Context, name string) ([]CloudPoint, error)
}

// CloudPoint is one sample of a loaded point-cloud model, in model space
// roughly within [-1,1] per axis.
type CloudPoint struct {
	X, Y, Z float64
}

// Point is one renderable particle in window coordinates.
type Point struct {
	X, Y  float32
	Size  float32
	Color color.RGBA
}

// Link is a line between two points of the frame.
type Link struct {
	X1, Y1   float32
	X2, Y2   float32
	Strength float32
	Color    color.RGBA
}

// Frame is the drawable state a variant exposes to the external renderer
// each tick. The renderer knows nothing about the simulation behind it.
type Frame struct {
	Points     []Point
	Links      []Link
	Background color.RGBA
}
