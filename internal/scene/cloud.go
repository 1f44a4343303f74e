package scene

import (
	"context"
	"image/color"
	"math"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/reactive"
	"github.com/cybre/aurora-visualizer/internal/settings"
	"github.com/cybre/aurora-visualizer/internal/utils"
)

// pointCloudAsset names the model requested from the asset loader.
const pointCloudAsset = "figure"

// pointCloud projects a loaded point-cloud model to the window, spinning it
// and displacing points radially with the band energy.
type pointCloud struct {
	env      *Environment
	model    *Buffer[CloudPoint]
	deformed *Buffer[CloudPoint]
	rotation float64
	frame    Frame
}

// NewPointCloud constructs the point-cloud variant.
func NewPointCloud() Variant {
	return &pointCloud{}
}

func (v *pointCloud) ID() ID { return PointCloud }

func (v *pointCloud) Init(ctx context.Context, env *Environment) error {
	v.env = env

	points, err := env.Assets.LoadPointCloud(ctx, pointCloudAsset)
	if err != nil {
		return err
	}

	v.model = NewBuffer[CloudPoint](env.Resources, len(points))
	copy(v.model.Data, points)
	v.deformed = NewBuffer[CloudPoint](env.Resources, len(points))
	return nil
}

func (v *pointCloud) Update(delta float64, st *settings.Store, features dsp.Features) {
	turbulence := reactive.ControlFromSettings(st, settings.GroupTurbulence).Map(features)
	size := reactive.ControlFromSettings(st, settings.GroupSize).Map(features)
	speed := reactive.ControlFromSettings(st, settings.GroupSpeed).Map(features)

	v.rotation += delta * (0.2 + speed*0.8)

	displacement := 0.25*features.Bass + 0.1*turbulence
	sin, cos := math.Sincos(v.rotation)

	for i, p := range v.model.Data {
		r := 1 + displacement*math.Sin(float64(i)*0.37+v.rotation*3)
		x := p.X * r
		z := p.Z * r
		v.deformed.Data[i] = CloudPoint{
			X: x*cos - z*sin,
			Y: p.Y * (1 + 0.15*features.Mid),
			Z: x*sin + z*cos,
		}
	}

	v.buildFrame(size, features)
}

func (v *pointCloud) buildFrame(size float64, features dsp.Features) {
	v.frame.Points = v.frame.Points[:0]
	v.frame.Links = v.frame.Links[:0]
	v.frame.Background = color.RGBA{R: 10, G: 4, B: 12, A: 255}

	cx := v.env.Width / 2
	cy := v.env.Height / 2
	scale := math.Min(v.env.Width, v.env.Height) * 0.35

	for _, p := range v.deformed.Data {
		// Simple perspective: z in [-1,1] maps to a depth factor.
		depth := 1 / (2.2 - p.Z)
		hue := math.Mod(280+80*p.Z+140*features.High, 360)
		v.frame.Points = append(v.frame.Points, Point{
			X:     float32(cx + p.X*scale*depth*2.2),
			Y:     float32(cy - p.Y*scale*depth*2.2),
			Size:  float32(utils.Clamp((1+2*size)*depth*3, 0.5, 9)),
			Color: hsvColor(hue, 0.65, utils.Clamp(0.35+depth+0.3*features.Overall, 0, 1)),
		})
	}
}

func (v *pointCloud) Frame() Frame { return v.frame }

func (v *pointCloud) Cleanup() {
	v.frame = Frame{}
}

// ProceduralAssets is the default asset loader: it samples well-known
// parametric figures instead of reading model files from disk.
type ProceduralAssets struct{}

// LoadPointCloud returns the named figure. Unknown names are an error so a
// bad asset reference surfaces at init time rather than as an empty scene.
func (ProceduralAssets) LoadPointCloud(ctx context.Context, name string) ([]CloudPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch name {
	case pointCloudAsset:
		return sampleTorusKnot(2400), nil
	default:
		return nil, errUnknownAsset(name)
	}
}

func sampleTorusKnot(n int) []CloudPoint {
	points := make([]CloudPoint, n)
	for i := range points {
		t := float64(i) / float64(n) * 2 * math.Pi
		// (2,3) torus knot, normalized to roughly [-1,1].
		r := 0.5 * (2 + math.Cos(3*t))
		points[i] = CloudPoint{
			X: r * math.Cos(2*t) / 1.5,
			Y: r * math.Sin(2*t) / 1.5,
			Z: 0.5 * math.Sin(3*t),
		}
	}
	return points
}
