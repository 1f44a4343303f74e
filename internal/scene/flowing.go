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

type flowPoint struct {
	x, y  float64
	age   float64
	life  float64
	phase float64
}

// flowingPoints streams short-lived points along a time-varying flow field.
// Bass bends the field, highs shorten point lifetimes for a sparkle effect.
type flowingPoints struct {
	env           *Environment
	points        *Buffer[flowPoint]
	alive         int
	countSmoother *dsp.Smoother
	time          float64
	frame         Frame
}

// NewFlowingPoints constructs the flowing-points variant.
func NewFlowingPoints() Variant {
	return &flowingPoints{}
}

func (v *flowingPoints) ID() ID { return FlowingPoints }

func (v *flowingPoints) Init(ctx context.Context, env *Environment) error {
	v.env = env
	v.points = NewBuffer[flowPoint](env.Resources, 10000)
	v.countSmoother = dsp.NewSmoother(0.15)
	for i := range v.points.Data {
		v.respawn(&v.points.Data[i])
		// Stagger initial ages so the field doesn't pulse in lockstep.
		v.points.Data[i].age = env.Rand.Float64() * v.points.Data[i].life
	}
	return ctx.Err()
}

func (v *flowingPoints) respawn(p *flowPoint) {
	p.x = v.env.Rand.Float64() * v.env.Width
	p.y = v.env.Rand.Float64() * v.env.Height
	p.age = 0
	p.life = 2 + v.env.Rand.Float64()*4
	p.phase = v.env.Rand.Float64() * 2 * math.Pi
}

func (v *flowingPoints) Update(delta float64, st *settings.Store, features dsp.Features) {
	spawn := reactive.ControlFromSettings(st, settings.GroupSpawn).Map(features)
	turbulence := reactive.ControlFromSettings(st, settings.GroupTurbulence).Map(features)
	size := reactive.ControlFromSettings(st, settings.GroupSize).Map(features)
	speed := reactive.ControlFromSettings(st, settings.GroupSpeed).Map(features)

	v.time += delta * (0.3 + speed)

	baseCount := st.Float(settings.KeyParticleCount)
	target := utils.Clamp(baseCount*spawn, 0, float64(len(v.points.Data)))
	v.alive = int(v.countSmoother.Step(target))

	fieldScale := 0.004 * (1 + 2*turbulence)
	bend := 2 * math.Pi * features.Bass
	velocity := 60 * (0.5 + speed)

	for i := 0; i < v.alive; i++ {
		p := &v.points.Data[i]
		p.age += delta * (1 + 3*features.High)
		if p.age >= p.life {
			v.respawn(p)
		}

		angle := flowAngle(p.x, p.y, v.time, fieldScale, p.phase) + bend
		p.x += math.Cos(angle) * velocity * delta
		p.y += math.Sin(angle) * velocity * delta
		wrap(&p.x, v.env.Width)
		wrap(&p.y, v.env.Height)
	}

	v.buildFrame(size, features)
}

// flowAngle is a cheap pseudo-curl field: layered sines give smooth local
// rotation without a noise-table dependency.
func flowAngle(x, y, t, scale, phase float64) float64 {
	return math.Sin(x*scale+t)*math.Pi +
		math.Cos(y*scale*1.3-t*0.7)*math.Pi*0.5 +
		phase*0.1
}

func (v *flowingPoints) buildFrame(size float64, features dsp.Features) {
	v.frame.Points = v.frame.Points[:0]
	v.frame.Links = v.frame.Links[:0]
	v.frame.Background = color.RGBA{R: 4, G: 8, B: 12, A: 255}

	for i := 0; i < v.alive; i++ {
		p := &v.points.Data[i]
		lifeFrac := 1 - p.age/p.life
		hue := math.Mod(180+120*lifeFrac+200*features.Mid, 360)
		v.frame.Points = append(v.frame.Points, Point{
			X:     float32(p.x),
			Y:     float32(p.y),
			Size:  float32(utils.Clamp((1+2.5*size)*lifeFrac+0.5, 0.5, 10)),
			Color: hsvColor(hue, 0.7, 0.3+0.7*lifeFrac),
		})
	}
}

func (v *flowingPoints) Frame() Frame { return v.frame }

func (v *flowingPoints) Cleanup() {
	v.alive = 0
	v.frame = Frame{}
}
