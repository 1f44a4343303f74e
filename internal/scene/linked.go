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

type linkedParticle struct {
	x, y   float64
	vx, vy float64
	hue    float64
}

// linkedParticles drifts a pool of particles and draws proximity links
// between neighbours, pulsing link reach and particle size with the audio.
type linkedParticles struct {
	env           *Environment
	particles     *Buffer[linkedParticle]
	alive         int
	countSmoother *dsp.Smoother
	frame         Frame
}

// NewLinkedParticles constructs the linked-particles variant.
func NewLinkedParticles() Variant {
	return &linkedParticles{}
}

func (v *linkedParticles) ID() ID { return LinkedParticles }

func (v *linkedParticles) Init(ctx context.Context, env *Environment) error {
	v.env = env
	v.particles = NewBuffer[linkedParticle](env.Resources, 10000)
	v.countSmoother = dsp.NewSmoother(0.2)
	for i := range v.particles.Data {
		p := &v.particles.Data[i]
		p.x = env.Rand.Float64() * env.Width
		p.y = env.Rand.Float64() * env.Height
		angle := env.Rand.Float64() * 2 * math.Pi
		p.vx = math.Cos(angle) * 20
		p.vy = math.Sin(angle) * 20
		p.hue = env.Rand.Float64() * 360
	}
	return ctx.Err()
}

func (v *linkedParticles) Update(delta float64, st *settings.Store, features dsp.Features) {
	spawn := reactive.ControlFromSettings(st, settings.GroupSpawn).Map(features)
	turbulence := reactive.ControlFromSettings(st, settings.GroupTurbulence).Map(features)
	size := reactive.ControlFromSettings(st, settings.GroupSize).Map(features)
	speed := reactive.ControlFromSettings(st, settings.GroupSpeed).Map(features)

	baseCount := st.Float(settings.KeyParticleCount)
	target := utils.Clamp(baseCount*spawn, 0, float64(len(v.particles.Data)))
	// Particle-count jitter is visually ugly, so the pool size follows a
	// smoothed target rather than the raw mapped value.
	v.alive = int(v.countSmoother.Step(target))

	linkDist := st.Float(settings.KeyLinkDistance) * (0.6 + 0.8*features.Bass)

	for i := 0; i < v.alive; i++ {
		p := &v.particles.Data[i]
		if turbulence > 0 {
			p.vx += (v.env.Rand.Float64()*2 - 1) * turbulence * 120 * delta
			p.vy += (v.env.Rand.Float64()*2 - 1) * turbulence * 120 * delta
		}
		p.x += p.vx * speed * delta * 3
		p.y += p.vy * speed * delta * 3
		wrap(&p.x, v.env.Width)
		wrap(&p.y, v.env.Height)
		p.hue = math.Mod(p.hue+delta*(10+60*features.High), 360)
	}

	v.buildFrame(size, linkDist, features)
}

func (v *linkedParticles) buildFrame(size, linkDist float64, features dsp.Features) {
	v.frame.Points = v.frame.Points[:0]
	v.frame.Links = v.frame.Links[:0]
	v.frame.Background = color.RGBA{R: 6, G: 6, B: 14, A: 255}

	radius := float32(utils.Clamp(1.5+3*size, 0.5, 12))
	for i := 0; i < v.alive; i++ {
		p := &v.particles.Data[i]
		v.frame.Points = append(v.frame.Points, Point{
			X:     float32(p.x),
			Y:     float32(p.y),
			Size:  radius,
			Color: hsvColor(p.hue, 0.6+0.4*features.Mid, 0.5+0.5*features.Overall),
		})
	}

	// Proximity links. O(n^2) is fine at the few-thousand scale; the link
	// pass caps its candidate count to keep worst-case frames bounded.
	maxLinked := min(v.alive, 700)
	distSq := linkDist * linkDist
	for i := 0; i < maxLinked; i++ {
		a := &v.particles.Data[i]
		for j := i + 1; j < maxLinked; j++ {
			b := &v.particles.Data[j]
			dx := a.x - b.x
			dy := a.y - b.y
			d2 := dx*dx + dy*dy
			if d2 > distSq || d2 == 0 {
				continue
			}
			strength := 1 - math.Sqrt(d2)/linkDist
			v.frame.Links = append(v.frame.Links, Link{
				X1: float32(a.x), Y1: float32(a.y),
				X2: float32(b.x), Y2: float32(b.y),
				Strength: float32(strength),
				Color:    hsvColor((a.hue+b.hue)/2, 0.5, 0.3+0.5*strength),
			})
		}
	}
}

func (v *linkedParticles) Frame() Frame { return v.frame }

func (v *linkedParticles) Cleanup() {
	v.alive = 0
	v.frame = Frame{}
}

func wrap(coord *float64, limit float64) {
	if limit <= 0 {
		return
	}
	for *coord < 0 {
		*coord += limit
	}
	for *coord >= limit {
		*coord -= limit
	}
}
