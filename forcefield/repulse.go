package forcefield

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/interaction"
	"github.com/pthm-cable/jelly/particle"
)

// Repulse is the directed-repulsion policy: continuous screen-space push
// away from the pointer while pressed, ambient jitter while hovering.
//
// Directions are recomputed every frame from the live projected position,
// which is what makes displaced particles orbit the cursor instead of
// shooting off along a fixed ray.
type Repulse struct {
	rng *rand.Rand

	radius     float32 // influence radius in screen pixels
	strength   float32
	pushMult   float32
	drag       float32
	jitter     float32
	hoverScale float32
	springK    float32
}

// NewRepulse builds the policy from config.
func NewRepulse(cfg *config.Config, rng *rand.Rand) *Repulse {
	return &Repulse{
		rng:        rng,
		radius:     float32(cfg.Repulse.Radius),
		strength:   float32(cfg.Repulse.Strength),
		pushMult:   float32(cfg.Repulse.PushMultiplier),
		drag:       float32(cfg.Repulse.Drag),
		jitter:     float32(cfg.Repulse.Jitter),
		hoverScale: float32(cfg.Repulse.HoverScale),
		springK:    cfg.Derived.Spring32,
	}
}

func (p *Repulse) Name() string           { return "repulse" }
func (p *Repulse) Mode() interaction.Mode { return interaction.ModeScreen }
func (p *Repulse) SpringK() float32       { return p.springK }

// Accumulate refreshes the cached screen projections and applies the
// screen-space force field.
func (p *Repulse) Accumulate(s *particle.Store, st *interaction.State, cam *camera.Camera, dt float32) {
	refreshScreens(s, cam)
	if !st.Active {
		return
	}
	p.apply(s, st)
}

// apply computes forces from the cached screen positions. Split from
// Accumulate so the force shape is testable without a camera.
func (p *Repulse) apply(s *particle.Store, st *interaction.State) {
	q := s.Query()
	for q.Next() {
		_, _, _, force, g := q.Get()
		if !g.Front {
			continue
		}

		delta := g.Screen.Sub(st.Screen)
		d := delta.Len()
		if d >= p.radius {
			continue
		}
		infl := 1 - d/p.radius

		if st.Pressed {
			var dir mgl32.Vec2
			if d > 0 {
				dir = delta.Mul(1 / d)
			} else {
				dir = randUnitVec2(p.rng)
			}
			mag := infl * infl * p.strength * p.pushMult

			// Screen y grows downward; world y grows upward.
			force.V[0] += dir.X()*mag + st.VelEstimate.X()*infl*p.drag
			force.V[1] += -dir.Y()*mag - st.VelEstimate.Y()*infl*p.drag
			force.V[2] += (p.rng.Float32() - 0.5) * infl * p.jitter
		} else {
			// Hover: ambient per-axis disturbance, no directed push.
			amp := infl * infl * p.strength * p.hoverScale
			force.V[0] += (p.rng.Float32()*2 - 1) * amp
			force.V[1] += (p.rng.Float32()*2 - 1) * amp
			force.V[2] += (p.rng.Float32()*2 - 1) * amp
		}
	}
}

// Settle has nothing to do: the integrator spring handles relaxation.
func (p *Repulse) Settle(s *particle.Store, st *interaction.State, now float32) {}
