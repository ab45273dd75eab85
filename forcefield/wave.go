package forcefield

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/components"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/interaction"
	"github.com/pthm-cable/jelly/particle"
)

// Wave is the continuous ray-cast policy: while the pointer is active, a
// radial wave front, a pointer-velocity swirl, and per-particle turbulence
// push the cloud around the tracked hit point. A magnetic spring pulls
// everything back at all times, and an idle breathing overlay keeps the
// cloud alive even without input.
type Wave struct {
	rng *rand.Rand

	radius      float32
	strength    float32
	waveSpeed   float32
	swirl       float32
	turbK       float32
	magnetic    float32
	breathAmp   float32
	breathSpeed float32
}

// NewWave builds the policy from config.
func NewWave(cfg *config.Config, rng *rand.Rand) *Wave {
	return &Wave{
		rng:         rng,
		radius:      float32(cfg.Wave.Radius),
		strength:    float32(cfg.Wave.Strength),
		waveSpeed:   float32(cfg.Wave.WaveSpeed),
		swirl:       float32(cfg.Wave.Swirl),
		turbK:       float32(cfg.Wave.Turbulence),
		magnetic:    float32(cfg.Wave.Magnetic),
		breathAmp:   float32(cfg.Wave.BreathAmp),
		breathSpeed: float32(cfg.Wave.BreathSpeed),
	}
}

func (p *Wave) Name() string           { return "wave" }
func (p *Wave) Mode() interaction.Mode { return interaction.ModeRay }

// SpringK returns the magnetic coefficient: the restoring force applies at
// all times, active or not.
func (p *Wave) SpringK() float32 { return p.magnetic }

// Accumulate applies the wave, swirl, and turbulence terms to every
// particle inside the influence radius of the tracked hit point.
func (p *Wave) Accumulate(s *particle.Store, st *interaction.State, cam *camera.Camera, dt float32) {
	if !st.Active || !st.HitValid {
		return
	}

	q := s.Query()
	for q.Next() {
		rest, _, _, force, g := q.Get()

		to := rest.V.Sub(st.Hit)
		d := to.Len()
		if d >= p.radius {
			continue
		}
		infl := 1 - d/p.radius

		// Radial wave front moving outward from the hit point.
		w := sin32(st.WaveClock-d*p.waveSpeed)*0.5 + 0.5

		f := safeDir(to, p.rng).Mul(w * p.strength * infl)

		// Pointer velocity rotated 90 degrees in the screen plane.
		sx, sy := st.VelEstimate.X(), -st.VelEstimate.Y()
		f[0] += -sy * p.swirl * infl
		f[1] += sx * p.swirl * infl

		// Per-particle turbulence rides the wave term.
		f = f.Add(g.Turb.Mul(w * p.turbK))

		force.V = force.V.Add(f)
	}
}

// Settle has nothing to do: relaxation is the integrator's magnetic spring.
func (p *Wave) Settle(s *particle.Store, st *interaction.State, now float32) {}

// Overlay returns the idle breathing displacement: a slow oscillation along
// the particle's own radial direction, phased per particle. Layered on the
// exported positions only, never integrated.
func (p *Wave) Overlay(rest mgl32.Vec3, g *components.Grain, now float32) mgl32.Vec3 {
	if p.breathAmp == 0 {
		return mgl32.Vec3{}
	}
	d := rest.Dot(rest)
	if d == 0 {
		return mgl32.Vec3{}
	}
	dir := rest.Mul(1 / sqrt32(d))
	return dir.Mul(p.breathAmp * sin32(now*p.breathSpeed+g.Phase))
}
