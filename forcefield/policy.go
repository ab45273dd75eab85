// Package forcefield implements the per-frame force-and-integration model:
// four interchangeable policies that turn the interaction point into
// per-particle forces, and the integrator that advances the particle state
// under damping and spring relaxation.
package forcefield

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/components"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/interaction"
	"github.com/pthm-cable/jelly/particle"
)

// Policy is one force-field behavior. All four policies share the particle
// store, the interaction mapper, and the integrator; only the force shape
// differs.
type Policy interface {
	// Name returns the config identifier of the policy.
	Name() string

	// Mode returns the interaction mode the policy needs.
	Mode() interaction.Mode

	// SpringK returns the restoring coefficient the integrator applies
	// toward the rest position. Zero means the policy manages its own
	// relaxation in Settle.
	SpringK() float32

	// Accumulate writes this frame's forces into the force accumulators.
	// Runs before the integrator pass.
	Accumulate(s *particle.Store, st *interaction.State, cam *camera.Camera, dt float32)

	// Settle runs after the integrator pass: offset easing, snap-to-rest
	// bookkeeping. now is the engine clock in seconds.
	Settle(s *particle.Store, st *interaction.State, now float32)
}

// Overlayer is implemented by policies that layer a display-only
// displacement on top of the integrated position (idle breathing). The
// overlay never feeds back into the velocity or force accumulators.
type Overlayer interface {
	Overlay(rest mgl32.Vec3, g *components.Grain, now float32) mgl32.Vec3
}

// New builds the policy selected by cfg.Interaction.Policy.
func New(cfg *config.Config, rng *rand.Rand) (Policy, error) {
	switch cfg.Interaction.Policy {
	case "repulse":
		return NewRepulse(cfg, rng), nil
	case "impulse":
		return NewImpulse(cfg, rng), nil
	case "wave":
		return NewWave(cfg, rng), nil
	case "depth_kick":
		return NewDepthKick(cfg, rng), nil
	default:
		return nil, fmt.Errorf("unknown force-field policy %q", cfg.Interaction.Policy)
	}
}

// randUnitVec returns a uniformly distributed unit vector. Used as the
// deterministic-per-call fallback when a push direction degenerates to zero,
// so no NaN ever reaches the position buffer.
func randUnitVec(rng *rand.Rand) mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
		}
		d := v.Dot(v)
		if d > 1e-6 && d <= 1 {
			return v.Mul(1 / sqrt32(d))
		}
	}
}

// randUnitVec2 is the screen-space variant of randUnitVec.
func randUnitVec2(rng *rand.Rand) mgl32.Vec2 {
	a := rng.Float64() * 2 * math.Pi
	return mgl32.Vec2{float32(math.Cos(a)), float32(math.Sin(a))}
}

// safeDir normalizes v, substituting a random unit vector when v is zero.
func safeDir(v mgl32.Vec3, rng *rand.Rand) mgl32.Vec3 {
	d := v.Dot(v)
	if d == 0 {
		return randUnitVec(rng)
	}
	return v.Mul(1 / sqrt32(d))
}

// lerp3 interpolates a toward b by factor t.
func lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

// refreshScreens recomputes every particle's cached screen projection from
// its live position. Screen-space policies call this once per frame so push
// directions follow the deformed cloud, not the rest shape.
func refreshScreens(s *particle.Store, cam *camera.Camera) {
	q := s.Query()
	for q.Next() {
		_, pos, _, _, g := q.Get()
		g.Screen, g.Front = cam.WorldToScreen(pos.V)
	}
}
