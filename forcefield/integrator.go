package forcefield

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/particle"
)

// Integrator advances every particle once per frame in a fixed order:
// force-apply, restore-force, damp, integrate-position, clear-force.
type Integrator struct {
	damping float32
}

// NewIntegrator creates an integrator. Damping must be strictly inside
// (0,1); anything else breaks the convergence guarantee and is rejected.
func NewIntegrator(damping float32) (*Integrator, error) {
	if damping <= 0 || damping >= 1 {
		return nil, fmt.Errorf("damping must be in (0,1), got %v", damping)
	}
	return &Integrator{damping: damping}, nil
}

// Damping returns the per-frame velocity multiplier.
func (it *Integrator) Damping() float32 {
	return it.damping
}

// Step runs one integration pass over the whole store. springK is the
// restoring coefficient from the active policy; zero skips the spring term.
func (it *Integrator) Step(s *particle.Store, springK float32) {
	q := s.Query()
	for q.Next() {
		rest, pos, vel, force, _ := q.Get()

		vel.V = vel.V.Add(force.V)
		if springK > 0 {
			vel.V = vel.V.Add(rest.V.Sub(pos.V).Mul(springK))
		}
		vel.V = vel.V.Mul(it.damping)
		pos.V = pos.V.Add(vel.V)
		force.V = mgl32.Vec3{}
	}
}
