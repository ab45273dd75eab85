package forcefield

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/interaction"
	"github.com/pthm-cable/jelly/particle"
)

// DepthKick is the depth-weighted single-shot policy: a press applies an
// instantaneous velocity kick scaled so particles nearer the camera fly
// harder. Kicked particles are tracked; while the pointer is idle they are
// spring-pulled home and snap exactly to rest once close and slow enough,
// leaving the per-frame loop with nothing to do for them.
type DepthKick struct {
	rng *rand.Rand

	radius    float32
	strength  float32
	depthCoef float32
	springK   float32
	restTol   float32
	speedTol  float32
}

// NewDepthKick builds the policy from config.
func NewDepthKick(cfg *config.Config, rng *rand.Rand) *DepthKick {
	return &DepthKick{
		rng:       rng,
		radius:    float32(cfg.DepthKick.Radius),
		strength:  float32(cfg.DepthKick.Strength),
		depthCoef: float32(cfg.DepthKick.DepthCoefficient),
		springK:   float32(cfg.DepthKick.Spring),
		restTol:   float32(cfg.DepthKick.RestTolerance),
		speedTol:  float32(cfg.DepthKick.SpeedTolerance),
	}
}

func (p *DepthKick) Name() string           { return "depth_kick" }
func (p *DepthKick) Mode() interaction.Mode { return interaction.ModeRay }

// SpringK is zero: the pull-back spring only runs for kicked particles,
// so the policy applies it itself in Accumulate.
func (p *DepthKick) SpringK() float32 { return 0 }

// Accumulate applies the press kick and, while not interacting, the
// pull-back spring for particles still displaced.
func (p *DepthKick) Accumulate(s *particle.Store, st *interaction.State, cam *camera.Camera, dt float32) {
	if !st.Pressed {
		q := s.Query()
		for q.Next() {
			rest, pos, _, force, g := q.Get()
			if !g.Kicked {
				continue
			}
			force.V = force.V.Add(rest.V.Sub(pos.V).Mul(p.springK))
		}
	}

	if !st.JustPressed || !st.HitValid {
		return
	}

	for i := 0; i < s.Size(); i++ {
		rest := s.Rest(i).V
		to := rest.Sub(st.Hit)
		d := to.Len()
		if d >= p.radius {
			continue
		}

		depth := s.Pos(i).V.Sub(cam.Eye).Len()
		depthFactor := 1 - depth*p.depthCoef/10
		if depthFactor < 0.3 {
			depthFactor = 0.3
		}

		mag := p.strength * (1 - d/p.radius) * depthFactor
		s.Force(i).V = s.Force(i).V.Add(safeDir(to, p.rng).Mul(mag))
		s.Grain(i).Kicked = true
	}
}

// Settle snaps kicked particles exactly to rest once both their
// displacement and speed fall under tolerance, and drops them from the
// active bookkeeping.
func (p *DepthKick) Settle(s *particle.Store, st *interaction.State, now float32) {
	for i := 0; i < s.Size(); i++ {
		g := s.Grain(i)
		if !g.Kicked {
			continue
		}

		pos := s.Pos(i)
		vel := s.Vel(i)
		disp := pos.V.Sub(s.Rest(i).V)
		if disp.Dot(disp) < p.restTol*p.restTol && vel.V.Dot(vel.V) < p.speedTol*p.speedTol {
			pos.V = s.Rest(i).V
			vel.V = mgl32.Vec3{}
			g.Kicked = false
		}
	}
}
