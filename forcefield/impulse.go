package forcefield

import (
	"math/rand"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/interaction"
	"github.com/pthm-cable/jelly/particle"
)

// Impulse is the single-shot ray-cast policy: a press deposits a decaying
// offset on every particle near the hit point, and positions ease toward
// rest+offset every frame. Velocity and the force accumulator stay unused;
// the motion lives entirely in the offset.
type Impulse struct {
	rng *rand.Rand

	radius   float32
	strength float32
	ease     float32
	decay    float32
	jitter   float32
	eps      float32 // squared-magnitude cutoff
}

// NewImpulse builds the policy from config.
func NewImpulse(cfg *config.Config, rng *rand.Rand) *Impulse {
	return &Impulse{
		rng:      rng,
		radius:   float32(cfg.Impulse.Radius),
		strength: float32(cfg.Impulse.Strength),
		ease:     float32(cfg.Impulse.Ease),
		decay:    float32(cfg.Impulse.Decay),
		jitter:   float32(cfg.Impulse.Jitter),
		eps:      float32(cfg.Impulse.Epsilon),
	}
}

func (p *Impulse) Name() string           { return "impulse" }
func (p *Impulse) Mode() interaction.Mode { return interaction.ModeRay }
func (p *Impulse) SpringK() float32       { return 0 }

// Accumulate deposits offsets on press only, never while held or dragging.
// Overlapping impulses compound additively.
func (p *Impulse) Accumulate(s *particle.Store, st *interaction.State, cam *camera.Camera, dt float32) {
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

		dir := safeDir(to, p.rng)
		if p.jitter > 0 {
			dir = safeDir(dir.Add(randUnitVec(p.rng).Mul(p.jitter)), p.rng)
		}
		mag := p.strength * (1 - d/p.radius)
		s.AddOffset(i, dir.Mul(mag))
	}
}

// Settle eases every particle toward rest+offset and decays the offsets.
// An offset whose squared magnitude drops below epsilon leaves the active
// set; the particle then eases back to exactly its rest position.
func (p *Impulse) Settle(s *particle.Store, st *interaction.State, now float32) {
	for i := 0; i < s.Size(); i++ {
		rest := s.Rest(i).V
		pos := s.Pos(i)

		if off := s.Offset(i); off != nil {
			pos.V = lerp3(pos.V, rest.Add(off.V), p.ease)
			off.V = off.V.Mul(p.decay)
			if off.V.Dot(off.V) < p.eps {
				s.RemoveOffset(i)
			}
			continue
		}

		disp := pos.V.Sub(rest)
		if disp.Dot(disp) < p.eps {
			pos.V = rest
		} else {
			pos.V = lerp3(pos.V, rest, p.ease)
		}
	}
}
