// Package interaction translates pointer events into the single interaction
// point the force-field policies read each frame.
//
// Event entry points mutate only the State struct; they never touch particle
// data. The frame pipeline consumes the state through BeginFrame, which makes
// the per-frame update a pure function of (store, state, dt).
package interaction

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/particle"
)

// Mode selects how pointer coordinates become an interaction point.
type Mode uint8

const (
	// ModeScreen uses pointer coordinates directly in viewport pixel space.
	ModeScreen Mode = iota
	// ModeRay casts a ray from the camera against the particle cloud, with a
	// reference plane through the origin as fallback.
	ModeRay
)

// waveClockRate is how fast the wave clock advances while the pointer is
// active, in radians per second of wall time.
const waveClockRate = 8.0

// State is the single global interaction point. One per engine, never one
// per particle.
type State struct {
	Active  bool // pointer inside the viewport
	Pressed bool // primary button held

	// JustPressed is true for exactly one frame after a press. Set by
	// BeginFrame, consumed by single-shot policies.
	JustPressed bool

	Screen      mgl32.Vec2 // pointer position in viewport pixels
	PrevScreen  mgl32.Vec2 // previous frame's pointer position
	VelEstimate mgl32.Vec2 // finite difference between consecutive frames

	HitValid bool       // a ray-cast interaction point exists
	Hit      mgl32.Vec3 // world-space interaction point (ray mode)
	HitIndex int        // particle anchoring the hit, -1 for the fallback plane

	// WaveClock advances only while the pointer is active and resets on
	// every press.
	WaveClock float32
}

// Mapper owns the interaction state and the pointer event entry points.
type Mapper struct {
	state State

	mode       Mode
	cam        *camera.Camera
	pickRadius float32

	pendingPress bool
}

// NewMapper creates a mapper for the given mode. pickRadius is the
// ray-to-particle hit distance in world units and only matters in ray mode.
func NewMapper(mode Mode, cam *camera.Camera, pickRadius float32) *Mapper {
	return &Mapper{
		mode:       mode,
		cam:        cam,
		pickRadius: pickRadius,
		state:      State{HitIndex: -1},
	}
}

// State returns the live interaction state.
func (m *Mapper) State() *State {
	return &m.state
}

// Mode returns the mapper's interaction mode.
func (m *Mapper) Mode() Mode {
	return m.mode
}

// PointerMove records a new pointer position.
func (m *Mapper) PointerMove(x, y float32) {
	st := &m.state
	if !st.Active {
		// Entering the viewport must not register as a huge pointer velocity.
		st.PrevScreen = mgl32.Vec2{x, y}
	}
	st.Active = true
	st.Screen = mgl32.Vec2{x, y}
}

// PointerDown records a press. The wave clock restarts on every press.
func (m *Mapper) PointerDown(x, y float32) {
	m.PointerMove(x, y)
	st := &m.state
	st.Pressed = true
	st.WaveClock = 0
	m.pendingPress = true
}

// PointerUp records a release. The velocity estimate and any held
// interaction point are cleared.
func (m *Mapper) PointerUp() {
	st := &m.state
	st.Pressed = false
	st.VelEstimate = mgl32.Vec2{}
	st.HitValid = false
	st.HitIndex = -1
}

// PointerLeave records the pointer exiting the viewport.
func (m *Mapper) PointerLeave() {
	st := &m.state
	st.Active = false
	st.Pressed = false
	st.VelEstimate = mgl32.Vec2{}
	st.HitValid = false
	st.HitIndex = -1
}

// BeginFrame advances the per-frame interaction state: press edge, pointer
// velocity estimate, wave clock, and (in ray mode) the current world-space
// interaction point. Call exactly once per frame, before the policy runs.
func (m *Mapper) BeginFrame(s *particle.Store, dt float32) {
	st := &m.state

	st.JustPressed = m.pendingPress
	m.pendingPress = false

	if st.Active {
		st.VelEstimate = st.Screen.Sub(st.PrevScreen)
		st.PrevScreen = st.Screen
		st.WaveClock += dt * waveClockRate
	} else {
		st.VelEstimate = mgl32.Vec2{}
	}

	if m.mode == ModeRay {
		if st.Active {
			m.castRay(s)
		} else {
			st.HitValid = false
			st.HitIndex = -1
		}
	}
}

// castRay updates the interaction point from the current pointer position.
// The particle cloud is tested first; only when no particle lies within
// pickRadius of the ray does the reference plane through the origin apply.
func (m *Mapper) castRay(s *particle.Store) {
	st := &m.state
	st.HitValid = false
	st.HitIndex = -1

	origin, dir, ok := m.cam.ScreenRay(st.Screen.X(), st.Screen.Y())
	if !ok {
		return
	}

	if s != nil {
		rr := m.pickRadius * m.pickRadius
		best := float32(math.MaxFloat32)
		bestIdx := -1
		for i := 0; i < s.Size(); i++ {
			to := s.Pos(i).V.Sub(origin)
			t := to.Dot(dir)
			if t <= 0 {
				continue
			}
			perp := to.Sub(dir.Mul(t))
			if perp.Dot(perp) <= rr && t < best {
				best = t
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			st.HitValid = true
			st.Hit = s.Pos(bestIdx).V
			st.HitIndex = bestIdx
			return
		}
	}

	n := m.cam.FacingPlaneNormal()
	denom := dir.Dot(n)
	if denom == 0 {
		return
	}
	t := -origin.Dot(n) / denom
	if t <= 0 {
		return
	}
	st.HitValid = true
	st.Hit = origin.Add(dir.Mul(t))
}
