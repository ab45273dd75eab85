package forcefield

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/components"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/interaction"
	"github.com/pthm-cable/jelly/particle"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func testCamera(cfg *config.Config) *camera.Camera {
	return camera.New(
		float32(cfg.Camera.Distance), float32(cfg.Camera.FOV),
		cfg.Derived.ScreenW32, cfg.Derived.ScreenH32,
		float32(cfg.Camera.Near), float32(cfg.Camera.Far),
	)
}

// spherePoints distributes n points over a sphere of the given radius.
func spherePoints(n int, radius float32) []mgl32.Vec3 {
	if n == 1 {
		return []mgl32.Vec3{{0, radius, 0}}
	}

	pts := make([]mgl32.Vec3, n)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := range pts {
		y := 1 - 2*float64(i)/float64(n-1)
		r := math.Sqrt(1 - y*y)
		a := golden * float64(i)
		pts[i] = mgl32.Vec3{
			float32(math.Cos(a)*r) * radius,
			float32(y) * radius,
			float32(math.Sin(a)*r) * radius,
		}
	}
	return pts
}

func sphereStore(n int, radius float32) *particle.Store {
	return particle.New(spherePoints(n, radius), make([]components.Grain, n))
}

func TestNewSelectsPolicyByName(t *testing.T) {
	cfg := testConfig(t)
	rng := rand.New(rand.NewSource(1))

	for _, name := range []string{"repulse", "impulse", "wave", "depth_kick"} {
		cfg.Interaction.Policy = name
		p, err := New(cfg, rng)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, p.Name())
		}
	}

	cfg.Interaction.Policy = "vortex"
	if _, err := New(cfg, rng); err == nil {
		t.Error("New with unknown policy name: expected error")
	}
}

func TestRestInvarianceWithoutInteraction(t *testing.T) {
	// No pointer, no motion: every policy must leave an at-rest cloud
	// exactly at rest through repeated frames.
	cfg := testConfig(t)
	cam := testCamera(cfg)

	for _, name := range []string{"repulse", "impulse", "wave", "depth_kick"} {
		t.Run(name, func(t *testing.T) {
			cfg.Interaction.Policy = name
			p, err := New(cfg, rand.New(rand.NewSource(7)))
			if err != nil {
				t.Fatal(err)
			}
			integ, err := NewIntegrator(cfg.Derived.Damping32)
			if err != nil {
				t.Fatal(err)
			}

			s := sphereStore(32, 1)
			st := &interaction.State{HitIndex: -1}

			for frame := 0; frame < 60; frame++ {
				p.Accumulate(s, st, cam, cfg.Derived.DT32)
				integ.Step(s, p.SpringK())
				p.Settle(s, st, float32(frame)*cfg.Derived.DT32)
			}

			for i := 0; i < s.Size(); i++ {
				if got, want := s.Pos(i).V, s.Rest(i).V; got != want {
					t.Fatalf("particle %d drifted: pos %v, rest %v", i, got, want)
				}
				if v := s.Vel(i).V; v != (mgl32.Vec3{}) {
					t.Fatalf("particle %d gained velocity %v without interaction", i, v)
				}
			}
		})
	}
}

func TestRepulsePushesAwayFromPointer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Repulse.Drag = 0
	cfg.Repulse.Jitter = 0
	p := NewRepulse(cfg, rand.New(rand.NewSource(3)))

	s := sphereStore(1, 1)
	g := s.Grain(0)
	g.Front = true
	g.Screen = mgl32.Vec2{700, 360} // pointer will sit to the left

	st := &interaction.State{
		Active:  true,
		Pressed: true,
		Screen:  mgl32.Vec2{640, 360},
	}
	p.apply(s, st)

	f := s.Force(0).V
	if f.X() <= 0 {
		t.Errorf("particle right of pointer, force x = %v, want positive", f.X())
	}
	if f.Y() != 0 || f.Z() != 0 {
		t.Errorf("pure horizontal push gained other components: %v", f)
	}
}

func TestRepulseScreenYFlip(t *testing.T) {
	// A particle below the pointer on screen (larger y) is pushed down in
	// world space (negative y).
	cfg := testConfig(t)
	cfg.Repulse.Drag = 0
	cfg.Repulse.Jitter = 0
	p := NewRepulse(cfg, rand.New(rand.NewSource(3)))

	s := sphereStore(1, 1)
	g := s.Grain(0)
	g.Front = true
	g.Screen = mgl32.Vec2{640, 420}

	st := &interaction.State{
		Active:  true,
		Pressed: true,
		Screen:  mgl32.Vec2{640, 360},
	}
	p.apply(s, st)

	if f := s.Force(0).V; f.Y() >= 0 {
		t.Errorf("screen-down displacement produced world force y = %v, want negative", f.Y())
	}
}

func TestRepulseIgnoresBackFacingAndFarParticles(t *testing.T) {
	cfg := testConfig(t)
	p := NewRepulse(cfg, rand.New(rand.NewSource(3)))

	s := sphereStore(2, 1)
	back := s.Grain(0)
	back.Front = false
	back.Screen = mgl32.Vec2{640, 360}
	far := s.Grain(1)
	far.Front = true
	far.Screen = mgl32.Vec2{640 + float32(cfg.Repulse.Radius) + 1, 360}

	st := &interaction.State{
		Active:  true,
		Pressed: true,
		Screen:  mgl32.Vec2{640, 360},
	}
	p.apply(s, st)

	for i := 0; i < 2; i++ {
		if f := s.Force(i).V; f != (mgl32.Vec3{}) {
			t.Errorf("particle %d received force %v", i, f)
		}
	}
}

func TestRepulsePressedForceMagnitude(t *testing.T) {
	// At half the influence radius the pressed push magnitude is
	// infl^2 * strength * push_multiplier with infl = 0.5, and one
	// integrator step turns it into velocity damping * magnitude.
	cfg := testConfig(t)
	cfg.Repulse.Radius = 0.5
	cfg.Repulse.Strength = 1.0
	cfg.Repulse.PushMultiplier = 1.0
	cfg.Repulse.Drag = 0
	cfg.Repulse.Jitter = 0
	cfg.Physics.Spring = 0
	cfg.Derived.Spring32 = 0

	p := NewRepulse(cfg, rand.New(rand.NewSource(3)))
	s := sphereStore(1, 1)
	g := s.Grain(0)
	g.Front = true
	g.Screen = mgl32.Vec2{0.25, 0}

	st := &interaction.State{Active: true, Pressed: true}
	p.apply(s, st)

	const damping = float32(0.9)
	integ, err := NewIntegrator(damping)
	if err != nil {
		t.Fatal(err)
	}
	integ.Step(s, p.SpringK())

	want := damping * 0.5 * 0.5 // d * infl^2 * K * mult
	if got := s.Vel(0).V.X(); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("velocity after one step = %v, want %v", got, want)
	}
}

func TestImpulseOffsetDecayLaw(t *testing.T) {
	// |offset_n| = |offset_0| * decay^n until the squared magnitude drops
	// below epsilon, at which point the offset is removed.
	cfg := testConfig(t)
	cfg.Impulse.Radius = 1
	cfg.Impulse.Strength = 0.5
	cfg.Impulse.Decay = 0.9
	cfg.Impulse.Jitter = 0
	cfg.Impulse.Epsilon = 1e-4
	p := NewImpulse(cfg, rand.New(rand.NewSource(5)))

	s := particle.New([]mgl32.Vec3{{0.5, 0, 0}}, make([]components.Grain, 1))
	st := &interaction.State{
		Active:      true,
		Pressed:     true,
		JustPressed: true,
		HitValid:    true,
		Hit:         mgl32.Vec3{0, 0, 0},
		HitIndex:    -1,
	}
	p.Accumulate(s, st, nil, config.DT)

	off := s.Offset(0)
	if off == nil {
		t.Fatal("press inside radius deposited no offset")
	}
	m0 := float64(off.V.Len())
	if math.Abs(m0-0.25) > 1e-6 { // strength * (1 - d/radius)
		t.Fatalf("initial offset magnitude = %v, want 0.25", m0)
	}

	st.JustPressed = false
	decay, eps := 0.9, 1e-4
	for n := 1; n <= 60; n++ {
		p.Settle(s, st, 0)

		want := m0 * math.Pow(decay, float64(n))
		if want*want < eps {
			if s.HasOffset(0) {
				t.Fatalf("frame %d: offset %v below epsilon but still present", n, want)
			}
			return
		}
		got := float64(s.Offset(0).V.Len())
		if math.Abs(got-want) > 1e-5 {
			t.Fatalf("frame %d: |offset| = %v, want %v", n, got, want)
		}
	}
	t.Fatal("offset never dropped below epsilon")
}

func TestImpulseDegenerateDirectionFallback(t *testing.T) {
	// A particle exactly at the hit point has no push direction; the
	// policy must substitute a random unit vector, never a NaN.
	cfg := testConfig(t)
	cfg.Impulse.Jitter = 0
	p := NewImpulse(cfg, rand.New(rand.NewSource(11)))

	s := particle.New([]mgl32.Vec3{{0, 0, 0}}, make([]components.Grain, 1))
	st := &interaction.State{
		Active:      true,
		Pressed:     true,
		JustPressed: true,
		HitValid:    true,
		Hit:         mgl32.Vec3{0, 0, 0},
		HitIndex:    0,
	}
	p.Accumulate(s, st, nil, config.DT)

	off := s.Offset(0)
	if off == nil {
		t.Fatal("no offset deposited at zero distance")
	}
	m := off.V.Len()
	if math.IsNaN(float64(m)) {
		t.Fatal("degenerate direction produced NaN")
	}
	want := float32(cfg.Impulse.Strength) // infl = 1 at the hit point
	if math.Abs(float64(m-want)) > 1e-5 {
		t.Errorf("offset magnitude = %v, want %v", m, want)
	}
}

func TestImpulsesCompound(t *testing.T) {
	cfg := testConfig(t)
	cfg.Impulse.Radius = 1
	cfg.Impulse.Strength = 0.5
	cfg.Impulse.Jitter = 0
	p := NewImpulse(cfg, rand.New(rand.NewSource(5)))

	s := particle.New([]mgl32.Vec3{{0.5, 0, 0}}, make([]components.Grain, 1))
	st := &interaction.State{
		JustPressed: true,
		HitValid:    true,
		HitIndex:    -1,
	}
	p.Accumulate(s, st, nil, config.DT)
	p.Accumulate(s, st, nil, config.DT)

	if got := s.Offset(0).V.Len(); math.Abs(float64(got)-0.5) > 1e-5 {
		t.Errorf("two overlapping presses: |offset| = %v, want 0.5", got)
	}
}

func TestWavePushesAwayFromHit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Wave.Swirl = 0
	cfg.Wave.Turbulence = 0
	p := NewWave(cfg, rand.New(rand.NewSource(9)))

	s := particle.New([]mgl32.Vec3{{0.3, 0, 0}}, make([]components.Grain, 1))
	st := &interaction.State{
		Active:    true,
		HitValid:  true,
		Hit:       mgl32.Vec3{0, 0, 0},
		HitIndex:  -1,
		WaveClock: float32(math.Pi / 2), // wave term at its crest
	}
	p.Accumulate(s, st, nil, config.DT)

	f := s.Force(0).V
	away := s.Rest(0).V.Sub(st.Hit)
	if f.Dot(away) <= 0 {
		t.Errorf("wave force %v does not point away from hit", f)
	}
}

func TestWaveOverlay(t *testing.T) {
	cfg := testConfig(t)
	p := NewWave(cfg, rand.New(rand.NewSource(9)))

	// Degenerate rest at the origin has no radial direction: zero overlay.
	if o := p.Overlay(mgl32.Vec3{}, &components.Grain{}, 1.5); o != (mgl32.Vec3{}) {
		t.Errorf("overlay at origin = %v, want zero", o)
	}

	// Elsewhere the overlay is radial and bounded by the amplitude.
	rest := mgl32.Vec3{0, 1, 0}
	o := p.Overlay(rest, &components.Grain{Phase: 0.4}, 1.5)
	if o.X() != 0 || o.Z() != 0 {
		t.Errorf("overlay %v not radial for rest %v", o, rest)
	}
	if amp := float64(o.Len()); amp > cfg.Wave.BreathAmp+1e-6 {
		t.Errorf("overlay magnitude %v exceeds amplitude %v", amp, cfg.Wave.BreathAmp)
	}
}

func TestDepthKickDepthFactor(t *testing.T) {
	cfg := testConfig(t)
	cfg.DepthKick.Radius = 1
	cfg.DepthKick.Strength = 1
	cam := testCamera(cfg)

	press := &interaction.State{
		Pressed:     true,
		JustPressed: true,
		HitValid:    true,
		Hit:         mgl32.Vec3{0, 0, 0},
		HitIndex:    -1,
	}

	t.Run("no depth falloff", func(t *testing.T) {
		cfg.DepthKick.DepthCoefficient = 0
		p := NewDepthKick(cfg, rand.New(rand.NewSource(13)))
		s := particle.New([]mgl32.Vec3{{0.5, 0, 0}}, make([]components.Grain, 1))

		p.Accumulate(s, press, cam, config.DT)
		if got := float64(s.Force(0).V.Len()); math.Abs(got-0.5) > 1e-5 {
			t.Errorf("|force| = %v, want 0.5", got)
		}
	})

	t.Run("factor clamps at 0.3", func(t *testing.T) {
		cfg.DepthKick.DepthCoefficient = 100
		p := NewDepthKick(cfg, rand.New(rand.NewSource(13)))
		s := particle.New([]mgl32.Vec3{{0.5, 0, 0}}, make([]components.Grain, 1))

		p.Accumulate(s, press, cam, config.DT)
		if got := float64(s.Force(0).V.Len()); math.Abs(got-0.5*0.3) > 1e-5 {
			t.Errorf("|force| = %v, want %v", got, 0.5*0.3)
		}
	})
}

func TestDepthKickSnapsToRest(t *testing.T) {
	cfg := testConfig(t)
	cfg.DepthKick.Radius = 2
	cam := testCamera(cfg)

	p := NewDepthKick(cfg, rand.New(rand.NewSource(13)))
	integ, err := NewIntegrator(cfg.Derived.Damping32)
	if err != nil {
		t.Fatal(err)
	}

	s := sphereStore(16, 0.5)
	st := &interaction.State{
		Pressed:     true,
		JustPressed: true,
		HitValid:    true,
		Hit:         mgl32.Vec3{0, 0, 0},
		HitIndex:    -1,
	}
	p.Accumulate(s, st, cam, config.DT)
	integ.Step(s, p.SpringK())
	p.Settle(s, st, 0)

	kicked := 0
	for i := 0; i < s.Size(); i++ {
		if s.Grain(i).Kicked {
			kicked++
		}
	}
	if kicked == 0 {
		t.Fatal("press kicked no particles")
	}

	// Release and let the pull-back spring run to convergence.
	*st = interaction.State{HitIndex: -1}
	for frame := 0; frame < 2000; frame++ {
		p.Accumulate(s, st, cam, config.DT)
		integ.Step(s, p.SpringK())
		p.Settle(s, st, 0)
	}

	for i := 0; i < s.Size(); i++ {
		if s.Grain(i).Kicked {
			t.Errorf("particle %d still marked kicked after settling", i)
		}
		if got, want := s.Pos(i).V, s.Rest(i).V; got != want {
			t.Errorf("particle %d did not snap exactly to rest: %v vs %v", i, got, want)
		}
	}
}

func TestRepulseEndToEndReturnsToRest(t *testing.T) {
	// One pressed frame at the screen center displaces the front of a
	// 100-particle sphere; with the spring and damping active the whole
	// cloud must converge back to rest.
	cfg := testConfig(t)
	cfg.Repulse.Strength = 1.0
	cam := testCamera(cfg)

	p := NewRepulse(cfg, rand.New(rand.NewSource(17)))
	integ, err := NewIntegrator(cfg.Derived.Damping32)
	if err != nil {
		t.Fatal(err)
	}

	s := sphereStore(100, 0.5)
	st := &interaction.State{
		Active:  true,
		Pressed: true,
		Screen:  mgl32.Vec2{cfg.Derived.ScreenW32 / 2, cfg.Derived.ScreenH32 / 2},
	}
	p.Accumulate(s, st, cam, config.DT)
	integ.Step(s, p.SpringK())

	displaced := 0
	for i := 0; i < s.Size(); i++ {
		if s.Pos(i).V.Sub(s.Rest(i).V).Len() > 0 {
			displaced++
		}
	}
	if displaced == 0 {
		t.Fatal("pressed frame displaced nothing")
	}

	*st = interaction.State{HitIndex: -1}
	for frame := 0; frame < 1200; frame++ {
		p.Accumulate(s, st, cam, config.DT)
		integ.Step(s, p.SpringK())
	}

	for i := 0; i < s.Size(); i++ {
		if d := s.Pos(i).V.Sub(s.Rest(i).V).Len(); d > 1e-3 {
			t.Errorf("particle %d still %v from rest after settling", i, d)
		}
	}
}
