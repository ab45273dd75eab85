// Package sim owns the per-frame simulation loop: interaction sampling,
// force accumulation, integration, settling, and the render sync that
// exports positions exactly once per frame.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/components"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/forcefield"
	"github.com/pthm-cable/jelly/interaction"
	"github.com/pthm-cable/jelly/particle"
	"github.com/pthm-cable/jelly/telemetry"
)

// Engine holds the complete simulation state.
type Engine struct {
	cfg *config.Config
	rng *rand.Rand

	cam    *camera.Camera
	store  *particle.Store
	mapper *interaction.Mapper
	policy forcefield.Policy
	integ  *forcefield.Integrator

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector

	// Render sync buffer, flat x,y,z per particle in stable index order.
	buf   []float32
	dirty bool

	frame  int
	clock  float32
	paused bool

	// Scratch for window-end stats sampling
	disps  []float64
	speeds []float64
}

// New creates an engine for the configured policy. The cloud is loaded
// separately; an engine without a cloud steps as an inert no-op.
func New(cfg *config.Config, rng *rand.Rand) (*Engine, error) {
	policy, err := forcefield.New(cfg, rng)
	if err != nil {
		return nil, err
	}
	integ, err := forcefield.NewIntegrator(cfg.Derived.Damping32)
	if err != nil {
		return nil, err
	}

	cam := camera.New(
		float32(cfg.Camera.Distance), float32(cfg.Camera.FOV),
		cfg.Derived.ScreenW32, cfg.Derived.ScreenH32,
		float32(cfg.Camera.Near), float32(cfg.Camera.Far),
	)

	return &Engine{
		cfg:       cfg,
		rng:       rng,
		cam:       cam,
		mapper:    interaction.NewMapper(policy.Mode(), cam, float32(cfg.Interaction.PickRadius)),
		policy:    policy,
		integ:     integ,
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, config.DT),
		perf:      telemetry.NewPerfCollector(cfg.Screen.TargetFPS),
	}, nil
}

// Load replaces the particle cloud and restarts the simulation clock.
// An empty cloud is valid: the engine then steps as an inert no-op.
func (e *Engine) Load(points []mgl32.Vec3, grains []components.Grain) {
	if len(points) == 0 {
		e.store = nil
		e.buf = nil
	} else {
		e.store = particle.New(points, grains)
		e.buf = e.store.ExportPositions(e.buf[:0])
	}
	e.frame = 0
	e.clock = 0
	e.dirty = true
}

// SetPolicy switches the active force-field policy. The interaction state
// is reset since the new policy may need a different pointer mode.
func (e *Engine) SetPolicy(name string) error {
	prev := e.cfg.Interaction.Policy
	e.cfg.Interaction.Policy = name
	policy, err := forcefield.New(e.cfg, e.rng)
	if err != nil {
		e.cfg.Interaction.Policy = prev
		return fmt.Errorf("switching policy: %w", err)
	}
	e.policy = policy
	e.mapper = interaction.NewMapper(policy.Mode(), e.cam, float32(e.cfg.Interaction.PickRadius))
	return nil
}

// SetDamping replaces the integrator damping at runtime. The same (0,1)
// bound as config load applies.
func (e *Engine) SetDamping(damping float64) error {
	integ, err := forcefield.NewIntegrator(float32(damping))
	if err != nil {
		return err
	}
	e.integ = integ
	e.cfg.Physics.Damping = damping
	e.cfg.Derived.Damping32 = float32(damping)
	return nil
}

// Damping returns the current integrator damping.
func (e *Engine) Damping() float32 {
	return e.integ.Damping()
}

// Step advances the simulation one frame. Returns window stats when a
// telemetry window closed this frame, nil otherwise.
func (e *Engine) Step(dt float32) *telemetry.WindowStats {
	if e.paused {
		return nil
	}
	if e.store == nil || e.store.Size() == 0 {
		return nil
	}

	e.perf.StartStep()
	defer e.perf.EndStep()

	e.perf.StartPhase(telemetry.PhaseInteraction)
	st := e.mapper.State()
	e.mapper.BeginFrame(e.store, dt)
	if st.JustPressed {
		e.collector.RecordPress()
	}

	e.perf.StartPhase(telemetry.PhaseForces)
	e.policy.Accumulate(e.store, st, e.cam, dt)

	e.perf.StartPhase(telemetry.PhaseIntegrate)
	e.integ.Step(e.store, e.policy.SpringK())

	e.perf.StartPhase(telemetry.PhaseSettle)
	e.policy.Settle(e.store, st, e.clock)

	e.perf.StartPhase(telemetry.PhaseSync)
	e.sync()

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.frame++
	e.clock += dt

	maxDisp, maxSpeed := e.extremes()
	e.collector.ObserveFrame(maxDisp, maxSpeed)

	if !e.collector.ShouldFlush(e.frame) {
		return nil
	}
	e.sampleDistributions()
	stats := e.collector.Flush(e.frame, e.policy.Name(), e.disps, e.speeds)
	return &stats
}

// sync exports integrated positions into the render buffer and layers the
// policy's display overlay on top. This is the only place positions leave
// the store, once per frame.
func (e *Engine) sync() {
	e.buf = e.store.ExportPositions(e.buf[:0])

	ov, ok := e.policy.(forcefield.Overlayer)
	if !ok {
		e.dirty = true
		return
	}
	for i := 0; i < e.store.Size(); i++ {
		o := ov.Overlay(e.store.Rest(i).V, e.store.Grain(i), e.clock)
		e.buf[3*i] += o.X()
		e.buf[3*i+1] += o.Y()
		e.buf[3*i+2] += o.Z()
	}
	e.dirty = true
}

// Extremes returns the current maximum displacement and speed across the
// cloud, zero for an inert engine.
func (e *Engine) Extremes() (maxDisp, maxSpeed float64) {
	if e.store == nil {
		return 0, 0
	}
	return e.extremes()
}

// extremes returns this frame's maximum displacement and speed.
func (e *Engine) extremes() (maxDisp, maxSpeed float64) {
	for i := 0; i < e.store.Size(); i++ {
		d := float64(e.store.Pos(i).V.Sub(e.store.Rest(i).V).Len())
		if d > maxDisp {
			maxDisp = d
		}
		v := float64(e.store.Vel(i).V.Len())
		if v > maxSpeed {
			maxSpeed = v
		}
	}
	return maxDisp, maxSpeed
}

// sampleDistributions fills the scratch slices with per-particle
// displacement and speed magnitudes for the closing window.
func (e *Engine) sampleDistributions() {
	n := e.store.Size()
	e.disps = e.disps[:0]
	e.speeds = e.speeds[:0]
	for i := 0; i < n; i++ {
		e.disps = append(e.disps, float64(e.store.Pos(i).V.Sub(e.store.Rest(i).V).Len()))
		e.speeds = append(e.speeds, float64(e.store.Vel(i).V.Len()))
	}
}

// Positions returns the render buffer from the last sync, flat x,y,z per
// particle. The slice is reused between frames; do not retain it.
func (e *Engine) Positions() []float32 {
	return e.buf
}

// Dirty reports whether the render buffer changed since ClearDirty.
func (e *Engine) Dirty() bool { return e.dirty }

// ClearDirty marks the render buffer as consumed.
func (e *Engine) ClearDirty() { e.dirty = false }

// TogglePause flips the paused state and returns the new value.
func (e *Engine) TogglePause() bool {
	e.paused = !e.paused
	return e.paused
}

// Paused reports whether stepping is suspended.
func (e *Engine) Paused() bool { return e.paused }

// Mapper returns the interaction mapper for pointer event delivery.
func (e *Engine) Mapper() *interaction.Mapper { return e.mapper }

// Camera returns the projection camera.
func (e *Engine) Camera() *camera.Camera { return e.cam }

// Policy returns the active force-field policy.
func (e *Engine) Policy() forcefield.Policy { return e.policy }

// Perf returns the step-timing collector.
func (e *Engine) Perf() *telemetry.PerfCollector { return e.perf }

// Frame returns the number of completed simulation frames.
func (e *Engine) Frame() int { return e.frame }

// Clock returns the simulation time in seconds.
func (e *Engine) Clock() float32 { return e.clock }

// Size returns the particle count, zero for an inert engine.
func (e *Engine) Size() int {
	if e.store == nil {
		return 0
	}
	return e.store.Size()
}

// Resize updates the projection for a new window size.
func (e *Engine) Resize(width, height float32) {
	e.cam.Resize(width, height)
}
