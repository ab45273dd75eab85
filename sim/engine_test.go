package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/model"
)

func newTestEngine(t *testing.T, mutate func(*config.Config)) (*Engine, *config.Config) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	e, err := New(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return e, cfg
}

func loadSphere(t *testing.T, e *Engine, cfg *config.Config, n int) {
	t.Helper()
	cfg.Model.Count = n
	cfg.Model.NoiseAmp = 0
	points, grains, err := model.Build(cfg, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	e.Load(points, grains)
}

func TestEngineInertWithoutCloud(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	// No cloud loaded at all.
	if stats := e.Step(config.DT); stats != nil {
		t.Error("inert step produced stats")
	}
	if e.Frame() != 0 {
		t.Errorf("inert step advanced frame to %d", e.Frame())
	}

	// Explicitly empty cloud behaves the same.
	e.Load(nil, nil)
	if e.Size() != 0 {
		t.Fatalf("Size() = %d after empty load", e.Size())
	}
	for i := 0; i < 10; i++ {
		if stats := e.Step(config.DT); stats != nil {
			t.Fatal("empty-cloud step produced stats")
		}
	}
	if e.Frame() != 0 {
		t.Errorf("empty-cloud steps advanced frame to %d", e.Frame())
	}
}

func TestEngineStepExportsOncePerFrame(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	loadSphere(t, e, cfg, 50)

	if !e.Dirty() {
		t.Fatal("load did not mark the render buffer dirty")
	}
	if got := len(e.Positions()); got != 150 {
		t.Fatalf("buffer length = %d, want 150", got)
	}

	e.ClearDirty()
	e.Step(config.DT)
	if !e.Dirty() {
		t.Error("step did not mark the render buffer dirty")
	}
	if e.Frame() != 1 {
		t.Errorf("frame = %d after one step", e.Frame())
	}
}

func TestEngineRestWithoutPointer(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	loadSphere(t, e, cfg, 50)

	rest := make([]float32, len(e.Positions()))
	copy(rest, e.Positions())

	for i := 0; i < 30; i++ {
		e.Step(config.DT)
	}
	for i, v := range e.Positions() {
		if v != rest[i] {
			t.Fatalf("buffer[%d] drifted from %v to %v without interaction", i, rest[i], v)
		}
	}
}

func TestEnginePressDisplacesCloud(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	loadSphere(t, e, cfg, 100)

	cx, cy := cfg.Derived.ScreenW32/2, cfg.Derived.ScreenH32/2
	e.Mapper().PointerMove(cx, cy)
	e.Mapper().PointerDown(cx, cy)
	e.Step(config.DT)
	e.Mapper().PointerUp()

	var maxDisp float64
	rest := model.Sphere(100, float32(cfg.Model.Radius))
	buf := e.Positions()
	for i := range rest {
		dx := float64(buf[3*i] - rest[i].X())
		dy := float64(buf[3*i+1] - rest[i].Y())
		dz := float64(buf[3*i+2] - rest[i].Z())
		if d := math.Sqrt(dx*dx + dy*dy + dz*dz); d > maxDisp {
			maxDisp = d
		}
	}
	if maxDisp == 0 {
		t.Fatal("press at screen center displaced nothing")
	}
}

func TestEngineStatsWindow(t *testing.T) {
	e, cfg := newTestEngine(t, func(c *config.Config) {
		c.Telemetry.StatsWindow = 0.05 // 3 frames at 60 fps
	})
	loadSphere(t, e, cfg, 20)

	cx, cy := cfg.Derived.ScreenW32/2, cfg.Derived.ScreenH32/2
	e.Mapper().PointerMove(cx, cy)
	e.Mapper().PointerDown(cx, cy)

	if stats := e.Step(config.DT); stats != nil {
		t.Fatal("stats flushed after one frame")
	}
	if stats := e.Step(config.DT); stats != nil {
		t.Fatal("stats flushed after two frames")
	}

	stats := e.Step(config.DT)
	if stats == nil {
		t.Fatal("no stats at window end")
	}
	if stats.Presses != 1 {
		t.Errorf("presses = %d, want 1", stats.Presses)
	}
	if stats.Policy != "repulse" {
		t.Errorf("policy = %q", stats.Policy)
	}
	if stats.Particles != 20 {
		t.Errorf("particles = %d, want 20", stats.Particles)
	}
	if stats.PeakDisp == 0 {
		t.Error("peak displacement zero after a press")
	}
}

func TestEngineReloadRestarts(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	loadSphere(t, e, cfg, 50)

	cx, cy := cfg.Derived.ScreenW32/2, cfg.Derived.ScreenH32/2
	e.Mapper().PointerMove(cx, cy)
	e.Mapper().PointerDown(cx, cy)
	for i := 0; i < 10; i++ {
		e.Step(config.DT)
	}
	e.Mapper().PointerUp()

	loadSphere(t, e, cfg, 50)
	if e.Frame() != 0 || e.Clock() != 0 {
		t.Errorf("reload kept frame %d clock %v", e.Frame(), e.Clock())
	}

	rest := model.Sphere(50, float32(cfg.Model.Radius))
	buf := e.Positions()
	for i := range rest {
		if buf[3*i] != rest[i].X() || buf[3*i+1] != rest[i].Y() || buf[3*i+2] != rest[i].Z() {
			t.Fatalf("particle %d not at rest after reload", i)
		}
	}
}

func TestEnginePause(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	loadSphere(t, e, cfg, 10)

	if !e.TogglePause() {
		t.Fatal("TogglePause() = false, want true")
	}
	e.Step(config.DT)
	if e.Frame() != 0 {
		t.Errorf("paused step advanced frame to %d", e.Frame())
	}

	if e.TogglePause() {
		t.Fatal("second TogglePause() = true, want false")
	}
	e.Step(config.DT)
	if e.Frame() != 1 {
		t.Errorf("resumed step did not advance, frame = %d", e.Frame())
	}
}

func TestEngineSetPolicy(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	loadSphere(t, e, cfg, 10)

	if err := e.SetPolicy("wave"); err != nil {
		t.Fatal(err)
	}
	if got := e.Policy().Name(); got != "wave" {
		t.Errorf("policy = %q after switch", got)
	}
	if got := e.Mapper().Mode(); got != e.Policy().Mode() {
		t.Error("mapper mode does not match new policy")
	}

	if err := e.SetPolicy("vortex"); err == nil {
		t.Fatal("unknown policy accepted")
	}
	if got := e.Policy().Name(); got != "wave" {
		t.Errorf("failed switch changed policy to %q", got)
	}
}
