// Package ui draws the tuning panel and HUD on top of the 3D view.
package ui

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/sim"
)

var policyNames = []string{"repulse", "impulse", "wave", "depth_kick"}

// Panel is the interactive tuning panel: policy selection plus sliders for
// the integrator and the active policy's main parameters.
type Panel struct {
	x, y    float32
	width   float32
	visible bool
}

// NewPanel creates the panel at the given screen position.
func NewPanel(x, y, width float32) *Panel {
	return &Panel{x: x, y: y, width: width}
}

// Toggle switches panel visibility and returns the new state.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	return p.visible
}

// Draw renders the panel and applies any edits to the engine. Slider edits
// rewrite the config and rebuild the affected simulation parts, so the next
// frame already runs with the new values.
func (p *Panel) Draw(cfg *config.Config, e *sim.Engine) {
	if !p.visible {
		return
	}

	x, y := p.x, p.y
	w := p.width

	rl.DrawRectangle(int32(x)-10, int32(y)-10, int32(w)+20, 330, rl.NewColor(0, 0, 0, 180))
	rl.DrawText("Force Field", int32(x), int32(y), 20, rl.RayWhite)
	y += 30

	// Policy buttons
	bw := (w - float32(len(policyNames)-1)*6) / float32(len(policyNames))
	for i, name := range policyNames {
		bx := x + float32(i)*(bw+6)
		if gui.Button(rl.Rectangle{X: bx, Y: y, Width: bw, Height: 26}, name) && name != e.Policy().Name() {
			if err := e.SetPolicy(name); err != nil {
				slog.Warn("policy switch failed", "policy", name, "error", err)
			}
		}
	}
	y += 40

	// Damping is the one slider that can destabilize the integrator, so the
	// range stays strictly below 1.
	damping := p.slider(x, &y, w, "damping", float32(cfg.Physics.Damping), 0.50, 0.99)
	if damping != float32(cfg.Physics.Damping) {
		e.SetDamping(float64(damping))
	}

	spring := p.slider(x, &y, w, "spring", cfg.Derived.Spring32, 0, 0.1)
	if spring != cfg.Derived.Spring32 {
		cfg.Physics.Spring = float64(spring)
		cfg.Derived.Spring32 = spring
		p.reapply(e)
	}

	p.drawPolicySliders(cfg, e, x, &y, w)
}

// drawPolicySliders shows the radius and strength of the active policy.
func (p *Panel) drawPolicySliders(cfg *config.Config, e *sim.Engine, x float32, y *float32, w float32) {
	var radius, strength *float64
	var radiusMax, strengthMax float32

	switch e.Policy().Name() {
	case "repulse":
		radius, strength = &cfg.Repulse.Radius, &cfg.Repulse.Strength
		radiusMax, strengthMax = 400, 0.5
	case "impulse":
		radius, strength = &cfg.Impulse.Radius, &cfg.Impulse.Strength
		radiusMax, strengthMax = 3, 1.5
	case "wave":
		radius, strength = &cfg.Wave.Radius, &cfg.Wave.Strength
		radiusMax, strengthMax = 3, 0.2
	case "depth_kick":
		radius, strength = &cfg.DepthKick.Radius, &cfg.DepthKick.Strength
		radiusMax, strengthMax = 3, 1.5
	default:
		return
	}

	r := p.slider(x, y, w, "radius", float32(*radius), 0.01, radiusMax)
	s := p.slider(x, y, w, "strength", float32(*strength), 0, strengthMax)
	if r != float32(*radius) || s != float32(*strength) {
		*radius = float64(r)
		*strength = float64(s)
		p.reapply(e)
	}
}

// reapply rebuilds the active policy so edited config values take effect.
func (p *Panel) reapply(e *sim.Engine) {
	name := e.Policy().Name()
	if err := e.SetPolicy(name); err != nil {
		slog.Warn("policy rebuild failed", "policy", name, "error", err)
	}
}

// slider draws one labeled slider row and advances the layout cursor.
func (p *Panel) slider(x float32, y *float32, w float32, label string, value, min, max float32) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: w - 60, Height: 18},
		"", "",
		value, min, max,
	)
	rl.DrawText(fmt.Sprintf("%.3f", v), int32(x+w-54), int32(*y+2), 14, rl.RayWhite)
	*y += 30
	return v
}
