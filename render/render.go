// Package render draws the particle cloud with raylib and feeds pointer
// events into the interaction mapper.
package render

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/jelly/camera"
	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/interaction"
)

// Renderer draws the exported position buffer as a 3D point cloud.
type Renderer struct {
	background rl.Color
	point      rl.Color
	width      float32
	height     float32
}

// New creates a renderer and opens the window.
func New(cfg *config.Config, title string) *Renderer {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), title)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	return &Renderer{
		background: rl.NewColor(12, 14, 24, 255),
		point:      rl.NewColor(170, 220, 255, 255),
		width:      cfg.Derived.ScreenW32,
		height:     cfg.Derived.ScreenH32,
	}
}

// Close shuts the window down.
func (r *Renderer) Close() {
	rl.CloseWindow()
}

// ShouldClose reports whether the user asked to quit.
func (r *Renderer) ShouldClose() bool {
	return rl.WindowShouldClose()
}

// Size returns the current window dimensions.
func (r *Renderer) Size() (float32, float32) {
	return r.width, r.height
}

// HandleResize picks up a window resize and returns the new dimensions with
// true, or false when nothing changed.
func (r *Renderer) HandleResize() (float32, float32, bool) {
	if !rl.IsWindowResized() {
		return r.width, r.height, false
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == r.width && h == r.height {
		return r.width, r.height, false
	}
	r.width = w
	r.height = h
	return w, h, true
}

// PollPointer forwards this frame's mouse state to the mapper.
func PollPointer(m *interaction.Mapper) {
	if !rl.IsCursorOnScreen() {
		m.PointerLeave()
		return
	}

	pos := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		m.PointerDown(pos.X, pos.Y)
	} else {
		m.PointerMove(pos.X, pos.Y)
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		m.PointerUp()
	}
}

// Frame draws one frame: the cloud in 3D, then the overlay callback for HUD
// and panels. buf is the flat x,y,z position layout from the render sync.
func (r *Renderer) Frame(cam *camera.Camera, buf []float32, overlay func()) {
	rl.BeginDrawing()
	rl.ClearBackground(r.background)

	rl.BeginMode3D(rlCamera(cam))
	for i := 0; i+2 < len(buf); i += 3 {
		rl.DrawPoint3D(rl.Vector3{X: buf[i], Y: buf[i+1], Z: buf[i+2]}, r.point)
	}
	rl.EndMode3D()

	if overlay != nil {
		overlay()
	}

	rl.EndDrawing()
}

// rlCamera bridges the projection camera into raylib's camera struct.
func rlCamera(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   rl.Vector3{X: c.Eye.X(), Y: c.Eye.Y(), Z: c.Eye.Z()},
		Target:     rl.Vector3{X: c.Target.X(), Y: c.Target.Y(), Z: c.Target.Z()},
		Up:         rl.Vector3{X: c.Up.X(), Y: c.Up.Y(), Z: c.Up.Z()},
		Fovy:       c.FOV,
		Projection: rl.CameraPerspective,
	}
}
