// Package camera provides a perspective camera for projecting particles to
// screen space and casting pointer rays back into the world.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds the view/projection state shared by the interaction mapper and
// the renderer. Screen coordinates use a top-left origin to match pointer
// events; the conversion from GL window coordinates happens here.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// FOV is the vertical field of view in degrees.
	FOV       float32
	Near, Far float32

	// Viewport dimensions (screen size)
	Width, Height float32

	view mgl32.Mat4
	proj mgl32.Mat4
}

// New creates a camera looking at the origin from the +Z axis.
func New(distance, fov, width, height, near, far float32) *Camera {
	c := &Camera{
		Eye:    mgl32.Vec3{0, 0, distance},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FOV:    fov,
		Near:   near,
		Far:    far,
		Width:  width,
		Height: height,
	}
	c.rebuild()
	return c
}

// rebuild recomputes the cached view and projection matrices.
func (c *Camera) rebuild() {
	c.view = mgl32.LookAtV(c.Eye, c.Target, c.Up)
	c.proj = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Width/c.Height, c.Near, c.Far)
}

// Resize updates the viewport dimensions. Physics state is untouched; only
// the projection changes.
func (c *Camera) Resize(width, height float32) {
	if width == c.Width && height == c.Height {
		return
	}
	c.Width = width
	c.Height = height
	c.rebuild()
}

// WorldToScreen projects a world-space point to screen pixels (top-left
// origin). The second return value is false when the point is behind the
// camera, in which case the coordinates are not meaningful.
func (c *Camera) WorldToScreen(p mgl32.Vec3) (mgl32.Vec2, bool) {
	viewPos := c.view.Mul4x1(p.Vec4(1))
	inFront := viewPos.Z() < 0 // OpenGL view space looks down -Z

	win := mgl32.Project(p, c.view, c.proj, 0, 0, int(c.Width), int(c.Height))
	return mgl32.Vec2{win.X(), c.Height - win.Y()}, inFront
}

// ScreenRay returns the world-space ray under the given screen pixel
// (top-left origin). The direction is unit length. ok is false when the
// projection cannot be inverted, which only happens with a degenerate
// viewport.
func (c *Camera) ScreenRay(x, y float32) (origin, dir mgl32.Vec3, ok bool) {
	winY := c.Height - y
	near, err := mgl32.UnProject(mgl32.Vec3{x, winY, 0}, c.view, c.proj, 0, 0, int(c.Width), int(c.Height))
	if err != nil {
		return mgl32.Vec3{}, mgl32.Vec3{}, false
	}
	far, err := mgl32.UnProject(mgl32.Vec3{x, winY, 1}, c.view, c.proj, 0, 0, int(c.Width), int(c.Height))
	if err != nil {
		return mgl32.Vec3{}, mgl32.Vec3{}, false
	}

	d := far.Sub(near)
	if d.Dot(d) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}, false
	}
	return near, d.Normalize(), true
}

// FacingPlaneNormal returns the unit normal of the reference plane through
// the origin that faces the camera. Used as the ray-cast fallback when the
// pointer misses the model.
func (c *Camera) FacingPlaneNormal() mgl32.Vec3 {
	n := c.Eye.Sub(c.Target)
	if n.Dot(n) == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return n.Normalize()
}
