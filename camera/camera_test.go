package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(4, 55, 1280, 720, 0.1, 100)

	// The origin sits on the view axis, so it must project to screen center.
	s, ok := cam.WorldToScreen(mgl32.Vec3{0, 0, 0})
	if !ok {
		t.Fatal("origin reported behind camera")
	}
	if math.Abs(float64(s.X()-640)) > 0.5 || math.Abs(float64(s.Y()-360)) > 0.5 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", s.X(), s.Y())
	}
}

func TestWorldToScreenAxes(t *testing.T) {
	cam := New(4, 55, 1280, 720, 0.1, 100)

	// +Y in world space is up, which is a smaller screen Y (top-left origin).
	up, _ := cam.WorldToScreen(mgl32.Vec3{0, 1, 0})
	if up.Y() >= 360 {
		t.Errorf("expected +Y to project above center, got y=%f", up.Y())
	}

	// +X projects to the right half.
	right, _ := cam.WorldToScreen(mgl32.Vec3{1, 0, 0})
	if right.X() <= 640 {
		t.Errorf("expected +X to project right of center, got x=%f", right.X())
	}
}

func TestWorldToScreenBehindCamera(t *testing.T) {
	cam := New(4, 55, 1280, 720, 0.1, 100)

	_, ok := cam.WorldToScreen(mgl32.Vec3{0, 0, 10})
	if ok {
		t.Error("point behind the camera reported as visible")
	}
}

func TestScreenRayRoundtrip(t *testing.T) {
	cam := New(4, 55, 1280, 720, 0.1, 100)

	testCases := []mgl32.Vec3{
		{0, 0, 0},
		{0.5, 0.3, 0},
		{-0.7, -0.2, 0.4},
	}

	for _, p := range testCases {
		s, ok := cam.WorldToScreen(p)
		if !ok {
			t.Fatalf("point %v behind camera", p)
		}
		origin, dir, ok := cam.ScreenRay(s.X(), s.Y())
		if !ok {
			t.Fatalf("no ray for screen point %v", s)
		}

		// The ray must pass close to the original point.
		toP := p.Sub(origin)
		along := toP.Dot(dir)
		if along <= 0 {
			t.Fatalf("point %v behind ray origin", p)
		}
		closest := origin.Add(dir.Mul(along))
		miss := closest.Sub(p)
		if miss.Len() > 0.01 {
			t.Errorf("ray misses %v by %f", p, miss.Len())
		}
	}
}

func TestScreenRayDirectionNormalized(t *testing.T) {
	cam := New(4, 55, 1280, 720, 0.1, 100)

	_, dir, ok := cam.ScreenRay(100, 100)
	if !ok {
		t.Fatal("no ray")
	}
	if math.Abs(float64(dir.Len()-1)) > 1e-5 {
		t.Errorf("ray direction not unit length: %f", dir.Len())
	}
}

func TestResizeKeepsCenter(t *testing.T) {
	cam := New(4, 55, 1280, 720, 0.1, 100)
	cam.Resize(1920, 1080)

	s, ok := cam.WorldToScreen(mgl32.Vec3{0, 0, 0})
	if !ok {
		t.Fatal("origin reported behind camera after resize")
	}
	if math.Abs(float64(s.X()-960)) > 0.5 || math.Abs(float64(s.Y()-540)) > 0.5 {
		t.Errorf("expected new center (960, 540), got (%f, %f)", s.X(), s.Y())
	}
}

func TestFacingPlaneNormal(t *testing.T) {
	cam := New(4, 55, 1280, 720, 0.1, 100)

	n := cam.FacingPlaneNormal()
	if math.Abs(float64(n.Len()-1)) > 1e-6 {
		t.Errorf("plane normal not unit length: %f", n.Len())
	}
	// Camera on +Z looking at origin: the plane faces +Z.
	if n.Z() <= 0.99 {
		t.Errorf("expected normal along +Z, got %v", n)
	}
}
