package model

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/jelly/config"
)

func TestSphere(t *testing.T) {
	const n, radius = 200, 0.5
	pts := Sphere(n, radius)

	if len(pts) != n {
		t.Fatalf("got %d points, want %d", len(pts), n)
	}
	for i, p := range pts {
		if d := math.Abs(float64(p.Len() - radius)); d > 1e-4 {
			t.Fatalf("point %d at distance %v from center, want %v", i, p.Len(), radius)
		}
	}
}

func TestGrid(t *testing.T) {
	const n, extent = 100, 1.0
	pts := Grid(n, extent)

	if len(pts) != n {
		t.Fatalf("got %d points, want %d", len(pts), n)
	}
	for i, p := range pts {
		for axis := 0; axis < 3; axis++ {
			if p[axis] < -extent || p[axis] > extent {
				t.Fatalf("point %d outside extent: %v", i, p)
			}
		}
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verts.csv")
	data := "x,y,z\n1,2,3\n-0.5,0,0.5\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	pts, err := LoadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("got %d points, want 2", len(pts))
	}
	if pts[0].X() != 1 || pts[0].Y() != 2 || pts[0].Z() != 3 {
		t.Errorf("first point = %v", pts[0])
	}
	if pts[1].X() != -0.5 || pts[1].Z() != 0.5 {
		t.Errorf("second point = %v", pts[1])
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing vertex file")
	}
}

func TestRoughenStaysNearSurface(t *testing.T) {
	const radius, amp = 1.0, 0.15
	pts := Sphere(500, radius)
	Roughen(pts, 42, amp, 1.8)

	for i, p := range pts {
		d := float64(p.Len())
		if d < radius-amp-1e-4 || d > radius+amp+1e-4 {
			t.Fatalf("point %d displaced outside amplitude band: distance %v", i, d)
		}
	}
}

func TestRoughenDeterministicPerSeed(t *testing.T) {
	a := Sphere(50, 1)
	b := Sphere(50, 1)
	Roughen(a, 7, 0.2, 1.0)
	Roughen(b, 7, 0.2, 1.0)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at point %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGrains(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pts := Sphere(100, 1)
	grains := Grains(pts, rng)

	if len(grains) != len(pts) {
		t.Fatalf("got %d grains for %d points", len(grains), len(pts))
	}
	for i, g := range grains {
		if g.Phase < 0 || g.Phase >= 2*math.Pi {
			t.Errorf("grain %d phase %v outside [0,2pi)", i, g.Phase)
		}
		if d := math.Abs(float64(g.Turb.Len() - 1)); d > 1e-5 {
			t.Errorf("grain %d turbulence not unit length: %v", i, g.Turb)
		}
	}
}

func TestBuildSources(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Model.Count = 64
	cfg.Model.NoiseAmp = 0
	rng := rand.New(rand.NewSource(2))

	for _, source := range []string{"sphere", "grid"} {
		cfg.Model.Source = source
		pts, grains, err := Build(cfg, rng)
		if err != nil {
			t.Fatalf("Build(%s): %v", source, err)
		}
		if len(pts) != 64 || len(grains) != 64 {
			t.Errorf("Build(%s): %d points, %d grains", source, len(pts), len(grains))
		}
	}

	cfg.Model.Source = "csv"
	cfg.Model.Path = filepath.Join(t.TempDir(), "missing.csv")
	if _, _, err := Build(cfg, rng); err == nil {
		t.Error("Build(csv) with missing file: expected error")
	}

	cfg.Model.Source = "teapot"
	if _, _, err := Build(cfg, rng); err == nil {
		t.Error("Build with unknown source: expected error")
	}
}
