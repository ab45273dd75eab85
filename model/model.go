// Package model builds the particle cloud the simulation deforms: generated
// sphere and grid shapes, CSV vertex files, optional noise displacement, and
// the per-particle grain data the force policies consume.
package model

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gocarina/gocsv"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/jelly/components"
	"github.com/pthm-cable/jelly/config"
)

// vertexRecord is one row of a vertex CSV file.
type vertexRecord struct {
	X float64 `csv:"x"`
	Y float64 `csv:"y"`
	Z float64 `csv:"z"`
}

// Build constructs the particle rest positions and grains for the configured
// source. A missing or unreadable CSV asset is an error; the caller decides
// whether to run without a cloud.
func Build(cfg *config.Config, rng *rand.Rand) ([]mgl32.Vec3, []components.Grain, error) {
	var points []mgl32.Vec3
	switch cfg.Model.Source {
	case "sphere":
		points = Sphere(cfg.Model.Count, float32(cfg.Model.Radius))
	case "grid":
		points = Grid(cfg.Model.Count, float32(cfg.Model.Radius))
	case "csv":
		var err error
		points, err = LoadCSV(cfg.Model.Path)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unknown model source %q", cfg.Model.Source)
	}

	if cfg.Model.NoiseAmp > 0 {
		Roughen(points, rng.Int63(), float32(cfg.Model.NoiseAmp), float32(cfg.Model.NoiseFreq))
	}

	return points, Grains(points, rng), nil
}

// Sphere distributes n points over a sphere surface of the given radius
// using the golden-spiral lattice.
func Sphere(n int, radius float32) []mgl32.Vec3 {
	if n < 1 {
		return nil
	}
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

// Grid fills a centered cube of the given half-extent with n points on a
// regular lattice.
func Grid(n int, extent float32) []mgl32.Vec3 {
	if n < 1 {
		return nil
	}

	side := int(math.Ceil(math.Cbrt(float64(n))))
	step := 2 * extent / float32(side)

	pts := make([]mgl32.Vec3, 0, n)
	for ix := 0; ix < side && len(pts) < n; ix++ {
		for iy := 0; iy < side && len(pts) < n; iy++ {
			for iz := 0; iz < side && len(pts) < n; iz++ {
				pts = append(pts, mgl32.Vec3{
					-extent + step*(float32(ix)+0.5),
					-extent + step*(float32(iy)+0.5),
					-extent + step*(float32(iz)+0.5),
				})
			}
		}
	}
	return pts
}

// LoadCSV reads vertex positions from a CSV file with x,y,z columns.
func LoadCSV(path string) ([]mgl32.Vec3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vertex file: %w", err)
	}
	defer f.Close()

	var records []*vertexRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing vertex file %s: %w", path, err)
	}

	pts := make([]mgl32.Vec3, len(records))
	for i, r := range records {
		pts[i] = mgl32.Vec3{float32(r.X), float32(r.Y), float32(r.Z)}
	}
	return pts, nil
}

// Roughen displaces each point along its own radial direction by smooth
// noise, breaking up the perfect generated shapes. Points at the origin have
// no radial direction and stay put.
func Roughen(pts []mgl32.Vec3, seed int64, amp, freq float32) {
	noise := opensimplex.New(seed)
	for i, p := range pts {
		d := p.Len()
		if d == 0 {
			continue
		}
		n := float32(noise.Eval3(
			float64(p.X()*freq),
			float64(p.Y()*freq),
			float64(p.Z()*freq),
		))
		pts[i] = p.Add(p.Mul(1 / d).Mul(n * amp))
	}
}

// Grains draws the per-particle random data: a breathing phase in [0,2pi)
// and a unit turbulence direction.
func Grains(pts []mgl32.Vec3, rng *rand.Rand) []components.Grain {
	grains := make([]components.Grain, len(pts))
	for i := range grains {
		grains[i] = components.Grain{
			Phase: rng.Float32() * 2 * math.Pi,
			Turb:  randUnit(rng),
		}
	}
	return grains
}

func randUnit(rng *rand.Rand) mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
		}
		d := v.Dot(v)
		if d > 1e-6 && d <= 1 {
			return v.Mul(1 / float32(math.Sqrt(float64(d))))
		}
	}
}
