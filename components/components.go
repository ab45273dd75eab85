// Package components defines the ECS components carried by every particle.
package components

import "github.com/go-gl/mathgl/mgl32"

// Rest is the immutable reference position a particle relaxes back to.
// Set once at load and never reassigned.
type Rest struct {
	V mgl32.Vec3
}

// Position is the live particle position, mutated every frame.
type Position struct {
	V mgl32.Vec3
}

// Velocity is the particle velocity, mutated every frame.
type Velocity struct {
	V mgl32.Vec3
}

// Force is the per-frame force accumulator. Cleared at the end of every
// integration pass.
type Force struct {
	V mgl32.Vec3
}

// Grain holds per-particle constants drawn once at initialization plus
// small per-frame caches that individual policies maintain.
type Grain struct {
	Phase float32    // wave phase offset for idle breathing
	Turb  mgl32.Vec3 // fixed turbulence direction

	Screen mgl32.Vec2 // cached projected screen position (screen-space policies)
	Front  bool       // screen position is in front of the camera

	Kicked bool // depth-kick displacement bookkeeping
}

// Offset is a persistent displacement with geometric decay. Only present on
// particles hit by an impulse; removed once the offset has decayed away.
type Offset struct {
	V mgl32.Vec3
}
