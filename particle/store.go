// Package particle owns the dense per-particle simulation state.
//
// The store is closed after construction: no particles are added or removed
// during a frame, and the entity table never reallocates. Impulse offsets are
// the only dynamic component; adding or removing them moves a particle
// between archetypes but never changes N or the index order.
package particle

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/jelly/components"
)

// Store holds the particle entities and their component mappers.
type Store struct {
	world *ecs.World

	// entities is the stable index -> entity table. Export order and the
	// render buffer layout both follow this slice.
	entities []ecs.Entity

	mapper *ecs.Map5[
		components.Rest,
		components.Position,
		components.Velocity,
		components.Force,
		components.Grain,
	]
	filter *ecs.Filter5[
		components.Rest,
		components.Position,
		components.Velocity,
		components.Force,
		components.Grain,
	]

	restMap  *ecs.Map1[components.Rest]
	posMap   *ecs.Map1[components.Position]
	velMap   *ecs.Map1[components.Velocity]
	forceMap *ecs.Map1[components.Force]
	grainMap *ecs.Map1[components.Grain]
	offMap   *ecs.Map1[components.Offset]
}

// New creates a store with one particle per input point. grains must be
// either nil or the same length as points; rest and current positions both
// start at the input point.
func New(points []mgl32.Vec3, grains []components.Grain) *Store {
	world := ecs.NewWorld()

	s := &Store{
		world: world,
		mapper: ecs.NewMap5[
			components.Rest,
			components.Position,
			components.Velocity,
			components.Force,
			components.Grain,
		](world),
		filter: ecs.NewFilter5[
			components.Rest,
			components.Position,
			components.Velocity,
			components.Force,
			components.Grain,
		](world),
		restMap:  ecs.NewMap1[components.Rest](world),
		posMap:   ecs.NewMap1[components.Position](world),
		velMap:   ecs.NewMap1[components.Velocity](world),
		forceMap: ecs.NewMap1[components.Force](world),
		grainMap: ecs.NewMap1[components.Grain](world),
		offMap:   ecs.NewMap1[components.Offset](world),
	}

	s.entities = make([]ecs.Entity, 0, len(points))
	for i, p := range points {
		rest := components.Rest{V: p}
		pos := components.Position{V: p}
		vel := components.Velocity{}
		force := components.Force{}
		var grain components.Grain
		if grains != nil {
			grain = grains[i]
		}
		e := s.mapper.NewEntity(&rest, &pos, &vel, &force, &grain)
		s.entities = append(s.entities, e)
	}

	return s
}

// Size returns the particle count N. Fixed after construction.
func (s *Store) Size() int {
	return len(s.entities)
}

// Entity returns the entity backing particle i.
func (s *Store) Entity(i int) ecs.Entity {
	return s.entities[i]
}

// Query returns a fresh query over all particles. Callers must consume the
// query fully and must not add or remove components while it is open.
func (s *Store) Query() *ecs.Query5[
	components.Rest,
	components.Position,
	components.Velocity,
	components.Force,
	components.Grain,
] {
	q := s.filter.Query()
	return &q
}

// Per-index component access. Used by tests and by code that needs a stable
// particle identity (hit anchors, export); the per-frame loops go through
// Query instead.

func (s *Store) Rest(i int) *components.Rest    { return s.restMap.Get(s.entities[i]) }
func (s *Store) Pos(i int) *components.Position { return s.posMap.Get(s.entities[i]) }
func (s *Store) Vel(i int) *components.Velocity { return s.velMap.Get(s.entities[i]) }
func (s *Store) Force(i int) *components.Force  { return s.forceMap.Get(s.entities[i]) }
func (s *Store) Grain(i int) *components.Grain  { return s.grainMap.Get(s.entities[i]) }

// Offset returns the impulse offset of particle i, or nil when the particle
// carries none.
func (s *Store) Offset(i int) *components.Offset {
	e := s.entities[i]
	if !s.offMap.HasAll(e) {
		return nil
	}
	return s.offMap.Get(e)
}

// AddOffset accumulates an impulse offset on particle i, attaching the
// component if the particle had none. Must not be called while a query is
// open.
func (s *Store) AddOffset(i int, v mgl32.Vec3) {
	e := s.entities[i]
	if s.offMap.HasAll(e) {
		off := s.offMap.Get(e)
		off.V = off.V.Add(v)
		return
	}
	off := components.Offset{V: v}
	s.offMap.Add(e, &off)
}

// RemoveOffset drops the offset component from particle i. Must not be
// called while a query is open.
func (s *Store) RemoveOffset(i int) {
	e := s.entities[i]
	if s.offMap.HasAll(e) {
		s.offMap.Remove(e)
	}
}

// HasOffset reports whether particle i is in the active offset set.
func (s *Store) HasOffset(i int) bool {
	return s.offMap.HasAll(s.entities[i])
}

// ExportPositions copies every particle position into buf as x,y,z triples
// in index order, growing buf if needed, and returns it. This is the flat
// buffer handed to the renderer once per frame.
func (s *Store) ExportPositions(buf []float32) []float32 {
	n := len(s.entities) * 3
	if cap(buf) < n {
		buf = make([]float32, n)
	}
	buf = buf[:n]
	for i, e := range s.entities {
		p := s.posMap.Get(e).V
		buf[i*3+0] = p.X()
		buf[i*3+1] = p.Y()
		buf[i*3+2] = p.Z()
	}
	return buf
}
