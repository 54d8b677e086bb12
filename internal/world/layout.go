// Package world holds the static arena: obstacle footprints, spawn areas and
// the line-of-sight probe the AI uses to detour around buildings.
package world

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

const (
	tagSolid = "solid"

	// spaceOffset shifts world coordinates (centred on the origin) into the
	// positive quadrant resolv cells are indexed in.
	spaceOffset = 64
	spaceSize   = spaceOffset * 2
	cellSize    = 4

	losStep      = 0.5
	losProbeSize = 0.3

	spawnAttempts = 16
)

// Box is an axis-aligned obstacle footprint on the ground plane, centred on
// (X, Z).
type Box struct {
	X     float64 `json:"x"`
	Z     float64 `json:"z"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

// Area is a rectangular spawn region at a fixed height.
type Area struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
	Y          float64
}

// Random draws a uniformly distributed point inside the area.
func (a Area) Random(rng *rand.Rand) mgl64.Vec3 {
	return mgl64.Vec3{
		a.MinX + rng.Float64()*(a.MaxX-a.MinX),
		a.Y,
		a.MinZ + rng.Float64()*(a.MaxZ-a.MinZ),
	}
}

var (
	// PlayerSpawn is where players appear on join and respawn.
	PlayerSpawn = Area{MinX: -5, MaxX: 5, MinZ: -5, MaxZ: 5, Y: 1.6}
	// ZombieSpawn is the region zombie batches are scattered over.
	ZombieSpawn = Area{MinX: -40, MaxX: 40, MinZ: -40, MaxZ: 40, Y: 0.4}
)

// DefaultBuildings mirrors the fixed building placement the browser client
// renders.
func DefaultBuildings() []Box {
	positions := [][2]float64{
		{-20, -15}, {15, -25}, {-30, 10}, {25, 20}, {0, -40}, {-15, 30},
	}
	boxes := make([]Box, 0, len(positions))
	for _, p := range positions {
		boxes = append(boxes, Box{X: p[0], Z: p[1], Width: 5, Depth: 5})
	}
	return boxes
}

// Layout is the immutable static world. It is safe for concurrent reads.
type Layout struct {
	space     *resolv.Space
	obstacles []Box
}

// NewLayout indexes the obstacles into a resolv space.
func NewLayout(obstacles []Box) *Layout {
	space := resolv.NewSpace(spaceSize, spaceSize, cellSize, cellSize)
	for _, box := range obstacles {
		obj := resolv.NewObject(box.X-box.Width/2+spaceOffset, box.Z-box.Depth/2+spaceOffset, box.Width, box.Depth, tagSolid)
		obj.SetShape(resolv.NewRectangle(0, 0, box.Width, box.Depth))
		space.Add(obj)
	}
	return &Layout{space: space, obstacles: append([]Box(nil), obstacles...)}
}

// DefaultLayout builds the arena used by the browser client.
func DefaultLayout() *Layout {
	return NewLayout(DefaultBuildings())
}

// Obstacles returns a copy of the obstacle footprints.
func (l *Layout) Obstacles() []Box {
	if l == nil {
		return nil
	}
	return append([]Box(nil), l.obstacles...)
}

// Blocked reports whether the ground projection of p lies inside an obstacle,
// padded by margin.
func (l *Layout) Blocked(p mgl64.Vec3, margin float64) bool {
	if l == nil || l.space == nil {
		return false
	}
	x, z := p.X()+spaceOffset, p.Z()+spaceOffset
	for _, obj := range l.space.Objects() {
		if !obj.HasTags(tagSolid) {
			continue
		}
		if x+margin > obj.X && x-margin < obj.X+obj.W &&
			z+margin > obj.Y && z-margin < obj.Y+obj.H {
			return true
		}
	}
	return false
}

// LineOfSight walks the ground-projected segment from a to b and reports
// whether it clears every obstacle. Endpoints are not tested so an entity
// standing against a wall can still see past its own corner.
func (l *Layout) LineOfSight(a, b mgl64.Vec3) bool {
	if l == nil {
		return true
	}
	dx := b.X() - a.X()
	dz := b.Z() - a.Z()
	dist := math.Hypot(dx, dz)
	if dist <= losStep {
		return true
	}
	dx /= dist
	dz /= dist
	for d := losStep; d < dist-losStep; d += losStep {
		probe := mgl64.Vec3{a.X() + dx*d, 0, a.Z() + dz*d}
		if l.Blocked(probe, losProbeSize) {
			return false
		}
	}
	return true
}

// SpawnPoint draws a random point in area that is not inside an obstacle.
// After a bounded number of attempts the last draw is used regardless.
func (l *Layout) SpawnPoint(area Area, rng *rand.Rand) mgl64.Vec3 {
	p := area.Random(rng)
	for attempt := 1; attempt < spawnAttempts && l.Blocked(p, 1); attempt++ {
		p = area.Random(rng)
	}
	return p
}
