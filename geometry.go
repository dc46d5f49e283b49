package furnish

import "github.com/go-gl/mathgl/mgl64"

// Geometry holds vertex positions and triangle indices. It is immutable after
// construction and may be shared by any number of nodes.
type Geometry struct {
	Positions []mgl64.Vec3
	Indices   []uint32

	bounds Box3
}

// NewGeometry creates a geometry and computes its local bounds eagerly, so
// concurrent readers never race on a lazy cache.
func NewGeometry(positions []mgl64.Vec3, indices []uint32) *Geometry {
	g := &Geometry{Positions: positions, Indices: indices, bounds: EmptyBox()}
	for _, p := range positions {
		g.bounds = g.bounds.ExpandByPoint(p)
	}
	return g
}

// NewBoxGeometry creates an axis-aligned box of the given size centered on
// the origin.
func NewBoxGeometry(width, height, depth float64) *Geometry {
	x, y, z := width/2, height/2, depth/2
	positions := []mgl64.Vec3{
		{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // back
		4, 5, 6, 4, 6, 7, // front
		0, 1, 5, 0, 5, 4, // bottom
		3, 7, 6, 3, 6, 2, // top
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
	return NewGeometry(positions, indices)
}

// Bounds returns the local-space bounding box of the vertices.
func (g *Geometry) Bounds() Box3 {
	return g.bounds
}

// IsEmpty reports whether the geometry has no vertices.
func (g *Geometry) IsEmpty() bool {
	return len(g.Positions) == 0
}
