package furnish

import "github.com/go-gl/mathgl/mgl64"

// Material is the per-node surface description. Each mesh node owns its
// Material; mutate it only through the node that owns it.
type Material struct {
	Name        string
	Color       Color
	Opacity     float64
	Transparent bool
}

// NewMaterial returns an opaque white material.
func NewMaterial(name string) *Material {
	return &Material{Name: name, Color: ColorWhite, Opacity: 1}
}

// Clone returns an independent copy of m.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// SetOpacity sets the opacity of every mesh node under n, n included. The
// value is clamped to [0, 1]; transparency is enabled for any value below 1.
// Materials must already be owned by n (see DeepClone).
func SetOpacity(n *Node, value float64) {
	value = mgl64.Clamp(value, 0, 1)
	n.Walk(func(c *Node) bool {
		if c.Type != NodeTypeMesh {
			return true
		}
		if c.Material == nil {
			c.Material = NewMaterial(c.Name)
		}
		c.Material.Opacity = value
		c.Material.Transparent = value < 1
		return true
	})
}

// Opacity returns the opacity of the first mesh node under n, or 1 when the
// subtree has no meshes.
func Opacity(n *Node) float64 {
	opacity := 1.0
	found := false
	n.Walk(func(c *Node) bool {
		if found {
			return false
		}
		if c.Type == NodeTypeMesh && c.Material != nil {
			opacity = c.Material.Opacity
			found = true
			return false
		}
		return true
	})
	return opacity
}
