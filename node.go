package furnish

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// NodeType distinguishes group nodes from mesh-bearing nodes.
type NodeType uint8

const (
	NodeTypeGroup NodeType = iota // container with no geometry of its own
	NodeTypeMesh                  // carries shared Geometry and an owned Material
)

// nodeIDCounter is atomic because model loaders build node trees off the
// main goroutine.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Node is the VisualObject handle: a renderable node graph with a 3D transform.
// A single flat struct is used for both node types.
//
// A Node belongs to exactly one of the catalog cache, the preview slot or the
// placed collection. Moving between roles always goes through DeepClone.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3

	Visible bool

	// Mesh fields (NodeTypeMesh). Geometry is shared between clones and must
	// be treated as read-only; Material is owned by this node.
	Geometry *Geometry
	Material *Material

	// Item is the catalog identity the subtree was built from.
	Item ItemKey

	// PlacementID is non-zero on every node of a placed subtree. It resolves a
	// picked descendant back to its placed root without walking parents.
	PlacementID uint32

	// PlacedScale is the reference scale gesture clamps are relative to.
	PlacedScale mgl64.Vec3

	UserData any

	disposed bool
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Rotation = mgl64.QuatIdent()
	n.Scale = mgl64.Vec3{1, 1, 1}
	n.Visible = true
}

// NewGroup creates a container node with no geometry.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeGroup}
	nodeDefaults(n)
	return n
}

// NewMesh creates a mesh node. A nil material is replaced by a default opaque
// white material.
func NewMesh(name string, geom *Geometry, mat *Material) *Node {
	if mat == nil {
		mat = NewMaterial(name)
	}
	n := &Node{Name: name, Type: NodeTypeMesh, Geometry: geom, Material: mat}
	nodeDefaults(n)
	return n
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("furnish: cannot add nil child")
	}
	if globalDebug.Load() {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("furnish: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("furnish: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// Walk visits n and every descendant depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.children {
		child.Walk(fn)
	}
}

// Meshes returns every mesh-bearing node in the subtree, n included.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Type == NodeTypeMesh {
			out = append(out, c)
		}
		return true
	})
	return out
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants. Shared geometry is left alone.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Visible = false
	n.Geometry = nil
	n.Material = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
