package furnish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// heightEpsilon is the smallest bounding-box height Normalize will divide by.
const heightEpsilon = 1e-9

// LocalMatrix computes the node's local matrix.
//
// Composition order:
//
//	Scale -> Rotate -> Translate(Position)
func (n *Node) LocalMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	r := n.Rotation.Normalize().Mat4()
	s := mgl64.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix composes the local matrices from the root down to n.
func (n *Node) WorldMatrix() mgl64.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// --- Transform property setters ---

// SetPosition sets the node's local position.
func (n *Node) SetPosition(p mgl64.Vec3) {
	n.Position = p
}

// SetRotation sets the node's local rotation.
func (n *Node) SetRotation(q mgl64.Quat) {
	n.Rotation = q.Normalize()
}

// SetUniformScale sets all three scale components to s.
func (n *Node) SetUniformScale(s float64) {
	n.Scale = mgl64.Vec3{s, s, s}
}

// SetPose copies position and rotation from p. Scale is unchanged.
func (n *Node) SetPose(p Pose) {
	n.Position = p.Position
	n.Rotation = p.Rotation.Normalize()
}

// Pose returns the node's local position and rotation.
func (n *Node) Pose() Pose {
	return Pose{Position: n.Position, Rotation: n.Rotation}
}

// Yaw returns the node's heading about Up in radians, measured from +Z.
func (n *Node) Yaw() float64 {
	fwd := n.Rotation.Rotate(mgl64.Vec3{0, 0, 1})
	return math.Atan2(fwd[0], fwd[2])
}

// --- Bounds ---

// Bounds returns the axis-aligned box of every mesh vertex under n, expressed
// in n's parent frame (n's own transform is applied).
func (n *Node) Bounds() Box3 {
	return subtreeBounds(n, n.LocalMatrix())
}

// WorldBounds returns the axis-aligned box of the subtree in world space.
func (n *Node) WorldBounds() Box3 {
	return subtreeBounds(n, n.WorldMatrix())
}

func subtreeBounds(n *Node, m mgl64.Mat4) Box3 {
	box := EmptyBox()
	if n.Type == NodeTypeMesh && n.Geometry != nil {
		for _, p := range n.Geometry.Positions {
			box = box.ExpandByPoint(m.Mul4x1(p.Vec4(1)).Vec3())
		}
	}
	for _, child := range n.children {
		box = box.Union(subtreeBounds(child, m.Mul4(child.LocalMatrix())))
	}
	return box
}

// Normalize uniformly scales n so its bounding-box height equals
// targetHeight, then translates it so the box center sits at the origin of
// n's parent frame. n is left untouched when an error is returned.
func Normalize(n *Node, targetHeight float64) error {
	if !(targetHeight > 0) {
		return ErrInvalidHeight
	}
	box := n.Bounds()
	height := box.Size()[1]
	if box.IsEmpty() || height < heightEpsilon {
		return ErrEmptyGeometry
	}

	n.Scale = n.Scale.Mul(targetHeight / height)

	box = n.Bounds()
	n.Position = n.Position.Sub(box.Center())
	return nil
}

// --- Matrix decomposition ---

// DecomposeMatrix splits a column-major 4x4 affine matrix (the layout used by
// WebXR and glTF) into translation, rotation and scale. A negative
// determinant is folded into the X scale.
func DecomposeMatrix(m [16]float64) (pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) {
	mat := mgl64.Mat4(m)
	pos = mat.Col(3).Vec3()

	c0 := mat.Col(0).Vec3()
	c1 := mat.Col(1).Vec3()
	c2 := mat.Col(2).Vec3()
	sx, sy, sz := c0.Len(), c1.Len(), c2.Len()
	if mat.Det() < 0 {
		sx = -sx
	}
	scale = mgl64.Vec3{sx, sy, sz}

	if sx == 0 || sy == 0 || sz == 0 {
		return pos, mgl64.QuatIdent(), scale
	}

	c0 = c0.Mul(1 / sx)
	c1 = c1.Mul(1 / sy)
	c2 = c2.Mul(1 / sz)
	r := mgl64.Mat4{
		c0[0], c0[1], c0[2], 0,
		c1[0], c1[1], c1[2], 0,
		c2[0], c2[1], c2[2], 0,
		0, 0, 0, 1,
	}
	return pos, mgl64.Mat4ToQuat(r).Normalize(), scale
}

// PoseFromMatrix extracts the pose of a column-major hit-test transform,
// discarding any scale.
func PoseFromMatrix(m [16]float64) Pose {
	pos, rot, _ := DecomposeMatrix(m)
	return Pose{Position: pos, Rotation: rot}
}
