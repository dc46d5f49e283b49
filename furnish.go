package furnish

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default material color.
var ColorWhite = Color{1, 1, 1, 1}

// Up is the world up axis. Rotation gestures and surface yaw are about this axis.
var Up = mgl64.Vec3{0, 1, 0}

// Box3 is an axis-aligned bounding box. The zero value is NOT empty; use
// EmptyBox to start an accumulation.
type Box3 struct {
	Min, Max mgl64.Vec3
}

// EmptyBox returns a box that contains nothing. Expanding it by a point
// yields a degenerate box at that point.
func EmptyBox() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint grows the box to include p.
func (b Box3) ExpandByPoint(p mgl64.Vec3) Box3 {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b Box3) Union(o Box3) Box3 {
	if o.IsEmpty() {
		return b
	}
	return b.ExpandByPoint(o.Min).ExpandByPoint(o.Max)
}

// Size returns the box extents. An empty box has zero size.
func (b Box3) Size() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint. An empty box has its center at the origin.
func (b Box3) Center() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// ContainsXZ reports whether (x, z) lies inside the box footprint on the
// ground plane. Points on the edge are inside.
func (b Box3) ContainsXZ(x, z float64) bool {
	return x >= b.Min[0] && x <= b.Max[0] && z >= b.Min[2] && z <= b.Max[2]
}

// Pose is a position and orientation reported by the surface facility for the
// current frame.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewPose builds a pose at position p rotated by yaw radians about Up.
func NewPose(p mgl64.Vec3, yaw float64) Pose {
	return Pose{Position: p, Rotation: mgl64.QuatRotate(yaw, Up)}
}

// State is the placement state machine's state.
type State uint8

const (
	StateIdle       State = iota // no selection
	StatePreviewing              // preview tracks the detected surface
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	default:
		return "unknown"
	}
}

// GestureMode is the disambiguated manipulation mode. Exactly one mode is
// active at a time.
type GestureMode uint8

const (
	ModeNone   GestureMode = iota // no manipulation in progress
	ModeRotate                    // one contact: yaw about the up axis
	ModeDrag                      // two contacts, steady spread: ground-plane move
	ModeScale                     // two contacts, changing spread: uniform scale
)

// String returns the mode name.
func (m GestureMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeRotate:
		return "rotate"
	case ModeDrag:
		return "drag"
	case ModeScale:
		return "scale"
	default:
		return "unknown"
	}
}

// Sentinel errors. None of them is fatal; callers surface them to the user or
// drop them.
var (
	ErrUnknownItem     = errors.New("furnish: unknown catalog item")
	ErrDuplicateItem   = errors.New("furnish: duplicate catalog item")
	ErrInvalidHeight   = errors.New("furnish: target height must be positive")
	ErrEmptyGeometry   = errors.New("furnish: object has no renderable geometry")
	ErrNotPreviewing   = errors.New("furnish: no item is being previewed")
	ErrNoActiveSurface = errors.New("furnish: no surface detected, cannot place here")
	ErrNoActiveObject  = errors.New("furnish: no active object")
	ErrNotPlaced       = errors.New("furnish: object is not a placed item")
	ErrSessionClosed   = errors.New("furnish: session closed")
)
