package furnish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pick casts a world-space ray against the world bounds of every placed item
// and returns the nearest one hit, or nil. The result is the placed root
// itself, ready for SelectActive.
func (s *Session) Pick(origin, dir mgl64.Vec3) *Node {
	if dir.Len() == 0 {
		return nil
	}
	dir = dir.Normalize()
	var best *Node
	bestT := math.Inf(1)
	for _, p := range s.placed {
		t, ok := intersectRayBox(origin, dir, p.WorldBounds())
		if ok && t < bestT {
			best, bestT = p, t
		}
	}
	return best
}

// PickGround returns the most recently placed item whose world footprint
// contains (x, z) on the ground plane, or nil.
func (s *Session) PickGround(x, z float64) *Node {
	for i := len(s.placed) - 1; i >= 0; i-- {
		if s.placed[i].WorldBounds().ContainsXZ(x, z) {
			return s.placed[i]
		}
	}
	return nil
}

// intersectRayBox is the slab test. Returns the entry distance, or the exit
// distance if the ray starts inside the box.
func intersectRayBox(origin, dir mgl64.Vec3, box Box3) (float64, bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < box.Min[i] || origin[i] > box.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[i] - origin[i]) / dir[i]
		t2 := (box.Max[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
