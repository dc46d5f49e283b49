package furnish

// SurfaceTracker reports the detected surface pose for the current frame.
// It is queried at most a few times per frame and never owns the AR session.
type SurfaceTracker interface {
	QuerySurfacePose() (Pose, bool)
}

// SurfaceFunc adapts a function to SurfaceTracker.
type SurfaceFunc func() (Pose, bool)

// QuerySurfacePose calls f.
func (f SurfaceFunc) QuerySurfacePose() (Pose, bool) {
	return f()
}

// StaticSurface is a SurfaceTracker with a settable pose, for shells that
// compute the surface themselves (a floor under the cursor) and for tests.
type StaticSurface struct {
	pose Pose
	ok   bool
}

// Set makes pose the detected surface.
func (s *StaticSurface) Set(pose Pose) {
	s.pose = pose
	s.ok = true
}

// Lose marks the surface as not detected.
func (s *StaticSurface) Lose() {
	s.ok = false
}

// QuerySurfacePose returns the last set pose while it is detected.
func (s *StaticSurface) QuerySurfacePose() (Pose, bool) {
	return s.pose, s.ok
}
