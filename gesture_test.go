package furnish

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type fixedTarget struct {
	node *Node
}

func (f *fixedTarget) Active() *Node { return f.node }

func gestureTarget() *Node {
	n := NewGroup("target")
	n.Position = mgl64.Vec3{1, 0.3, 2}
	n.PlacedScale = n.Scale
	n.PlacementID = 7
	return n
}

func pointer(phase PointerPhase, contacts ...Contact) PointerEvent {
	return PointerEvent{Phase: phase, Contacts: contacts}
}

func c(id int, x, y float64) Contact {
	return Contact{ID: id, X: x, Y: y}
}

// --- One contact ---

func TestGestureRotate(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 100, 100)))
	g.HandlePointer(pointer(PointerMove, c(0, 150, 140)))
	g.HandlePointer(pointer(PointerMove, c(0, 200, 180)))

	if g.Mode() != ModeRotate {
		t.Errorf("Mode = %v, want rotate", g.Mode())
	}
	// Deltas are totals from the touch-down point, not accumulated.
	assertNear(t, "yaw", target.Yaw(), 0.5)
	assertVec(t, "position", target.Position, mgl64.Vec3{1, 0.3, 2})
}

func TestGestureRotateKeepsBaseYaw(t *testing.T) {
	target := gestureTarget()
	target.SetPose(NewPose(target.Position, 1))
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 0, 0)))
	g.HandlePointer(pointer(PointerMove, c(0, -40, 0)))

	assertNear(t, "yaw", target.Yaw(), 0.8)
}

// --- Two contacts ---

func TestGestureTwoContactDrag(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 100, 100), c(1, 200, 100)))
	g.HandlePointer(pointer(PointerMove, c(0, 125, 110), c(1, 225, 110)))
	g.HandlePointer(pointer(PointerMove, c(0, 150, 120), c(1, 250, 120)))

	if g.Mode() != ModeDrag {
		t.Fatalf("Mode = %v, want drag", g.Mode())
	}
	assertVec(t, "position", target.Position, mgl64.Vec3{1.5, 0.3, 2.2})
	assertNear(t, "yaw", target.Yaw(), 0)
}

func TestGesturePinchScaleClamped(t *testing.T) {
	tests := []struct {
		name   string
		placed float64
		to     float64 // final spread, from 100
		want   float64
	}{
		{"grow", 1, 150, 1.5},
		{"clamped high", 1, 300, 2},
		{"clamped low", 1, 20, 0.5},
		{"relative to placed scale", 2, 500, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := gestureTarget()
			target.Scale = mgl64.Vec3{tt.placed, tt.placed, tt.placed}
			target.PlacedScale = target.Scale
			g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

			g.HandlePointer(pointer(PointerDown, c(0, 100, 100), c(1, 200, 100)))
			half := tt.to / 2
			g.HandlePointer(pointer(PointerMove, c(0, 150-half, 100), c(1, 150+half, 100)))

			if g.Mode() != ModeScale {
				t.Fatalf("Mode = %v, want scale", g.Mode())
			}
			w := tt.want
			assertVec(t, "scale", target.Scale, mgl64.Vec3{w, w, w})
			assertVec(t, "position", target.Position, mgl64.Vec3{1, 0.3, 2})
		})
	}
}

func TestGestureResolvedModeSticks(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 100, 100), c(1, 200, 100)))
	g.HandlePointer(pointer(PointerMove, c(0, 80, 100), c(1, 220, 100)))
	// Both contacts now slide: the gesture stays a pinch.
	g.HandlePointer(pointer(PointerMove, c(0, 80, 300), c(1, 220, 300)))

	if g.Mode() != ModeScale {
		t.Fatalf("Mode = %v, want scale", g.Mode())
	}
	assertVec(t, "position", target.Position, mgl64.Vec3{1, 0.3, 2})
}

func TestGestureBelowThreshold(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 100, 100), c(1, 200, 100)))
	g.HandlePointer(pointer(PointerMove, c(0, 99, 101), c(1, 203, 101)))

	if g.Mode() != ModeNone {
		t.Errorf("Mode = %v, want none below thresholds", g.Mode())
	}
	assertVec(t, "position", target.Position, mgl64.Vec3{1, 0.3, 2})
	assertVec(t, "scale", target.Scale, mgl64.Vec3{1, 1, 1})
}

func TestGestureUsesLowestTwoContacts(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(5, 0, 0), c(1, 100, 100), c(3, 200, 100)))
	// Moving the third contact changes nothing.
	g.HandlePointer(pointer(PointerMove, c(5, 400, 400), c(1, 100, 100), c(3, 200, 100)))
	if g.Mode() != ModeNone {
		t.Fatalf("Mode = %v, want none", g.Mode())
	}
	g.HandlePointer(pointer(PointerMove, c(5, 400, 400), c(1, 150, 100), c(3, 250, 100)))
	if g.Mode() != ModeDrag {
		t.Fatalf("Mode = %v, want drag", g.Mode())
	}
	assertVec(t, "position", target.Position, mgl64.Vec3{1.5, 0.3, 2})
}

// --- Re-baselining ---

func TestGestureTwoToOneContactNoJump(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 100, 100), c(1, 200, 100)))
	g.HandlePointer(pointer(PointerMove, c(0, 150, 100), c(1, 250, 100)))
	dragged := target.Position

	// Lift contact 1 with contact 0 far from where the regime started.
	g.HandlePointer(pointer(PointerUp, c(0, 150, 100)))
	assertVec(t, "position after lift", target.Position, dragged)
	assertNear(t, "yaw after lift", target.Yaw(), 0)
	if g.Mode() != ModeRotate {
		t.Errorf("Mode = %v, want rotate", g.Mode())
	}

	g.HandlePointer(pointer(PointerMove, c(0, 190, 100)))
	assertNear(t, "yaw", target.Yaw(), 0.2)
	assertVec(t, "position", target.Position, dragged)
}

func TestGestureOneToTwoContactsNoJump(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 100, 100)))
	g.HandlePointer(pointer(PointerMove, c(0, 140, 100)))
	yaw := target.Yaw()

	g.HandlePointer(pointer(PointerDown, c(0, 140, 100), c(1, 300, 100)))
	if g.Mode() != ModeNone {
		t.Errorf("Mode = %v, want none until a threshold is crossed", g.Mode())
	}
	g.HandlePointer(pointer(PointerMove, c(0, 140, 100), c(1, 300, 100)))
	assertNear(t, "yaw", target.Yaw(), yaw)
	assertVec(t, "position", target.Position, mgl64.Vec3{1, 0.3, 2})
}

func TestGestureRotateLiftThenDrag(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 100, 100)))
	g.HandlePointer(pointer(PointerMove, c(0, 300, 100)))
	assertNear(t, "yaw after rotate", target.Yaw(), 1)

	g.HandlePointer(pointer(PointerUp))
	if g.Mode() != ModeNone {
		t.Fatalf("Mode = %v, want none after lifting every contact", g.Mode())
	}

	// The drag starts far from the earlier touch; only its own travel counts.
	g.HandlePointer(pointer(PointerDown, c(0, 400, 400), c(1, 500, 400)))
	g.HandlePointer(pointer(PointerMove, c(0, 450, 400), c(1, 550, 400)))

	if g.Mode() != ModeDrag {
		t.Fatalf("Mode = %v, want drag", g.Mode())
	}
	assertVec(t, "position", target.Position, mgl64.Vec3{1.5, 0.3, 2})
	assertNear(t, "yaw after drag", target.Yaw(), 1)
}

func TestGestureTargetChangeRebaselines(t *testing.T) {
	a, b := gestureTarget(), gestureTarget()
	targets := &fixedTarget{a}
	g := NewGestureController(targets, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 0, 0)))
	g.HandlePointer(pointer(PointerMove, c(0, 100, 0)))
	assertNear(t, "a yaw", a.Yaw(), 0.5)

	targets.node = b
	g.HandlePointer(pointer(PointerMove, c(0, 120, 0)))
	assertNear(t, "b yaw at switch", b.Yaw(), 0)
	assertNear(t, "a yaw after switch", a.Yaw(), 0.5)

	g.HandlePointer(pointer(PointerMove, c(0, 160, 0)))
	assertNear(t, "b yaw", b.Yaw(), 0.2)
	assertNear(t, "a yaw", a.Yaw(), 0.5)
}

func TestGestureCancelRebaselines(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 0, 0)))
	g.HandlePointer(pointer(PointerMove, c(0, 100, 0)))
	g.HandlePointer(pointer(PointerCancel))
	if g.Mode() != ModeNone {
		t.Fatalf("Mode = %v, want none after cancel", g.Mode())
	}

	g.HandlePointer(pointer(PointerMove, c(0, 300, 0)))
	assertNear(t, "yaw", target.Yaw(), 0.5)
}

func TestGestureNoActiveObject(t *testing.T) {
	tests := []struct {
		name   string
		target func() *Node
	}{
		{"nil", func() *Node { return nil }},
		{"disposed", func() *Node {
			n := gestureTarget()
			n.Dispose()
			return n
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGestureController(&fixedTarget{tt.target()}, DefaultGestureConfig())
			g.HandlePointer(pointer(PointerDown, c(0, 0, 0)))
			g.HandlePointer(pointer(PointerMove, c(0, 100, 0)))
			g.HandleController(ControllerEvent{Phase: ControllerSqueezeStart})
			g.HandleController(ControllerEvent{Phase: ControllerSqueezeMove, Point: mgl64.Vec3{1, 0, 0}})
			if g.Mode() != ModeNone {
				t.Errorf("Mode = %v, want none", g.Mode())
			}
		})
	}
}

func TestGestureNilProvider(t *testing.T) {
	g := NewGestureController(nil, GestureConfig{})
	g.HandlePointer(pointer(PointerDown, c(0, 0, 0)))
	g.HandlePointer(pointer(PointerMove, c(0, 10, 0)))
	if g.Mode() != ModeNone {
		t.Errorf("Mode = %v, want none", g.Mode())
	}
}

// --- Controller ---

func TestControllerSelectRotates(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandleController(ControllerEvent{Phase: ControllerSelectStart, Point: mgl64.Vec3{0.2, 1, 0}})
	g.HandleController(ControllerEvent{Phase: ControllerSelectEnd, Point: mgl64.Vec3{0.21, 1.5, 0}})

	assertNear(t, "yaw", target.Yaw(), 0.3)
	if g.Mode() != ModeNone {
		t.Errorf("Mode = %v, want none after release", g.Mode())
	}
}

func TestControllerSqueezeDrags(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandleController(ControllerEvent{Phase: ControllerSqueezeStart, Point: mgl64.Vec3{0, 1, 0}})
	g.HandleController(ControllerEvent{Phase: ControllerSqueezeMove, Point: mgl64.Vec3{0.25, 1.2, 0.1}})
	g.HandleController(ControllerEvent{Phase: ControllerSqueezeMove, Point: mgl64.Vec3{0.5, 2, -0.25}})

	if g.Mode() != ModeDrag {
		t.Errorf("Mode = %v, want drag", g.Mode())
	}
	assertVec(t, "position", target.Position, mgl64.Vec3{1.5, 0.3, 1.75})
	g.HandleController(ControllerEvent{Phase: ControllerSqueezeEnd})
	if g.Mode() != ModeNone {
		t.Errorf("Mode = %v, want none after release", g.Mode())
	}
}

func TestControllerAfterTouchRebaselines(t *testing.T) {
	target := gestureTarget()
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())

	g.HandlePointer(pointer(PointerDown, c(0, 0, 0)))
	g.HandlePointer(pointer(PointerMove, c(0, 100, 0)))
	g.HandleController(ControllerEvent{Phase: ControllerSqueezeMove, Point: mgl64.Vec3{3, 0, 3}})
	assertVec(t, "position at source switch", target.Position, mgl64.Vec3{1, 0.3, 2})

	g.HandleController(ControllerEvent{Phase: ControllerSqueezeMove, Point: mgl64.Vec3{3.5, 0, 3}})
	assertVec(t, "position", target.Position, mgl64.Vec3{1.5, 0.3, 2})
	assertNear(t, "yaw", target.Yaw(), 0.5)
}

// --- Events ---

func TestGestureEmitsManipulatedOnEnd(t *testing.T) {
	target := gestureTarget()
	rec := &eventRecorder{}
	g := NewGestureController(&fixedTarget{target}, DefaultGestureConfig())
	g.SetEventStore(rec)

	// A tap without movement manipulates nothing.
	g.HandlePointer(pointer(PointerDown, c(0, 0, 0)))
	g.HandlePointer(pointer(PointerUp))
	if len(rec.events) != 0 {
		t.Fatalf("events = %v, want none for a tap", rec.types())
	}

	g.HandlePointer(pointer(PointerDown, c(0, 0, 0), c(1, 100, 0)))
	g.HandlePointer(pointer(PointerMove, c(0, -50, 0), c(1, 150, 0)))
	if len(rec.events) != 0 {
		t.Fatal("no event while the gesture is in progress")
	}
	g.HandlePointer(pointer(PointerUp))

	if len(rec.events) != 1 {
		t.Fatalf("events = %v, want one manipulated", rec.types())
	}
	ev := rec.events[0]
	if ev.Type != EventManipulated || ev.Mode != ModeScale || ev.PlacementID != 7 {
		t.Errorf("event = %+v", ev)
	}
}

// --- Config ---

func TestGestureConfigDefaults(t *testing.T) {
	cfg := DefaultGestureConfig()
	if cfg.RotateSpeed != 0.005 || cfg.DragThreshold != 4 || cfg.PinchThreshold != 10 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.MinScale != 0.5 || cfg.MaxScale != 2 || cfg.ControllerRotateSpeed != 30 {
		t.Errorf("defaults = %+v", cfg)
	}

	g := NewGestureController(nil, GestureConfig{MinScale: 3, MaxScale: 1})
	if got := g.Config(); got.MaxScale != 3 {
		t.Errorf("MaxScale = %v, want raised to MinScale", got.MaxScale)
	}
}
