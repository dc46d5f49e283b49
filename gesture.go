package furnish

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// --- Constants ---

const (
	defaultRotateSpeed           = 0.005 // radians per pixel
	defaultDragSpeed             = 0.01  // meters per pixel
	defaultDragThreshold         = 4.0   // pixels of centroid travel
	defaultPinchThreshold        = 10.0  // pixels of spread change
	defaultMinScale              = 0.5   // relative to the placed scale
	defaultMaxScale              = 2.0   // relative to the placed scale
	defaultControllerRotateSpeed = 30.0  // radians per meter of controller travel
)

// GestureConfig holds the gesture tunables. Zero fields take the defaults.
type GestureConfig struct {
	RotateSpeed           float64
	DragSpeed             float64
	DragThreshold         float64
	PinchThreshold        float64
	MinScale              float64
	MaxScale              float64
	ControllerRotateSpeed float64
}

// DefaultGestureConfig returns the standard gesture tunables.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{}.withDefaults()
}

func (c GestureConfig) withDefaults() GestureConfig {
	if c.RotateSpeed == 0 {
		c.RotateSpeed = defaultRotateSpeed
	}
	if c.DragSpeed == 0 {
		c.DragSpeed = defaultDragSpeed
	}
	if c.DragThreshold <= 0 {
		c.DragThreshold = defaultDragThreshold
	}
	if c.PinchThreshold <= 0 {
		c.PinchThreshold = defaultPinchThreshold
	}
	if c.MinScale <= 0 {
		c.MinScale = defaultMinScale
	}
	if c.MaxScale <= 0 {
		c.MaxScale = defaultMaxScale
	}
	if c.MaxScale < c.MinScale {
		c.MaxScale = c.MinScale
	}
	if c.ControllerRotateSpeed == 0 {
		c.ControllerRotateSpeed = defaultControllerRotateSpeed
	}
	return c
}

// --- Input events ---

// PointerPhase identifies a pointer event.
type PointerPhase uint8

const (
	PointerDown   PointerPhase = iota // a contact was added
	PointerMove                       // contacts moved
	PointerUp                         // a contact was lifted
	PointerCancel                     // the platform aborted the sequence
)

// Contact is one touch point in screen pixels.
type Contact struct {
	ID   int
	X, Y float64
}

// PointerEvent carries the contacts still active after the event.
type PointerEvent struct {
	Phase    PointerPhase
	Contacts []Contact
}

// ControllerPhase identifies an AR controller event.
type ControllerPhase uint8

const (
	ControllerSelectStart  ControllerPhase = iota // trigger pressed
	ControllerSelectEnd                           // trigger released: apply rotation
	ControllerSqueezeStart                        // grip pressed
	ControllerSqueezeMove                         // grip held, controller moved
	ControllerSqueezeEnd                          // grip released
)

// ControllerEvent carries the controller's world-space point.
type ControllerEvent struct {
	Phase ControllerPhase
	Point mgl64.Vec3
}

// TargetProvider designates the object gestures act on. *Session implements it.
type TargetProvider interface {
	Active() *Node
}

type inputSource uint8

const (
	sourceNone inputSource = iota
	sourceTouch
	sourceController
)

// gestureBaseline is captured once when a contact regime starts. All deltas
// are totals measured against it.
type gestureBaseline struct {
	target *Node
	source inputSource
	count  int
	ids    [2]int

	startX, startY float64 // single contact or centroid
	dist           float64 // two-contact spread
	point          mgl64.Vec3

	position mgl64.Vec3
	rotation mgl64.Quat
	scale    mgl64.Vec3
}

// GestureController turns pointer and controller input into bounded
// transform updates on the active object.
//
// Deltas are always measured from the baseline taken at the start of the
// current contact regime, never accumulated frame to frame. The baseline is
// re-taken whenever the contact set, the active object or the input source
// changes, and no delta is applied on the event that re-took it.
type GestureController struct {
	targets TargetProvider
	cfg     GestureConfig
	log     zerolog.Logger
	store   EventStore

	mode  GestureMode
	base  gestureBaseline
	moved bool
}

// NewGestureController creates a controller acting on targets.Active().
func NewGestureController(targets TargetProvider, cfg GestureConfig) *GestureController {
	return &GestureController{
		targets: targets,
		cfg:     cfg.withDefaults(),
		log:     zerolog.Nop(),
	}
}

// SetLogger sets the controller's logger.
func (g *GestureController) SetLogger(log zerolog.Logger) {
	g.log = log
}

// SetEventStore sets the optional event bridge for EventManipulated.
func (g *GestureController) SetEventStore(store EventStore) {
	g.store = store
}

// Config returns the effective tunables.
func (g *GestureController) Config() GestureConfig {
	return g.cfg
}

// Mode returns the current disambiguated mode.
func (g *GestureController) Mode() GestureMode {
	return g.mode
}

// Reset ends any gesture in progress.
func (g *GestureController) Reset() {
	g.end()
}

// HandlePointer processes one pointer event. At most two contacts are used,
// the two lowest ids.
func (g *GestureController) HandlePointer(ev PointerEvent) {
	contacts := activeContacts(ev.Contacts)
	if ev.Phase == PointerCancel || len(contacts) == 0 {
		g.end()
		return
	}

	target := g.liveTarget()
	if g.needsBaseline(target, contacts) {
		g.rebaselineTouch(target, contacts)
		return
	}
	if ev.Phase != PointerMove || target == nil {
		return
	}

	if len(contacts) == 1 {
		g.rotate(target, contacts[0].X-g.base.startX, g.cfg.RotateSpeed)
		return
	}
	g.twoContacts(target, contacts)
}

func (g *GestureController) needsBaseline(target *Node, contacts []Contact) bool {
	if g.base.source != sourceTouch || g.base.target != target || g.base.count != len(contacts) {
		return true
	}
	for i, c := range contacts {
		if g.base.ids[i] != c.ID {
			return true
		}
	}
	return false
}

func (g *GestureController) rebaselineTouch(target *Node, contacts []Contact) {
	g.finishMode()
	g.base = gestureBaseline{target: target, source: sourceTouch, count: len(contacts)}
	for i, c := range contacts {
		g.base.ids[i] = c.ID
	}
	g.mode = ModeNone
	g.moved = false
	if target == nil {
		g.log.Debug().Int("contacts", len(contacts)).Msg("gesture ignored: no active object")
		return
	}
	g.captureTransform(target)

	if len(contacts) == 1 {
		g.base.startX, g.base.startY = contacts[0].X, contacts[0].Y
		g.mode = ModeRotate
		return
	}
	g.base.startX, g.base.startY = centroid(contacts[0], contacts[1])
	g.base.dist = spread(contacts[0], contacts[1])
}

func (g *GestureController) captureTransform(target *Node) {
	g.base.position = target.Position
	g.base.rotation = target.Rotation
	g.base.scale = target.Scale
}

// twoContacts resolves the pending two-contact mode on the first threshold
// crossed, then applies it for the rest of the regime.
func (g *GestureController) twoContacts(target *Node, contacts []Contact) {
	cx, cy := centroid(contacts[0], contacts[1])
	dist := spread(contacts[0], contacts[1])

	if g.mode == ModeNone {
		switch {
		case math.Abs(dist-g.base.dist) > g.cfg.PinchThreshold:
			g.mode = ModeScale
		case math.Hypot(cx-g.base.startX, cy-g.base.startY) > g.cfg.DragThreshold:
			g.mode = ModeDrag
		default:
			return
		}
		g.log.Debug().Stringer("mode", g.mode).Msg("two-contact gesture resolved")
	}

	switch g.mode {
	case ModeDrag:
		g.drag(target, (cx-g.base.startX)*g.cfg.DragSpeed, (cy-g.base.startY)*g.cfg.DragSpeed)
	case ModeScale:
		if g.base.dist > 0 {
			g.scale(target, dist/g.base.dist)
		}
	}
}

// rotate sets the yaw about the object's own up axis to the baseline plus
// delta*speed.
func (g *GestureController) rotate(target *Node, delta, speed float64) {
	target.Rotation = g.base.rotation.Mul(mgl64.QuatRotate(delta*speed, Up)).Normalize()
	g.moved = true
}

// drag moves the object in the ground plane only; height is kept from the
// baseline so the item stays on its surface.
func (g *GestureController) drag(target *Node, dx, dz float64) {
	target.Position = mgl64.Vec3{
		g.base.position[0] + dx,
		g.base.position[1],
		g.base.position[2] + dz,
	}
	g.moved = true
}

// scale applies baseScale*factor, clamped to [MinScale, MaxScale] times the
// object's placed scale. The ratio stays positive, so the scale can never
// collapse or flip handedness.
func (g *GestureController) scale(target *Node, factor float64) {
	ref := target.PlacedScale
	if ref == (mgl64.Vec3{}) {
		ref = g.base.scale
	}
	if ref[0] == 0 {
		return
	}
	ratio := g.base.scale[0] / ref[0] * factor
	ratio = mgl64.Clamp(ratio, g.cfg.MinScale, g.cfg.MaxScale)
	target.Scale = ref.Mul(ratio)
	g.moved = true
}

// HandleController processes one AR controller event. Trigger select rotates
// by the controller's x travel on release; squeeze drags in the ground plane.
func (g *GestureController) HandleController(ev ControllerEvent) {
	target := g.liveTarget()
	switch ev.Phase {
	case ControllerSelectStart:
		g.rebaselineController(target, ev.Point, ModeRotate)
	case ControllerSelectEnd:
		if g.base.source == sourceController && g.mode == ModeRotate && target != nil && target == g.base.target {
			g.rotate(target, ev.Point[0]-g.base.point[0], g.cfg.ControllerRotateSpeed)
		}
		g.end()
	case ControllerSqueezeStart:
		g.rebaselineController(target, ev.Point, ModeDrag)
	case ControllerSqueezeMove:
		if g.base.source != sourceController || g.base.target != target ||
			(target != nil && g.mode != ModeDrag) {
			g.rebaselineController(target, ev.Point, ModeDrag)
			return
		}
		if target == nil {
			return
		}
		d := ev.Point.Sub(g.base.point)
		g.drag(target, d[0], d[2])
	case ControllerSqueezeEnd:
		g.end()
	}
}

func (g *GestureController) rebaselineController(target *Node, point mgl64.Vec3, mode GestureMode) {
	g.finishMode()
	g.base = gestureBaseline{target: target, source: sourceController, point: point}
	g.mode = ModeNone
	g.moved = false
	if target == nil {
		g.log.Debug().Msg("controller gesture ignored: no active object")
		return
	}
	g.captureTransform(target)
	g.mode = mode
}

// end finishes the gesture and drops every reference to the target.
func (g *GestureController) end() {
	g.finishMode()
	g.base = gestureBaseline{}
	g.mode = ModeNone
	g.moved = false
}

func (g *GestureController) finishMode() {
	t := g.base.target
	if g.mode == ModeNone || !g.moved || t == nil || t.IsDisposed() {
		return
	}
	ev := eventFor(EventManipulated, t)
	ev.Mode = g.mode
	g.log.Debug().Stringer("mode", g.mode).Uint32("placement", t.PlacementID).Msg("gesture finished")
	if g.store != nil {
		g.store.EmitEvent(ev)
	}
}

func (g *GestureController) liveTarget() *Node {
	if g.targets == nil {
		return nil
	}
	t := g.targets.Active()
	if t != nil && t.IsDisposed() {
		return nil
	}
	return t
}

// --- Helpers ---

// activeContacts returns at most two contacts ordered by id.
func activeContacts(in []Contact) []Contact {
	if len(in) == 0 {
		return nil
	}
	out := append([]Contact(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > 2 {
		out = out[:2]
	}
	return out
}

func centroid(a, b Contact) (float64, float64) {
	return (a.X + b.X) / 2, (a.Y + b.Y) / 2
}

func spread(a, b Contact) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
