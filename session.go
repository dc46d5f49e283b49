package furnish

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/tanema/gween/ease"
)

// SessionConfig holds the tunables of a placement session.
type SessionConfig struct {
	// PreviewOpacity is applied to every preview. Default 0.5.
	PreviewOpacity float64
	// HighlightOpacity is faded in on the active placed item. Zero disables
	// highlighting; placed items then always stay fully opaque.
	HighlightOpacity float64
	// HighlightDuration is the highlight fade time in seconds.
	HighlightDuration float32
}

// DefaultSessionConfig returns the standard session tunables.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PreviewOpacity:    0.5,
		HighlightDuration: 0.2,
	}
}

// loadResultBuffer bounds how many finished loads can wait for the next Update
// before their goroutines block.
const loadResultBuffer = 16

type loadResult struct {
	seq      uint64
	key      ItemKey
	template *Node
	err      error
}

// Session is the placement state machine for one AR session. It owns the
// preview slot and the placed collection, and designates the single active
// object gesture input targets.
//
// All methods must be called from one goroutine (the frame/input loop).
// Model loads run on their own goroutines and are applied by Update or Flush.
type Session struct {
	catalog *Catalog
	tracker SurfaceTracker
	cfg     SessionConfig
	log     zerolog.Logger
	store   EventStore
	debug   bool

	root    *Node
	state   State
	preview *Node
	placed  []*Node
	byID    map[uint32]*Node
	nextID  uint32
	active  *Node

	// Surface pose of the current frame, the reticle.
	reticle   Pose
	reticleOK bool

	// seq is bumped by every Select and Cancel; load results carrying an
	// older value are stale.
	seq        uint64
	pending    bool
	pendingKey ItemKey
	inflight   int
	results    chan loadResult
	done       chan struct{}
	closed     bool

	highlight *OpacityTween
}

// NewSession creates an idle session over catalog.
func NewSession(catalog *Catalog, cfg SessionConfig) *Session {
	return &Session{
		catalog: catalog,
		cfg:     cfg,
		log:     zerolog.Nop(),
		root:    NewGroup("session"),
		byID:    make(map[uint32]*Node),
		results: make(chan loadResult, loadResultBuffer),
		done:    make(chan struct{}),
	}
}

// SetSurfaceTracker attaches the per-frame surface source. With a tracker,
// Update polls it and ConfirmPlace samples it at the moment of confirmation.
func (s *Session) SetSurfaceTracker(t SurfaceTracker) {
	s.tracker = t
}

// SetLogger sets the session's logger.
func (s *Session) SetLogger(log zerolog.Logger) {
	s.log = log
}

// SetEventStore sets the optional event bridge.
func (s *Session) SetEventStore(store EventStore) {
	s.store = store
}

// SetDebugMode enables or disables debug mode. When enabled, every transition
// re-checks the ownership invariants and panics on a violation, and disposed
// nodes panic when reused in tree operations.
func (s *Session) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug.Store(enabled)
}

// globalDebug mirrors the most recently set Session debug flag so that node
// operations (which lack a Session pointer) can check it cheaply. Catalog
// loads build nodes on their own goroutines, so it is atomic.
var globalDebug atomic.Bool

// --- Accessors ---

// Root returns the scene container holding the preview and placed items.
func (s *Session) Root() *Node { return s.root }

// Catalog returns the session's catalog.
func (s *Session) Catalog() *Catalog { return s.catalog }

// State returns the state machine's state.
func (s *Session) State() State { return s.state }

// Preview returns the preview object, or nil.
func (s *Session) Preview() *Node { return s.preview }

// Placed returns the placed items in placement order. The returned slice MUST
// NOT be mutated by the caller.
func (s *Session) Placed() []*Node { return s.placed }

// PlacedByID returns the placed item with the given placement id.
func (s *Session) PlacedByID(id uint32) (*Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Active returns the object gesture input currently targets, or nil.
func (s *Session) Active() *Node {
	if s.active != nil && s.active.IsDisposed() {
		return nil
	}
	return s.active
}

// Pending reports the item whose model is still loading for the current
// selection.
func (s *Session) Pending() (ItemKey, bool) {
	return s.pendingKey, s.pending
}

// Armed reports whether surface tracking is wanted: an item is previewing or
// about to be.
func (s *Session) Armed() bool {
	return s.state == StatePreviewing || s.pending
}

// Reticle returns this frame's surface pose and whether it is valid.
func (s *Session) Reticle() (Pose, bool) {
	return s.reticle, s.reticleOK
}

// --- Transitions ---

// Select starts previewing the catalog item key. Any existing preview is
// disposed first. A cached template produces the preview immediately;
// otherwise the model loads in the background and the preview appears on the
// Update that receives it, unless a later Select or Cancel superseded it.
func (s *Session) Select(ctx context.Context, key ItemKey) error {
	if s.closed {
		return ErrSessionClosed
	}
	if _, ok := s.catalog.Item(key); !ok {
		s.log.Warn().Str("item", string(key)).Msg("select: unknown item")
		return fmt.Errorf("%w: %s", ErrUnknownItem, key)
	}

	s.discardPreview()
	s.seq++
	s.pending = false
	s.pendingKey = ""

	if t, ok := s.catalog.Cached(key); ok {
		s.beginPreview(key, t)
		return nil
	}

	s.pending = true
	s.pendingKey = key
	s.inflight++
	seq := s.seq
	catalog, results, done := s.catalog, s.results, s.done
	go func() {
		t, err := catalog.Template(ctx, key)
		select {
		case results <- loadResult{seq: seq, key: key, template: t, err: err}:
		case <-done:
		}
	}()
	s.log.Debug().Str("item", string(key)).Msg("select: loading")
	return nil
}

func (s *Session) beginPreview(key ItemKey, template *Node) {
	p := DeepClone(template)
	SetOpacity(p, s.cfg.PreviewOpacity)
	p.Visible = false
	s.preview = p
	s.root.AddChild(p)
	s.state = StatePreviewing
	if s.reticleOK {
		s.UpdatePreviewPose(s.reticle, true)
	}
	s.log.Debug().Str("item", string(key)).Msg("preview started")
	s.emit(eventFor(EventPreviewStarted, p))
	s.checkInvariants("Select")
}

// Update is the frame tick: it applies finished loads, polls the surface
// tracker while armed and advances the highlight fade.
func (s *Session) Update(dt float64) {
	s.drainResults()
	if s.tracker != nil {
		if s.Armed() {
			pose, ok := s.tracker.QuerySurfacePose()
			s.UpdatePreviewPose(pose, ok)
		} else {
			s.reticleOK = false
		}
	}
	if s.highlight != nil {
		s.highlight.Update(float32(dt))
		if s.highlight.Done {
			s.highlight = nil
		}
	}
}

// Flush blocks until every in-flight load has been received and applied.
// Returns ErrSessionClosed after Close.
func (s *Session) Flush(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	for s.inflight > 0 {
		select {
		case r := <-s.results:
			s.applyResult(r)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Session) drainResults() {
	for {
		select {
		case r := <-s.results:
			s.applyResult(r)
		default:
			return
		}
	}
}

func (s *Session) applyResult(r loadResult) {
	if s.closed {
		return
	}
	s.inflight--
	if r.seq != s.seq || !s.pending {
		s.log.Debug().Str("item", string(r.key)).Msg("dropping stale load result")
		return
	}
	s.pending = false
	s.pendingKey = ""
	if r.err != nil {
		s.log.Error().Err(r.err).Str("item", string(r.key)).Msg("load failed")
		s.emit(PlacementEvent{Type: EventLoadFailed, Item: r.key, Err: r.err})
		return
	}
	s.beginPreview(r.key, r.template)
}

// UpdatePreviewPose applies this frame's surface result. With a pose the
// preview moves there and is shown; without one it is hidden, never left at
// a stale position.
func (s *Session) UpdatePreviewPose(pose Pose, ok bool) {
	s.reticle = pose
	s.reticleOK = ok && s.Armed()
	if s.preview == nil {
		return
	}
	if !ok {
		s.preview.Visible = false
		return
	}
	s.preview.SetPose(pose)
	s.preview.Visible = true
}

// ConfirmPlace turns the preview into an opaque placed item at the surface
// pose sampled now, makes it active and returns it. Without a preview it
// returns ErrNotPreviewing; without a surface ErrNoActiveSurface, leaving the
// preview in place.
func (s *Session) ConfirmPlace() (*Node, error) {
	if s.state != StatePreviewing || s.preview == nil {
		s.log.Warn().Msg("confirm: nothing to place")
		return nil, ErrNotPreviewing
	}
	pose, ok := s.sampleSurface()
	if !ok {
		s.log.Warn().Str("item", string(s.preview.Item)).Msg("confirm: cannot place here, no surface detected")
		return nil, ErrNoActiveSurface
	}

	placed := DeepClone(s.preview)
	SetOpacity(placed, 1)
	placed.Visible = true
	placed.SetPose(pose)
	s.addPlaced(placed)

	s.discardPreview()
	s.reticleOK = false
	s.log.Info().Str("item", string(placed.Item)).Uint32("placement", placed.PlacementID).Msg("placed")
	s.emit(eventFor(EventPlaced, placed))
	s.setActive(placed)
	s.checkInvariants("ConfirmPlace")
	return placed, nil
}

func (s *Session) sampleSurface() (Pose, bool) {
	if s.tracker == nil {
		return s.reticle, s.reticleOK
	}
	pose, ok := s.tracker.QuerySurfacePose()
	s.UpdatePreviewPose(pose, ok)
	return pose, ok
}

func (s *Session) addPlaced(n *Node) {
	s.nextID++
	setPlacementID(n, s.nextID)
	s.placed = append(s.placed, n)
	s.byID[s.nextID] = n
	s.root.AddChild(n)
}

// Cancel discards the preview and any pending selection. Idempotent.
func (s *Session) Cancel() {
	hadWork := s.preview != nil || s.pending
	s.seq++
	s.pending = false
	s.pendingKey = ""
	s.discardPreview()
	s.reticleOK = false
	if hadWork {
		s.log.Debug().Msg("selection canceled")
		s.emit(PlacementEvent{Type: EventCanceled})
	}
	s.checkInvariants("Cancel")
}

func (s *Session) discardPreview() {
	s.state = StateIdle
	if s.preview == nil {
		return
	}
	if s.active == s.preview {
		s.setActive(nil)
	}
	s.preview.Dispose()
	s.preview = nil
}

// DeleteActive removes the active placed item from the scene and the
// collection. Reports false (a no-op) when nothing placed is active.
func (s *Session) DeleteActive() bool {
	target := s.resolvePlaced(s.Active())
	if target == nil {
		s.log.Debug().Msg("delete: no active placed item")
		return false
	}
	return s.Delete(target)
}

// Delete removes the placed item n belongs to. n may be any node of the
// placed subtree.
func (s *Session) Delete(n *Node) bool {
	target := s.resolvePlaced(n)
	if target == nil {
		return false
	}
	if s.active == target {
		s.setActive(nil)
	}
	for i, p := range s.placed {
		if p == target {
			copy(s.placed[i:], s.placed[i+1:])
			s.placed[len(s.placed)-1] = nil
			s.placed = s.placed[:len(s.placed)-1]
			break
		}
	}
	delete(s.byID, target.PlacementID)
	ev := eventFor(EventDeleted, target)
	target.Dispose()
	s.log.Info().Str("item", string(ev.Item)).Uint32("placement", ev.PlacementID).Msg("deleted")
	s.emit(ev)
	s.checkInvariants("Delete")
	return true
}

// SelectActive makes the placed item hit belongs to the active object. hit is
// typically a mesh node returned by the shell's raycast; it is resolved
// through its placement id.
func (s *Session) SelectActive(hit *Node) error {
	if hit == nil {
		return ErrNoActiveObject
	}
	target := s.resolvePlaced(hit)
	if target == nil {
		return ErrNotPlaced
	}
	s.setActive(target)
	return nil
}

// SelectActiveByID makes the placed item with the given id active.
func (s *Session) SelectActiveByID(id uint32) error {
	target, ok := s.byID[id]
	if !ok {
		return ErrNotPlaced
	}
	s.setActive(target)
	return nil
}

// ActivatePreview makes the preview the gesture target until it is placed or
// discarded. Position and rotation still follow the surface every frame;
// scale changes carry over into the placed item.
func (s *Session) ActivatePreview() error {
	if s.preview == nil {
		return ErrNotPreviewing
	}
	s.setActive(s.preview)
	return nil
}

// ClearActive deselects the active object.
func (s *Session) ClearActive() {
	s.setActive(nil)
}

// DuplicateActive places an independent copy of the active placed item at
// the same transform. The original stays active.
func (s *Session) DuplicateActive() (*Node, error) {
	target := s.resolvePlaced(s.Active())
	if target == nil {
		return nil, ErrNoActiveObject
	}
	c := DeepClone(target)
	SetOpacity(c, 1)
	s.addPlaced(c)
	s.emit(eventFor(EventPlaced, c))
	s.checkInvariants("DuplicateActive")
	return c, nil
}

// Close disposes the preview and every placed item and drops any load still
// in flight. The session cannot be used afterwards.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.Cancel()
	s.setActive(nil)
	for _, p := range s.placed {
		p.Dispose()
	}
	s.placed = nil
	s.byID = make(map[uint32]*Node)
	s.inflight = 0
	s.closed = true
	close(s.done)
}

func (s *Session) resolvePlaced(n *Node) *Node {
	if n == nil || n.PlacementID == 0 || n.IsDisposed() {
		return nil
	}
	return s.byID[n.PlacementID]
}

// setActive moves the active designation, restoring the previous item's
// opacity and fading in the highlight on the new one when enabled.
func (s *Session) setActive(n *Node) {
	if s.active == n {
		return
	}
	prev := s.active
	highlight := s.cfg.HighlightOpacity > 0
	s.highlight = nil
	if prev != nil && highlight && prev != s.preview && !prev.IsDisposed() {
		SetOpacity(prev, 1)
	}
	s.active = n
	if n == nil {
		if prev != nil {
			s.emit(eventFor(EventDeactivated, prev))
		}
		return
	}
	if highlight && n != s.preview {
		if s.cfg.HighlightDuration > 0 {
			s.highlight = TweenOpacity(n, s.cfg.HighlightOpacity, s.cfg.HighlightDuration, ease.OutQuad)
		} else {
			SetOpacity(n, s.cfg.HighlightOpacity)
		}
	}
	s.emit(eventFor(EventActivated, n))
}

func (s *Session) emit(ev PlacementEvent) {
	if s.store != nil {
		s.store.EmitEvent(ev)
	}
}
