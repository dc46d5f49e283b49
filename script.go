package furnish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// scriptStep represents a single action in a placement script.
type scriptStep struct {
	Action  string       `json:"action"`
	Item    string       `json:"item,omitempty"`
	X       float64      `json:"x,omitempty"`
	Y       float64      `json:"y,omitempty"`
	Z       float64      `json:"z,omitempty"`
	Yaw     float64      `json:"yaw,omitempty"`
	ID      uint32       `json:"id,omitempty"`
	Touches [][2]float64 `json:"touches,omitempty"`
	Frames  int          `json:"frames,omitempty"`
}

// script is the top-level JSON structure of a placement script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"select": true, "surface": true, "lose-surface": true,
	"confirm": true, "cancel": true, "delete": true, "duplicate": true,
	"activate": true, "activate-preview": true, "deactivate": true,
	"touch": true, "release": true,
	"select-start": true, "select-end": true,
	"squeeze-start": true, "squeeze-move": true, "squeeze-end": true,
	"wait": true,
}

// ScriptRunner plays a placement script one step per frame against a
// Session and a GestureController. It is also the session's SurfaceTracker:
// "surface" and "lose-surface" steps drive what the session detects.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool

	surface StaticSurface
	touches TouchSampler
	errs    []error
}

// LoadScript parses a JSON placement script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("parse placement script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse placement script: no steps")
	}
	for i, st := range sc.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse placement script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// QuerySurfacePose reports the scripted surface.
func (r *ScriptRunner) QuerySurfacePose() (Pose, bool) {
	return r.surface.QuerySurfacePose()
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Errors returns the errors steps produced, in order. Step errors are the
// session's ordinary no-op diagnostics and never stop the script.
func (r *ScriptRunner) Errors() []error {
	return r.errs
}

// Step advances the script by one frame. While the session has a load
// pending the runner waits.
func (r *ScriptRunner) Step(ctx context.Context, s *Session, g *GestureController) {
	if r.done {
		return
	}
	if _, pending := s.Pending(); pending {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	i := r.cursor
	st := r.steps[i]
	r.cursor++
	if err := r.exec(ctx, s, g, st); err != nil {
		r.errs = append(r.errs, fmt.Errorf("step %d (%s): %w", i, st.Action, err))
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

// Run plays the whole script headless: one Step and one Update per frame,
// blocking on loads instead of spinning.
func (r *ScriptRunner) Run(ctx context.Context, s *Session, g *GestureController, dt float64) error {
	for !r.done {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Step(ctx, s, g)
		if _, pending := s.Pending(); pending {
			if err := s.Flush(ctx); err != nil {
				return err
			}
		}
		s.Update(dt)
	}
	return nil
}

func (r *ScriptRunner) exec(ctx context.Context, s *Session, g *GestureController, st scriptStep) error {
	point := mgl64.Vec3{st.X, st.Y, st.Z}
	switch st.Action {
	case "select":
		return s.Select(ctx, ItemKey(st.Item))
	case "surface":
		r.surface.Set(NewPose(point, st.Yaw))
	case "lose-surface":
		r.surface.Lose()
	case "confirm":
		_, err := s.ConfirmPlace()
		return err
	case "cancel":
		s.Cancel()
	case "delete":
		if !s.DeleteActive() {
			return ErrNoActiveObject
		}
	case "duplicate":
		_, err := s.DuplicateActive()
		return err
	case "activate":
		return s.SelectActiveByID(st.ID)
	case "activate-preview":
		return s.ActivatePreview()
	case "deactivate":
		s.ClearActive()
	case "touch":
		contacts := make([]Contact, len(st.Touches))
		for i, t := range st.Touches {
			contacts[i] = Contact{ID: i, X: t[0], Y: t[1]}
		}
		r.feed(g, contacts)
	case "release":
		r.feed(g, nil)
	case "select-start":
		g.HandleController(ControllerEvent{Phase: ControllerSelectStart, Point: point})
	case "select-end":
		g.HandleController(ControllerEvent{Phase: ControllerSelectEnd, Point: point})
	case "squeeze-start":
		g.HandleController(ControllerEvent{Phase: ControllerSqueezeStart, Point: point})
	case "squeeze-move":
		g.HandleController(ControllerEvent{Phase: ControllerSqueezeMove, Point: point})
	case "squeeze-end":
		g.HandleController(ControllerEvent{Phase: ControllerSqueezeEnd, Point: point})
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}
	return nil
}

func (r *ScriptRunner) feed(g *GestureController, contacts []Contact) {
	for _, ev := range r.touches.Feed(contacts) {
		g.HandlePointer(ev)
	}
}
