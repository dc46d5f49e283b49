package furnish

import (
	"errors"
	"fmt"
)

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("furnish debug: %s on disposed node %q", op, n.Name))
	}
}

func (s *Session) checkInvariants(op string) {
	if !s.debug {
		return
	}
	if err := CheckInvariants(s); err != nil {
		panic(fmt.Sprintf("furnish debug: after %s: %v", op, err))
	}
}

// CheckInvariants verifies the session's ownership rules and returns every
// violation found, joined:
//
//   - a preview exists exactly when the state is previewing;
//   - the preview is never also a placed item;
//   - no node or material is shared between the preview and placed items;
//   - every placed item is live, attached to the root and indexed by its id;
//   - the active object is nil, the preview or a placed item.
func CheckInvariants(s *Session) error {
	var errs []error

	if (s.state == StatePreviewing) != (s.preview != nil) {
		errs = append(errs, fmt.Errorf("state %s with preview=%v", s.state, s.preview != nil))
	}

	owner := make(map[*Node]string)
	materials := make(map[*Material]string)
	claim := func(root *Node, label string) {
		root.Walk(func(n *Node) bool {
			if prev, ok := owner[n]; ok {
				errs = append(errs, fmt.Errorf("node %q owned by both %s and %s", n.Name, prev, label))
			}
			owner[n] = label
			if n.Material != nil {
				if prev, ok := materials[n.Material]; ok && prev != label {
					errs = append(errs, fmt.Errorf("material of %q shared by %s and %s", n.Name, prev, label))
				}
				materials[n.Material] = label
			}
			return true
		})
	}

	if s.preview != nil {
		if s.preview.IsDisposed() {
			errs = append(errs, errors.New("preview is disposed"))
		}
		if s.preview.PlacementID != 0 {
			errs = append(errs, fmt.Errorf("preview carries placement id %d", s.preview.PlacementID))
		}
		claim(s.preview, "preview")
	}

	if len(s.byID) != len(s.placed) {
		errs = append(errs, fmt.Errorf("%d placed items but %d indexed", len(s.placed), len(s.byID)))
	}
	for _, p := range s.placed {
		label := fmt.Sprintf("placed#%d", p.PlacementID)
		switch {
		case p.IsDisposed():
			errs = append(errs, fmt.Errorf("%s is disposed", label))
			continue
		case p.Parent != s.root:
			errs = append(errs, fmt.Errorf("%s is not attached to the root", label))
		case s.byID[p.PlacementID] != p:
			errs = append(errs, fmt.Errorf("%s is not indexed by its id", label))
		}
		claim(p, label)
	}

	if a := s.active; a != nil && a != s.preview {
		if a.PlacementID == 0 || s.byID[a.PlacementID] != a {
			errs = append(errs, fmt.Errorf("active object %q is neither the preview nor placed", a.Name))
		}
	}

	return errors.Join(errs...)
}
