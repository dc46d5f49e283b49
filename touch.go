package furnish

import "github.com/hajimehoshi/ebiten/v2"

// MouseContactID is the contact id used for the left mouse button when a
// TouchSampler includes the mouse.
const MouseContactID = -1

// TouchSampler polls ebiten's touch state once per tick and turns the
// difference from the previous tick into pointer events for a
// GestureController.
type TouchSampler struct {
	// IncludeMouse reports the held left mouse button as one more contact,
	// so desktop shells can rotate with the mouse.
	IncludeMouse bool

	prev []Contact
	ids  []ebiten.TouchID
}

// Sample reads the current touches (and mouse) and returns the events since
// the previous call. Call from ebiten's Update.
func (t *TouchSampler) Sample() []PointerEvent {
	t.ids = ebiten.AppendTouchIDs(t.ids[:0])
	cur := make([]Contact, 0, len(t.ids)+1)
	for _, id := range t.ids {
		x, y := ebiten.TouchPosition(id)
		cur = append(cur, Contact{ID: int(id), X: float64(x), Y: float64(y)})
	}
	if t.IncludeMouse && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		cur = append(cur, Contact{ID: MouseContactID, X: float64(mx), Y: float64(my)})
	}
	return t.Feed(cur)
}

// Feed records cur as the current contact set and returns the events since
// the previous set. Sample uses it; scripted input calls it directly.
func (t *TouchSampler) Feed(cur []Contact) []PointerEvent {
	events := DiffContacts(t.prev, cur)
	t.prev = append(t.prev[:0], cur...)
	return events
}

// Contacts returns the contact set recorded by the last Feed.
func (t *TouchSampler) Contacts() []Contact {
	return t.prev
}

// DiffContacts compares two contact snapshots. Lifted contacts produce a
// PointerUp carrying the survivors, new contacts a PointerDown carrying the
// full set, and otherwise any movement a PointerMove.
func DiffContacts(prev, cur []Contact) []PointerEvent {
	prevByID := make(map[int]Contact, len(prev))
	for _, p := range prev {
		prevByID[p.ID] = p
	}
	curIDs := make(map[int]bool, len(cur))
	for _, c := range cur {
		curIDs[c.ID] = true
	}

	lifted := false
	for _, p := range prev {
		if !curIDs[p.ID] {
			lifted = true
			break
		}
	}
	var kept []Contact
	moved := false
	for _, c := range cur {
		p, ok := prevByID[c.ID]
		if !ok {
			continue
		}
		kept = append(kept, c)
		if p.X != c.X || p.Y != c.Y {
			moved = true
		}
	}
	added := len(cur) > len(kept)

	var events []PointerEvent
	if lifted {
		events = append(events, PointerEvent{Phase: PointerUp, Contacts: kept})
	}
	if added {
		events = append(events, PointerEvent{Phase: PointerDown, Contacts: append([]Contact(nil), cur...)})
	}
	if !lifted && !added && moved {
		events = append(events, PointerEvent{Phase: PointerMove, Contacts: append([]Contact(nil), cur...)})
	}
	return events
}
