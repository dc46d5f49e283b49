package furnish

import "github.com/go-gl/mathgl/mgl64"

// EventType identifies a kind of placement event.
type EventType uint8

const (
	EventPreviewStarted EventType = iota // a preview was created for a selected item
	EventLoadFailed                      // a selected item's model failed to load
	EventCanceled                        // the preview or pending selection was discarded
	EventPlaced                          // a placed item was added (confirm or duplicate)
	EventDeleted                         // a placed item was removed
	EventActivated                       // an object became the gesture target
	EventDeactivated                     // the gesture target was cleared
	EventManipulated                     // a gesture on the active object ended
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventPreviewStarted:
		return "preview-started"
	case EventLoadFailed:
		return "load-failed"
	case EventCanceled:
		return "canceled"
	case EventPlaced:
		return "placed"
	case EventDeleted:
		return "deleted"
	case EventActivated:
		return "activated"
	case EventDeactivated:
		return "deactivated"
	case EventManipulated:
		return "manipulated"
	default:
		return "unknown"
	}
}

// PlacementEvent carries the state of the object an event refers to.
type PlacementEvent struct {
	Type        EventType
	Item        ItemKey
	PlacementID uint32 // zero for previews and failed loads
	Position    mgl64.Vec3
	Rotation    mgl64.Quat
	Scale       mgl64.Vec3
	Mode        GestureMode // valid for EventManipulated
	Err         error       // valid for EventLoadFailed
}

// EventStore receives placement events, for example an ECS bridge.
type EventStore interface {
	EmitEvent(event PlacementEvent)
}

// eventFor fills the transform fields of an event from n.
func eventFor(t EventType, n *Node) PlacementEvent {
	ev := PlacementEvent{Type: t}
	if n == nil {
		return ev
	}
	ev.Item = n.Item
	ev.PlacementID = n.PlacementID
	ev.Position = n.Position
	ev.Rotation = n.Rotation
	ev.Scale = n.Scale
	return ev
}
