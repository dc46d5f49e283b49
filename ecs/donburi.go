package ecs

import (
	"github.com/phanxgames/furnish"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// PlacementEventType is the Donburi event type for furnish placement events.
// Subscribe to this in your ECS systems to receive placement, selection, and gesture events.
var PlacementEventType = events.NewEventType[furnish.PlacementEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EventStore backed by a Donburi world.
// Placement events are published to PlacementEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) furnish.EventStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event furnish.PlacementEvent) {
	PlacementEventType.Publish(s.world, event)
}
