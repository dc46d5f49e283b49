// Package ecs provides ECS adapters for furnish's placement events.
//
// The primary adapter is [NewDonburiStore], which bridges placement events
// (previews, placements, deletions, activation changes, finished gestures)
// into a [Donburi] world as typed events. Subscribe to [PlacementEventType]
// in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	session.SetEventStore(store)
//	gestures.SetEventStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
