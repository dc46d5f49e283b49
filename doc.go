// Package furnish is the placement core of an AR furniture app.
//
// It owns the catalog of placeable items, the preview/confirm state machine
// that puts them on detected surfaces, and the gesture controller that lets
// users rotate, drag and scale what they placed. Rendering, camera passthrough
// and the AR runtime stay outside: the package consumes a [SurfaceTracker] for
// hit-test poses and a [ModelLoader] for geometry, and exposes a plain scene
// graph under [Session.Root] for any renderer to draw.
//
// # Quick start
//
//	catalog := furnish.NewCatalog(gltfload.New("assets"))
//	catalog.Register(furnish.CatalogItem{Category: "chair", Name: "oak", Height: 0.9})
//
//	session := furnish.NewSession(catalog, furnish.DefaultSessionConfig())
//	session.SetSurfaceTracker(tracker)
//	gestures := furnish.NewGestureController(session, furnish.DefaultGestureConfig())
//
// Each frame, call [Session.Update] and forward input to
// [GestureController.HandlePointer]:
//
//	session.Update(dt)
//	for _, ev := range sampler.Sample() {
//		gestures.HandlePointer(ev)
//	}
//
// # Scene graph
//
// Every object is a [Node]: groups carry children, mesh nodes carry a shared
// read-only [Geometry] and their own [Material]. Transforms compose as
// Translate * Rotate * Scale from the root down.
//
// Catalog templates are normalized with [Normalize] so their bounding-box
// height matches the item's real-world height and their center sits at the
// origin. Templates are never put in a scene; previews and placed items are
// [DeepClone]s with their own materials.
//
// # Placement
//
// A [Session] is either idle or previewing. [Session.Select] starts a preview
// (loading the model asynchronously if needed), [Session.ConfirmPlace] turns it
// into a placed item at the current surface pose, and [Session.Cancel] drops
// it. At most one object is active at a time; it is what gestures act on.
//
// Results of superseded loads are dropped, so the last selection always wins.
//
// # Gestures
//
// One contact rotates the active object about its up axis. Two contacts start
// undecided and resolve to scale or drag once the spread or the centroid moves
// past a threshold. Deltas are measured against the transform captured when
// the contact set last changed, so dropping from two fingers to one never
// makes the object jump.
//
// # Events
//
// Set an [EventStore] to receive [PlacementEvent]s for selections, placements,
// deletions and finished gestures. The ecs sub-package publishes them into a
// Donburi world.
//
// # Debug mode
//
// [Session.SetDebugMode] makes every operation verify the session invariants
// and panic on the first violation. [CheckInvariants] reports them as an error
// instead.
//
// # Scripted sessions
//
// [LoadScript] parses a JSON step list that drives a session and gesture
// controller frame by frame. It is used for automated tests and replaying
// recorded sessions.
package furnish
