package ecs

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/furnish"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []furnish.PlacementEvent
	PlacementEventType.Subscribe(world, func(w donburi.World, e furnish.PlacementEvent) {
		received = append(received, e)
	})

	store.EmitEvent(furnish.PlacementEvent{
		Type:        furnish.EventPlaced,
		Item:        "chair-oak",
		PlacementID: 42,
		Position:    mgl64.Vec3{1, 0, 2},
	})
	store.EmitEvent(furnish.PlacementEvent{
		Type: furnish.EventManipulated,
		Mode: furnish.ModeScale,
	})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("events delivered before ProcessEvents: %d", len(received))
	}
	PlacementEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	e0 := received[0]
	if e0.Type != furnish.EventPlaced || e0.PlacementID != 42 || e0.Item != "chair-oak" {
		t.Errorf("event 0: %+v", e0)
	}
	if e0.Position != (mgl64.Vec3{1, 0, 2}) {
		t.Errorf("event 0 position: %v", e0.Position)
	}
	if e1 := received[1]; e1.Type != furnish.EventManipulated || e1.Mode != furnish.ModeScale {
		t.Errorf("event 1: %+v", e1)
	}
}

func TestDonburiStore_ImplementsEventStore(t *testing.T) {
	world := donburi.NewWorld()
	var store furnish.EventStore = NewDonburiStore(world)
	_ = store // compile-time interface check
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	PlacementEventType.Subscribe(world, func(w donburi.World, e furnish.PlacementEvent) {
		count1++
	})
	PlacementEventType.Subscribe(world, func(w donburi.World, e furnish.PlacementEvent) {
		count2++
	})

	store.EmitEvent(furnish.PlacementEvent{Type: furnish.EventCanceled})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestDonburiStore_SessionEvents(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var types []furnish.EventType
	PlacementEventType.Subscribe(world, func(w donburi.World, e furnish.PlacementEvent) {
		types = append(types, e.Type)
	})

	loader := furnish.LoaderFunc(func(ctx context.Context, path string) (*furnish.Node, error) {
		return furnish.NewMesh("box", furnish.NewBoxGeometry(1, 1, 1), nil), nil
	})
	cat := furnish.NewCatalog(loader)
	if err := cat.Register(furnish.CatalogItem{Category: "chair", Name: "oak", Height: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Template(context.Background(), "chair-oak"); err != nil {
		t.Fatal(err)
	}

	var surface furnish.StaticSurface
	surface.Set(furnish.NewPose(mgl64.Vec3{0, 0, -1}, 0))
	s := furnish.NewSession(cat, furnish.DefaultSessionConfig())
	s.SetSurfaceTracker(&surface)
	s.SetEventStore(store)

	if err := s.Select(context.Background(), "chair-oak"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ConfirmPlace(); err != nil {
		t.Fatal(err)
	}
	s.DeleteActive()
	events.ProcessAllEvents(world)

	want := []furnish.EventType{
		furnish.EventPreviewStarted,
		furnish.EventPlaced,
		furnish.EventActivated,
		furnish.EventDeactivated,
		furnish.EventDeleted,
	}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, types[i], want[i])
		}
	}
}
