package furnish

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// --- Constructor defaults ---

func TestNewGroupDefaults(t *testing.T) {
	n := NewGroup("test")
	assertNodeDefaults(t, n, "test", NodeTypeGroup)
	if n.Geometry != nil || n.Material != nil {
		t.Error("group should carry no geometry or material")
	}
}

func TestNewMeshDefaults(t *testing.T) {
	geom := NewBoxGeometry(1, 1, 1)
	n := NewMesh("mesh", geom, nil)
	assertNodeDefaults(t, n, "mesh", NodeTypeMesh)
	if n.Geometry != geom {
		t.Error("Geometry not set")
	}
	if n.Material == nil || n.Material.Opacity != 1 || n.Material.Transparent {
		t.Errorf("Material = %+v, want opaque default", n.Material)
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string, typ NodeType) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Type != typ {
		t.Errorf("Type = %d, want %d", n.Type, typ)
	}
	if n.Scale != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("Scale = %v, want (1, 1, 1)", n.Scale)
	}
	if n.Rotation != mgl64.QuatIdent() {
		t.Errorf("Rotation = %v, want identity", n.Rotation)
	}
	if !n.Visible {
		t.Error("Visible should be true")
	}
	if n.PlacementID != 0 || n.Item != "" {
		t.Error("new node should carry no identity")
	}
}

// --- Unique IDs ---

func TestUniqueIDs(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	c := NewMesh("c", nil, nil)
	if a.ID == b.ID || b.ID == c.ID || a.ID == c.ID {
		t.Errorf("IDs should be unique: %d, %d, %d", a.ID, b.ID, c.ID)
	}
}

// --- AddChild ---

func TestAddChildBasic(t *testing.T) {
	parent := NewGroup("parent")
	child := NewGroup("child")
	parent.AddChild(child)

	if child.Parent != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 {
		t.Errorf("NumChildren = %d, want 1", parent.NumChildren())
	}
	if parent.Children()[0] != child {
		t.Error("Children()[0] should be child")
	}
}

func TestAddChildReparent(t *testing.T) {
	p1 := NewGroup("p1")
	p2 := NewGroup("p2")
	child := NewGroup("child")

	p1.AddChild(child)
	p2.AddChild(child)
	if p1.NumChildren() != 0 {
		t.Error("p1 should have 0 children after reparent")
	}
	if p2.NumChildren() != 1 {
		t.Error("p2 should have 1 child")
	}
	if child.Parent != p2 {
		t.Error("child.Parent should be p2")
	}
}

func TestAddChildCyclePanic(t *testing.T) {
	parent := NewGroup("parent")
	child := NewGroup("child")
	grandchild := NewGroup("grandchild")
	parent.AddChild(child)
	child.AddChild(grandchild)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for cycle, got none")
		}
	}()
	grandchild.AddChild(parent)
}

func TestAddChildSelfPanic(t *testing.T) {
	n := NewGroup("self")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for self-add, got none")
		}
	}()
	n.AddChild(n)
}

func TestAddChildNilPanic(t *testing.T) {
	n := NewGroup("n")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for nil child, got none")
		}
	}()
	n.AddChild(nil)
}

// --- RemoveChild ---

func TestRemoveChild(t *testing.T) {
	parent := NewGroup("parent")
	a := NewGroup("a")
	b := NewGroup("b")
	parent.AddChild(a)
	parent.AddChild(b)

	parent.RemoveChild(a)
	if a.Parent != nil {
		t.Error("removed child should have no parent")
	}
	if parent.NumChildren() != 1 || parent.Children()[0] != b {
		t.Error("remaining child should be b")
	}
}

func TestRemoveChildWrongParentPanic(t *testing.T) {
	p1 := NewGroup("p1")
	p2 := NewGroup("p2")
	child := NewGroup("child")
	p1.AddChild(child)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic removing from wrong parent, got none")
		}
	}()
	p2.RemoveChild(child)
}

func TestRemoveFromParentNoOp(t *testing.T) {
	n := NewGroup("orphan")
	n.RemoveFromParent() // should not panic
	if n.Parent != nil {
		t.Error("orphan should stay parentless")
	}
}

// --- Walk / Meshes ---

func TestWalkOrderAndSkip(t *testing.T) {
	root := NewGroup("root")
	a := NewGroup("a")
	a1 := NewMesh("a1", nil, nil)
	b := NewMesh("b", nil, nil)
	root.AddChild(a)
	a.AddChild(a1)
	root.AddChild(b)

	var names []string
	root.Walk(func(n *Node) bool {
		names = append(names, n.Name)
		return n != a
	})
	want := []string{"root", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("visit %d = %q, want %q", i, names[i], want[i])
		}
	}

	if meshes := root.Meshes(); len(meshes) != 2 || meshes[0] != a1 || meshes[1] != b {
		t.Errorf("Meshes = %v", meshes)
	}
}

// --- Dispose ---

func TestDispose(t *testing.T) {
	root := NewGroup("root")
	parent := NewGroup("parent")
	child := NewMesh("child", NewBoxGeometry(1, 1, 1), nil)
	root.AddChild(parent)
	parent.AddChild(child)

	geom := child.Geometry
	parent.Dispose()

	if !parent.IsDisposed() || !child.IsDisposed() {
		t.Error("subtree should be disposed")
	}
	if parent.ID != 0 || child.ID != 0 {
		t.Error("disposed nodes should have ID = 0")
	}
	if root.NumChildren() != 0 {
		t.Error("root should have 0 children after dispose")
	}
	if child.Material != nil || child.Geometry != nil || child.Visible {
		t.Error("disposed mesh should drop its resources and hide")
	}
	if geom.IsEmpty() {
		t.Error("shared geometry must not be cleared by dispose")
	}
}

func TestDisposeIdempotent(t *testing.T) {
	n := NewGroup("n")
	n.Dispose()
	n.Dispose() // should not panic
	if !n.IsDisposed() {
		t.Error("should still be disposed")
	}
}
