// Package gltfload loads glTF 2.0 and GLB models into furnish scene graphs.
//
// Only what placement needs is extracted: the node hierarchy with its
// transforms, triangle positions and indices for bounds and picking, and
// each primitive's base color and alpha for opacity. Textures, normals,
// skins and animations are ignored.
package gltfload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/furnish"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/rs/zerolog"
)

// ErrNoScene is returned for documents without any scene to instantiate.
var ErrNoScene = errors.New("gltfload: document has no scene")

// Loader resolves model paths against Root and decodes them with
// github.com/qmuntal/gltf. It is safe for concurrent use.
type Loader struct {
	Root string
	Log  zerolog.Logger
}

// New returns a Loader rooted at dir.
func New(dir string) *Loader {
	return &Loader{Root: dir, Log: zerolog.Nop()}
}

// LoadModel implements furnish.ModelLoader.
func (l *Loader) LoadModel(ctx context.Context, path string) (*furnish.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := filepath.Join(l.Root, filepath.FromSlash(path))
	doc, err := gltf.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", full, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", full, err)
	}
	l.Log.Debug().Str("path", full).Int("meshes", len(root.Meshes())).Msg("model decoded")
	return root, nil
}

// Build converts the document's default scene (or its first scene) into a
// node graph. Geometry is shared between nodes instancing the same mesh;
// every mesh node gets its own material.
func Build(doc *gltf.Document) (*furnish.Node, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	scene := doc.Scenes[0]
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		scene = doc.Scenes[*doc.Scene]
	}

	b := &builder{
		doc:       doc,
		geometry:  make(map[primKey]*furnish.Geometry),
		materials: make(map[int]*furnish.Material),
		visiting:  make(map[int]bool),
	}
	root := furnish.NewGroup(scene.Name)
	for _, idx := range scene.Nodes {
		n, err := b.node(int(idx))
		if err != nil {
			return nil, err
		}
		root.AddChild(n)
	}
	return root, nil
}

type primKey struct {
	mesh, prim int
}

type builder struct {
	doc       *gltf.Document
	geometry  map[primKey]*furnish.Geometry
	materials map[int]*furnish.Material
	visiting  map[int]bool
}

func (b *builder) node(idx int) (*furnish.Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", idx)
	}
	if b.visiting[idx] {
		return nil, fmt.Errorf("node %d is its own ancestor", idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	n := furnish.NewGroup(src.Name)
	applyTransform(n, src)

	if src.Mesh != nil {
		if err := b.mesh(n, int(*src.Mesh)); err != nil {
			return nil, err
		}
	}
	for _, c := range src.Children {
		child, err := b.node(int(c))
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

// applyTransform copies the node's TRS, or decomposes its matrix when one is
// given. All-zero rotation and scale are treated as absent.
func applyTransform(n *furnish.Node, src *gltf.Node) {
	var m [16]float64
	isIdent, isZero := true, true
	for i, v := range src.Matrix {
		m[i] = float64(v)
		want := 0.0
		if i%5 == 0 {
			want = 1
		}
		if m[i] != want {
			isIdent = false
		}
		if m[i] != 0 {
			isZero = false
		}
	}
	if !isIdent && !isZero {
		n.Position, n.Rotation, n.Scale = furnish.DecomposeMatrix(m)
		return
	}

	t, r, s := src.Translation, src.Rotation, src.Scale
	n.Position = mgl64.Vec3{float64(t[0]), float64(t[1]), float64(t[2])}
	q := mgl64.Quat{W: float64(r[3]), V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])}}
	if q.Len() > 0 {
		n.Rotation = q.Normalize()
	}
	scale := mgl64.Vec3{float64(s[0]), float64(s[1]), float64(s[2])}
	if scale != (mgl64.Vec3{}) {
		n.Scale = scale
	}
}

// mesh adds one child mesh node per triangle primitive of mesh idx.
func (b *builder) mesh(parent *furnish.Node, idx int) error {
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", idx)
	}
	src := b.doc.Meshes[idx]
	for pi, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		geom, err := b.primitive(primKey{idx, pi}, prim)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", src.Name, pi, err)
		}
		if geom == nil {
			continue
		}
		mat := furnish.NewMaterial(src.Name)
		if prim.Material != nil {
			mat = b.material(int(*prim.Material)).Clone()
		}
		parent.AddChild(furnish.NewMesh(src.Name, geom, mat))
	}
	return nil
}

func (b *builder) primitive(key primKey, prim *gltf.Primitive) (*furnish.Geometry, error) {
	if g, ok := b.geometry[key]; ok {
		return g, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	if int(posIdx) >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("position accessor %d out of range", posIdx)
	}
	raw, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	positions := make([]mgl64.Vec3, len(raw))
	for i, p := range raw {
		positions[i] = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}

	var indices []uint32
	if prim.Indices != nil {
		if int(*prim.Indices) >= len(b.doc.Accessors) {
			return nil, fmt.Errorf("index accessor %d out of range", *prim.Indices)
		}
		indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	}

	g := furnish.NewGeometry(positions, indices)
	b.geometry[key] = g
	return g, nil
}

// material converts material idx once; callers clone the result.
func (b *builder) material(idx int) *furnish.Material {
	if m, ok := b.materials[idx]; ok {
		return m
	}
	m := furnish.NewMaterial("")
	if idx >= 0 && idx < len(b.doc.Materials) {
		src := b.doc.Materials[idx]
		m.Name = src.Name
		if pbr := src.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
			f := pbr.BaseColorFactor
			m.Color = furnish.Color{R: float64(f[0]), G: float64(f[1]), B: float64(f[2]), A: 1}
			if src.AlphaMode == gltf.AlphaBlend {
				m.Opacity = float64(f[3])
				m.Transparent = m.Opacity < 1
			}
		}
	}
	b.materials[idx] = m
	return m
}
