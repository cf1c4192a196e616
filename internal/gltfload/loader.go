// Package gltfload turns a glTF 2.0 asset into a scene graph.
package gltfload

import (
	"errors"
	"fmt"
	"image"
	"net/url"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/texture"
)

// RootName is the name of the synthetic node every loaded scene hangs from.
const RootName = "Scene"

// ErrNoGeometry is returned when the asset has no triangle primitives.
var ErrNoGeometry = errors.New("gltf: no triangle geometry")

// Load opens a .gltf or .glb file and builds its default scene.
func Load(path string) (*scene.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf: open %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	root, err := Build(doc, texture.NewCache(dir, texture.BuildIndex(dir)))
	if err != nil {
		return nil, fmt.Errorf("gltf: %s: %w", path, err)
	}
	return root, nil
}

type builder struct {
	doc       *gltf.Document
	textures  texture.Resolver
	materials map[int]*scene.Material
	images    map[int]*image.NRGBA
	visiting  map[int]bool
}

// Build converts an already-decoded document. textures resolves external
// image URIs and may be nil.
func Build(doc *gltf.Document, textures texture.Resolver) (*scene.Node, error) {
	b := &builder{
		doc:       doc,
		textures:  textures,
		materials: make(map[int]*scene.Material),
		images:    make(map[int]*image.NRGBA),
		visiting:  make(map[int]bool),
	}

	root := scene.NewNode(RootName)
	for _, idx := range b.rootNodes() {
		n, err := b.node(idx)
		if err != nil {
			return nil, err
		}
		if n != nil {
			root.Add(n)
		}
	}

	if root.Stats().Triangles == 0 {
		return nil, ErrNoGeometry
	}
	return root, nil
}

// rootNodes returns the default scene's nodes, falling back to the first
// scene and then to every parentless node.
func (b *builder) rootNodes() []int {
	doc := b.doc
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (b *builder) node(idx int) (*scene.Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", idx)
	}
	// A node reachable from itself would recurse forever.
	if b.visiting[idx] {
		return nil, fmt.Errorf("node %d: cycle in hierarchy", idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	n := scene.NewNode(src.Name)
	applyTransform(n, src)

	if src.Mesh != nil {
		if err := b.attachMesh(n, *src.Mesh); err != nil {
			return nil, fmt.Errorf("node %d (%q): %w", idx, src.Name, err)
		}
	}

	for _, c := range src.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func applyTransform(n *scene.Node, src *gltf.Node) {
	if m := src.Matrix; m != ([16]float64{}) && m != identityColumnMajor {
		mat := mathutil.FromColumnMajor(m)
		n.Matrix = &mat
		return
	}
	n.Translation = mathutil.Vec3{src.Translation[0], src.Translation[1], src.Translation[2]}
	if r := src.Rotation; r != ([4]float64{}) {
		n.Rotation = mathutil.Quat{r[0], r[1], r[2], r[3]}.Normalize()
	}
	if s := src.Scale; s != ([3]float64{}) {
		n.Scale = mathutil.Vec3{s[0], s[1], s[2]}
	}
}

var identityColumnMajor = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// attachMesh puts a single-primitive mesh on n directly; extra primitives
// become children carrying n's name so a pick on any of them reports the
// glTF node name.
func (b *builder) attachMesh(n *scene.Node, meshIdx int) error {
	if meshIdx < 0 || meshIdx >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", meshIdx)
	}
	src := b.doc.Meshes[meshIdx]
	if n.Name == "" {
		n.Name = src.Name
	}

	first := true
	for pi, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		mesh, err := b.primitive(prim)
		if err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", meshIdx, pi, err)
		}
		if mesh == nil {
			continue
		}

		target := n
		if !first {
			target = scene.NewNode(n.Name)
			n.Add(target)
		}
		target.Mesh = mesh
		target.Material = b.material(prim.Material)
		first = false
	}
	return nil
}

func (b *builder) primitive(prim *gltf.Primitive) (*scene.Mesh, error) {
	doc := b.doc
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	m := &scene.Mesh{Positions: make([]mathutil.Vec3, len(positions))}
	for i, p := range positions {
		m.Positions[i] = mathutil.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil); err == nil && len(normals) == len(positions) {
			m.Normals = make([]mathutil.Vec3, len(normals))
			for i, v := range normals {
				m.Normals[i] = mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
			}
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err == nil && len(uvs) == len(positions) {
			m.UVs = uvs
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for k := range indices {
			indices[k] = uint32(k)
		}
	}

	m.Tris = make([][3]int, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
		if a >= len(positions) || b >= len(positions) || c >= len(positions) {
			continue
		}
		m.Tris = append(m.Tris, [3]int{a, b, c})
	}
	if len(m.Tris) == 0 {
		return nil, nil
	}
	return m, nil
}

// material converts (and memoises) a glTF material. Every node gets its
// own copy later when highlighted; here identical indices share one value.
func (b *builder) material(idx *int) *scene.Material {
	if idx == nil || *idx < 0 || *idx >= len(b.doc.Materials) {
		return scene.DefaultMaterial()
	}
	if m, ok := b.materials[*idx]; ok {
		return m
	}

	src := b.doc.Materials[*idx]
	m := &scene.Material{
		Name:      src.Name,
		BaseColor: [4]float64{1, 1, 1, 1},
		Emissive:  mathutil.Vec3{src.EmissiveFactor[0], src.EmissiveFactor[1], src.EmissiveFactor[2]},
	}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			m.BaseColor = *pbr.BaseColorFactor
		}
		if pbr.BaseColorTexture != nil {
			m.Texture = b.texture(pbr.BaseColorTexture.Index)
		}
	}
	b.materials[*idx] = m
	return m
}

func (b *builder) texture(texIdx int) *image.NRGBA {
	doc := b.doc
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return nil
	}
	imgIdx := *doc.Textures[texIdx].Source
	if img, ok := b.images[imgIdx]; ok {
		return img
	}
	if imgIdx < 0 || imgIdx >= len(doc.Images) {
		return nil
	}

	img := b.decodeImage(doc.Images[imgIdx])
	b.images[imgIdx] = img
	return img
}

func (b *builder) decodeImage(src *gltf.Image) *image.NRGBA {
	switch {
	case src.BufferView != nil:
		data, ok := bufferViewData(b.doc, *src.BufferView)
		if !ok {
			return nil
		}
		img, _ := texture.Decode(data)
		return img
	case src.IsEmbeddedResource():
		data, err := src.MarshalData()
		if err != nil {
			return nil
		}
		img, _ := texture.Decode(data)
		return img
	case src.URI != "" && b.textures != nil:
		ref, err := url.PathUnescape(src.URI)
		if err != nil {
			ref = src.URI
		}
		return b.textures.Resolve(ref)
	}
	return nil
}

func bufferViewData(doc *gltf.Document, idx int) ([]byte, bool) {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, false
	}
	bv := doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, false
	}
	data := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(data) {
		return nil, false
	}
	return data[bv.ByteOffset:end], true
}
