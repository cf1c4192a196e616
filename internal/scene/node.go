// Package scene holds the in-memory node hierarchy a loaded model is turned
// into. The viewer only ever mutates the root's Translation/Scale and each
// material's Emissive colour; everything else is read-only after loading.
package scene

import (
	"image"

	"pcb-viewer/internal/mathutil"
)

// Mesh holds triangle geometry in node-local space.
type Mesh struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3 // optional, same length as Positions
	UVs       [][2]float32    // optional, same length as Positions
	Tris      [][3]int
}

// Bounds returns the local-space box of all positions.
func (m *Mesh) Bounds() AABB {
	b := EmptyAABB()
	for _, p := range m.Positions {
		b = b.Extend(p)
	}
	return b
}

// Material is the subset of PBR state the viewer renders.
type Material struct {
	Name      string
	BaseColor [4]float64 // linear RGBA factor
	Emissive  mathutil.Vec3
	Texture   *image.NRGBA // base colour texture, may be nil
}

// DefaultMaterial is the grey used when a primitive has none.
func DefaultMaterial() *Material {
	return &Material{Name: "default", BaseColor: [4]float64{0.63, 0.63, 0.67, 1}}
}

// Clone returns a shallow copy; the texture is shared.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// Node is one element of the scene graph.
type Node struct {
	Name        string
	Translation mathutil.Vec3
	Rotation    mathutil.Quat
	Scale       mathutil.Vec3

	// Matrix, when set, replaces the TRS fields as the local transform.
	Matrix *mathutil.Mat4

	Mesh     *Mesh
	Material *Material

	Parent   *Node
	Children []*Node
}

// NewNode returns a node with identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mathutil.QuatIdentity(),
		Scale:    mathutil.Vec3{1, 1, 1},
	}
}

// Add attaches children and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Local returns the node's transform relative to its parent.
func (n *Node) Local() mathutil.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	return mathutil.FromTRS(n.Translation, n.Rotation, n.Scale)
}

// World returns the accumulated transform from the root of the graph.
func (n *Node) World() mathutil.Mat4 {
	m := n.Local()
	for p := n.Parent; p != nil; p = p.Parent {
		m = mathutil.Mat4Mul(p.Local(), m)
	}
	return m
}

// RelativeTo returns n's transform into ancestor's local frame, excluding
// ancestor's own transform. If ancestor is not on the parent chain the
// full world matrix is returned.
func (n *Node) RelativeTo(ancestor *Node) mathutil.Mat4 {
	if n == ancestor {
		return mathutil.Mat4Identity()
	}
	m := n.Local()
	for p := n.Parent; p != nil && p != ancestor; p = p.Parent {
		m = mathutil.Mat4Mul(p.Local(), m)
	}
	return m
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Meshes returns every node in the subtree that carries geometry.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Mesh != nil {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Find returns the first node named name, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// WorldBounds returns the union of all mesh boxes in world space.
func (n *Node) WorldBounds() AABB {
	b := EmptyAABB()
	for _, m := range n.Meshes() {
		w := m.World()
		for _, p := range m.Mesh.Positions {
			b = b.Extend(w.MulPoint(p))
		}
	}
	return b
}

// Stats summarises the subtree for logging.
type Stats struct {
	Nodes     int
	Meshes    int
	Triangles int
	Vertices  int
}

func (n *Node) Stats() Stats {
	var s Stats
	n.Walk(func(c *Node) bool {
		s.Nodes++
		if c.Mesh != nil {
			s.Meshes++
			s.Triangles += len(c.Mesh.Tris)
			s.Vertices += len(c.Mesh.Positions)
		}
		return true
	})
	return s
}
