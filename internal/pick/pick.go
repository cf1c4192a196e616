// Package pick finds the mesh under the pointer by casting a ray through
// the scene graph.
package pick

import (
	"math"

	"pcb-viewer/internal/camera"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/scene"
)

// Cursor hints reported alongside a selection.
const (
	CursorPointer = "pointer"
	CursorDefault = "default"
)

// tMin rejects self-intersections at the ray origin.
const tMin = 1e-7

// Hit describes the nearest intersection along a ray.
type Hit struct {
	Node  *scene.Node
	Name  string
	T     float64 // ray parameter; Direction is unit length so this is distance
	Point mathutil.Vec3
}

// Pick intersects ray with every mesh below root and returns the nearest hit.
// A nil root or a ray that misses all geometry yields ok == false.
func Pick(root *scene.Node, ray camera.Ray) (hit Hit, ok bool) {
	if root == nil {
		return Hit{}, false
	}
	best := math.Inf(1)

	for _, n := range root.Meshes() {
		w := n.World()

		// Cheap rejection on the world box of this mesh
		box := n.Mesh.Bounds().Transform(w)
		if !box.Hit(ray.Origin, ray.Direction, tMin, best) {
			continue
		}

		pos := n.Mesh.Positions
		for _, tri := range n.Mesh.Tris {
			if tri[0] >= len(pos) || tri[1] >= len(pos) || tri[2] >= len(pos) {
				continue
			}
			v0 := w.MulPoint(pos[tri[0]])
			v1 := w.MulPoint(pos[tri[1]])
			v2 := w.MulPoint(pos[tri[2]])
			if t, ok := IntersectTriangle(ray, v0, v1, v2); ok && t < best {
				best = t
				hit = Hit{Node: n, Name: n.Name, T: t}
			}
		}
	}

	if hit.Node == nil {
		return Hit{}, false
	}
	hit.Point = ray.At(hit.T)
	return hit, true
}

// IntersectTriangle is the Möller–Trumbore test. Both faces count as hits.
func IntersectTriangle(ray camera.Ray, v0, v1, v2 mathutil.Vec3) (float64, bool) {
	const epsilon = 1e-12

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false // parallel to the triangle plane
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	if t <= tMin {
		return 0, false
	}
	return t, true
}

// Cursor returns the pointer hint for a hover state.
func Cursor(hovered bool) string {
	if hovered {
		return CursorPointer
	}
	return CursorDefault
}

// Selection is what the UI layer is told each frame.
type Selection struct {
	Part     string `json:"part"`
	Selected bool   `json:"selected"`
	Cursor   string `json:"cursor"`
}

// NoSelection is reported when the pointer is over empty space.
var NoSelection = Selection{Cursor: CursorDefault}

// Select converts a pick result into a Selection.
func Select(hit Hit, ok bool) Selection {
	if !ok {
		return NoSelection
	}
	return Selection{Part: hit.Name, Selected: true, Cursor: CursorPointer}
}
