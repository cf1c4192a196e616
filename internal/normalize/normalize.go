// Package normalize recentres and rescales a freshly loaded model so that its
// bounding box sits on the origin with a fixed largest dimension.
package normalize

import (
	"errors"
	"fmt"

	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/scene"
)

// ErrDegenerate is returned when the hierarchy has no vertices or its
// largest dimension is zero.
var ErrDegenerate = errors.New("normalize: degenerate geometry")

// minExtent guards the division; anything thinner is treated as flat.
const minExtent = 1e-12

// Result describes the transform applied to the root.
type Result struct {
	Bounds scene.AABB    // source box, root-local (before root transform)
	Center mathutil.Vec3 // centre of Bounds
	Scale  float64
}

// Bounds returns the union box of all descendant geometry expressed in the
// root's own local frame. The root's transform is not applied, so the box
// does not change when Normalize has already run.
func Bounds(root *scene.Node) scene.AABB {
	b := scene.EmptyAABB()
	if root == nil {
		return b
	}
	for _, n := range root.Meshes() {
		m := n.RelativeTo(root)
		for _, p := range n.Mesh.Positions {
			b = b.Extend(m.MulPoint(p))
		}
	}
	return b
}

// Normalize sets root's translation and uniform scale so that the world
// box of the hierarchy is centred at the origin and its largest dimension
// equals target. The root's rotation is left as is; with a non-identity
// rotation the centring still holds but axis extents are those of the
// rotated box.
func Normalize(root *scene.Node, target float64) (Result, error) {
	if target <= 0 {
		return Result{}, fmt.Errorf("normalize: target size %v must be positive", target)
	}
	b := Bounds(root)
	if b.IsEmpty() || b.MaxExtent() < minExtent {
		return Result{Bounds: b}, ErrDegenerate
	}

	center := b.Center()
	s := target / b.MaxExtent()

	root.Scale = mathutil.Vec3{s, s, s}
	root.Matrix = nil
	// World position of a local point p is T + R·(s·p); centre maps to origin.
	root.Translation = mathutil.QuatToMat3(root.Rotation).MulVec3(center.Scale(s)).Neg()

	return Result{Bounds: b, Center: center, Scale: s}, nil
}
