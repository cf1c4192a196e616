package scene

import "pcb-viewer/internal/mathutil"

// NewBox builds an axis-aligned box mesh node spanning min..max in local
// space, twelve triangles with outward winding.
func NewBox(name string, min, max mathutil.Vec3) *Node {
	p := []mathutil.Vec3{
		{min[0], min[1], min[2]}, {max[0], min[1], min[2]},
		{max[0], max[1], min[2]}, {min[0], max[1], min[2]},
		{min[0], min[1], max[2]}, {max[0], min[1], max[2]},
		{max[0], max[1], max[2]}, {min[0], max[1], max[2]},
	}
	tris := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // -Z
		{4, 5, 6}, {4, 6, 7}, // +Z
		{0, 1, 5}, {0, 5, 4}, // -Y
		{3, 7, 6}, {3, 6, 2}, // +Y
		{0, 4, 7}, {0, 7, 3}, // -X
		{1, 2, 6}, {1, 6, 5}, // +X
	}
	n := NewNode(name)
	n.Mesh = &Mesh{Positions: p, Tris: tris}
	n.Material = DefaultMaterial()
	return n
}
