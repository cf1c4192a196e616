package scene

import (
	"math"

	"pcb-viewer/internal/mathutil"
)

// AABB is an axis-aligned bounding box. The zero-extent sentinel returned by
// EmptyAABB has Min=+Inf and Max=-Inf so that Extend works without a seed.
type AABB struct {
	Min mathutil.Vec3
	Max mathutil.Vec3
}

// EmptyAABB returns a box containing nothing.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mathutil.Vec3{inf, inf, inf},
		Max: mathutil.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether no point has been added.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to contain p.
func (b AABB) Extend(p mathutil.Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns a box bounding both.
func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

func (b AABB) Center() mathutil.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent along each axis (zero for an empty box).
func (b AABB) Size() mathutil.Vec3 {
	if b.IsEmpty() {
		return mathutil.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// MaxExtent returns the largest of the three dimensions.
func (b AABB) MaxExtent() float64 {
	s := b.Size()
	return math.Max(s[0], math.Max(s[1], s[2]))
}

// Transform returns the box bounding all eight transformed corners.
func (b AABB) Transform(m mathutil.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		c := mathutil.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		out = out.Extend(m.MulPoint(c))
	}
	return out
}

// Hit tests a ray against the box using the slab method.
func (b AABB) Hit(origin, dir mathutil.Vec3, tMin, tMax float64) bool {
	if b.IsEmpty() {
		return false
	}
	for axis := 0; axis < 3; axis++ {
		min, max := b.Min[axis], b.Max[axis]
		o, d := origin[axis], dir[axis]

		// Parallel to this slab
		if math.Abs(d) < 1e-12 {
			if o < min || o > max {
				return false
			}
			continue
		}

		inv := 1.0 / d
		t1 := (min - o) * inv
		t2 := (max - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}
