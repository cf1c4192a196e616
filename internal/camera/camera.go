// Package camera implements an orbit camera: rotate around a target, pan the
// target in the view plane, dolly in and out. Rays for picking come from
// unprojecting normalized device coordinates through the same matrices the
// rasterizer uses.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"pcb-viewer/internal/mathutil"
)

// Limits bounds the orbit. Polar is measured from +Y (0 = looking straight
// down, π/2 = level with the target).
type Limits struct {
	MinDistance float64
	MaxDistance float64
	MinPolar    float64
	MaxPolar    float64
}

// DefaultLimits matches the viewer's orbit controls.
func DefaultLimits() Limits {
	return Limits{
		MinDistance: 2,
		MaxDistance: 50,
		MinPolar:    0,
		MaxPolar:    math.Pi / 2,
	}
}

// Camera is a perspective orbit camera. The zero value is not usable; use New.
type Camera struct {
	Target   mathutil.Vec3
	Azimuth  float64 // radians around +Y, 0 = camera on +Z
	Polar    float64 // radians from +Y
	Distance float64

	FovY   float64 // vertical field of view, radians
	Aspect float64
	Near   float64
	Far    float64

	Limits Limits
}

// New returns a camera looking at the origin from +Z, slightly above.
func New(limits Limits) *Camera {
	c := &Camera{
		Azimuth:  0,
		Polar:    math.Pi / 3,
		Distance: 15,
		FovY:     mathutil.Deg2Rad(50),
		Aspect:   1,
		Near:     0.1,
		Far:      1000,
		Limits:   limits,
	}
	c.clamp()
	return c
}

func (c *Camera) clamp() {
	l := c.Limits
	if l.MaxDistance > 0 {
		c.Distance = math.Min(c.Distance, l.MaxDistance)
	}
	c.Distance = math.Max(c.Distance, l.MinDistance)
	if l.MaxPolar > l.MinPolar {
		c.Polar = math.Max(l.MinPolar, math.Min(l.MaxPolar, c.Polar))
	}
	// Keep the eye off the pole so LookAt's up vector stays valid.
	c.Polar = math.Max(1e-6, math.Min(math.Pi-1e-6, c.Polar))
}

// Rotate orbits by the given angle deltas in radians.
func (c *Camera) Rotate(dAzimuth, dPolar float64) {
	c.Azimuth = math.Mod(c.Azimuth+dAzimuth, 2*math.Pi)
	c.Polar += dPolar
	c.clamp()
}

// Pan moves the target in the view plane. dx, dy are fractions of the
// viewport (1 = full width/height).
func (c *Camera) Pan(dx, dy float64) {
	// Height of the view plane at the target distance.
	h := 2 * c.Distance * math.Tan(c.FovY/2)
	w := h * c.Aspect

	fwd := c.Target.Sub(c.Eye()).Normalize()
	right := fwd.Cross(mathutil.Vec3{0, 1, 0}).Normalize()
	up := right.Cross(fwd)

	c.Target = c.Target.Sub(right.Scale(dx * w)).Add(up.Scale(dy * h))
}

// Zoom scales the distance; factor < 1 moves closer.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance *= factor
	c.clamp()
}

// SetAspect updates the viewport aspect ratio (width / height).
func (c *Camera) SetAspect(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float64(width) / float64(height)
	}
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() mathutil.Vec3 {
	sp := math.Sin(c.Polar)
	off := mathutil.Vec3{
		c.Distance * sp * math.Sin(c.Azimuth),
		c.Distance * math.Cos(c.Polar),
		c.Distance * sp * math.Cos(c.Azimuth),
	}
	return c.Target.Add(off)
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(toMgl(c.Eye()), toMgl(c.Target), mgl64.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection × View.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Ray is a half-line from Origin along Direction (unit length).
type Ray struct {
	Origin    mathutil.Vec3
	Direction mathutil.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) mathutil.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Ray builds a world-space ray through normalized device coordinates
// (x right, y up, both in [-1, 1]).
func (c *Camera) Ray(ndcX, ndcY float64) Ray {
	inv := c.ViewProjection().Inv()
	near := unproject(inv, mgl64.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(inv, mgl64.Vec4{ndcX, ndcY, 1, 1})
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// Project maps a world point to NDC; w is the clip-space w (depth along the
// view direction). Points with w <= 0 are behind the camera.
func (c *Camera) Project(p mathutil.Vec3) (ndc mathutil.Vec3, w float64) {
	return ProjectWith(c.ViewProjection(), p)
}

// ProjectWith is Project for a precomputed view-projection matrix.
func ProjectWith(vp mgl64.Mat4, p mathutil.Vec3) (mathutil.Vec3, float64) {
	clip := vp.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	w := clip[3]
	if w == 0 {
		return mathutil.Vec3{}, 0
	}
	return mathutil.Vec3{clip[0] / w, clip[1] / w, clip[2] / w}, w
}

// PixelToNDC converts a pixel position (origin top-left) to NDC, sampling
// the pixel centre.
func PixelToNDC(x, y float64, width, height int) (float64, float64) {
	nx := (x+0.5)/float64(width)*2 - 1
	ny := 1 - (y+0.5)/float64(height)*2
	return nx, ny
}

func unproject(inv mgl64.Mat4, v mgl64.Vec4) mathutil.Vec3 {
	p := inv.Mul4x1(v)
	return mathutil.Vec3{p[0] / p[3], p[1] / p[3], p[2] / p[3]}
}

func toMgl(v mathutil.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}
