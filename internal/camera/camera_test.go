package camera

import (
	"math"
	"testing"

	"pcb-viewer/internal/mathutil"
)

func TestCenterRayHitsTarget(t *testing.T) {
	c := New(DefaultLimits())
	c.Target = mathutil.Vec3{1, 2, 3}

	r := c.Ray(0, 0)
	toTarget := c.Target.Sub(r.Origin).Normalize()
	if !r.Direction.ApproxEqual(toTarget, 1e-9) {
		t.Errorf("center ray direction = %v, want %v", r.Direction, toTarget)
	}
}

func TestProjectRoundTripsRay(t *testing.T) {
	c := New(DefaultLimits())
	c.SetAspect(640, 480)
	c.Rotate(0.4, 0.1)

	r := c.Ray(0.3, -0.5)
	ndc, w := c.Project(r.At(7))
	if w <= 0 {
		t.Fatalf("point along ray is behind camera (w=%v)", w)
	}
	if math.Abs(ndc[0]-0.3) > 1e-9 || math.Abs(ndc[1]+0.5) > 1e-9 {
		t.Errorf("projected ndc = %v, want (0.3, -0.5)", ndc)
	}
}

func TestLimitsClamp(t *testing.T) {
	c := New(DefaultLimits())

	c.Zoom(100)
	if c.Distance != 50 {
		t.Errorf("distance = %v, want clamped to 50", c.Distance)
	}
	c.Zoom(0.0001)
	if c.Distance != 2 {
		t.Errorf("distance = %v, want clamped to 2", c.Distance)
	}

	c.Rotate(0, 10)
	if c.Polar > math.Pi/2 {
		t.Errorf("polar = %v, exceeds π/2", c.Polar)
	}
	if c.Eye()[1] < -1e-9 {
		t.Errorf("eye went below the target plane: %v", c.Eye())
	}
}

func TestPanMovesTarget(t *testing.T) {
	c := New(DefaultLimits())
	c.Pan(0.5, 0)
	if c.Target[0] >= 0 {
		t.Errorf("dragging right should move the target left, got %v", c.Target)
	}
	if math.Abs(c.Target[1]) > 1e-9 {
		t.Errorf("horizontal pan moved target vertically: %v", c.Target)
	}
}

func TestPixelToNDC(t *testing.T) {
	x, y := PixelToNDC(49.5, 49.5, 100, 100)
	if math.Abs(x) > 1e-12 || math.Abs(y) > 1e-12 {
		t.Errorf("centre pixel = (%v, %v), want (0, 0)", x, y)
	}
	x, y = PixelToNDC(-0.5, -0.5, 100, 100)
	if x != -1 || y != 1 {
		t.Errorf("top-left corner = (%v, %v), want (-1, 1)", x, y)
	}
}
