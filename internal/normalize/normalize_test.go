package normalize

import (
	"errors"
	"math"
	"testing"

	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/scene"
)

const eps = 1e-9

func board() *scene.Node {
	root := scene.NewNode("Scene")
	pcb := scene.NewBox("pcb", mathutil.Vec3{2, 3, 4}, mathutil.Vec3{10, 4, 8})
	chip := scene.NewBox("chip", mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 1, 1})
	chip.Translation = mathutil.Vec3{4, 4, 5}
	pcb.Add(chip)
	root.Add(pcb)
	return root
}

func TestNormalizeCentersAndScales(t *testing.T) {
	tests := []struct {
		name   string
		target float64
	}{
		{"unit", 1},
		{"original scale", 10},
		{"tiny", 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := board()
			res, err := Normalize(root, tt.target)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}

			b := root.WorldBounds()
			if c := b.Center(); !c.ApproxEqual(mathutil.Vec3{}, eps*tt.target) {
				t.Errorf("center = %v, want origin", c)
			}
			if got := b.MaxExtent(); math.Abs(got-tt.target) > eps*tt.target {
				t.Errorf("max extent = %v, want %v", got, tt.target)
			}
			if want := tt.target / 8; math.Abs(res.Scale-want) > eps {
				t.Errorf("scale = %v, want %v", res.Scale, want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	root := board()
	first, err := Normalize(root, 10)
	if err != nil {
		t.Fatal(err)
	}
	t1, s1 := root.Translation, root.Scale

	second, err := Normalize(root, 10)
	if err != nil {
		t.Fatal(err)
	}
	if root.Translation != t1 || root.Scale != s1 {
		t.Errorf("second run changed transform: %v/%v -> %v/%v", t1, s1, root.Translation, root.Scale)
	}
	if first.Scale != second.Scale {
		t.Errorf("scale drifted: %v -> %v", first.Scale, second.Scale)
	}
	if got := root.WorldBounds().MaxExtent(); math.Abs(got-10) > eps {
		t.Errorf("max extent after rerun = %v, want 10", got)
	}
}

func TestNormalizeWithRotatedRoot(t *testing.T) {
	root := board()
	root.Rotation = mathutil.QuatAxisAngle(mathutil.Vec3{0, 1, 0}, math.Pi/2)
	if _, err := Normalize(root, 4); err != nil {
		t.Fatal(err)
	}
	if c := root.WorldBounds().Center(); !c.ApproxEqual(mathutil.Vec3{}, eps) {
		t.Errorf("center = %v, want origin", c)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	tests := []struct {
		name string
		root *scene.Node
	}{
		{"no meshes", scene.NewNode("empty")},
		{"single point", func() *scene.Node {
			n := scene.NewBox("dot", mathutil.Vec3{1, 1, 1}, mathutil.Vec3{1, 1, 1})
			return scene.NewNode("root").Add(n)
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.root.Scale
			_, err := Normalize(tt.root, 10)
			if !errors.Is(err, ErrDegenerate) {
				t.Fatalf("err = %v, want ErrDegenerate", err)
			}
			if tt.root.Scale != before {
				t.Errorf("root scale changed to %v", tt.root.Scale)
			}
		})
	}
}

func TestNormalizeRejectsNonPositiveTarget(t *testing.T) {
	if _, err := Normalize(board(), 0); err == nil {
		t.Error("expected error for zero target")
	}
}
