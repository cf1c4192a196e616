package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDownsampleSize(t *testing.T) {
	out := Downsample(solid(64, 32, color.NRGBA{200, 10, 10, 255}), 32, 16)
	if got := out.Bounds().Size(); got != image.Pt(32, 16) {
		t.Fatalf("size = %v, want 32x16", got)
	}
	c := out.NRGBAAt(16, 8)
	if c.R < 195 || c.A != 255 {
		t.Errorf("centre = %v, want solid red preserved", c)
	}
}

func TestDownsampleNoUpscale(t *testing.T) {
	in := solid(8, 8, color.NRGBA{1, 2, 3, 255})
	if out := Downsample(in, 16, 16); out != in {
		t.Error("expected the input back when already small enough")
	}
}

func TestDownsampleTransparentEdges(t *testing.T) {
	// Left half opaque white, right half fully transparent black.
	in := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			in.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	out := Downsample(in, 16, 16)
	for x := 0; x < 16; x++ {
		c := out.NRGBAAt(x, 8)
		if c.A > 16 && c.R < 240 {
			t.Errorf("x=%d: colour %v darkened at the alpha edge", x, c)
		}
	}
}

func TestFitCentres(t *testing.T) {
	out := Fit(solid(20, 10, color.NRGBA{0, 255, 0, 255}), 40, 40)
	if out.NRGBAAt(20, 20).G < 250 {
		t.Errorf("centre not filled: %v", out.NRGBAAt(20, 20))
	}
	if out.NRGBAAt(20, 2).A != 0 {
		t.Errorf("letterbox should be transparent: %v", out.NRGBAAt(20, 2))
	}
}
