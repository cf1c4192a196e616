// Package postprocess resamples rendered frames.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample reduces img to width×height with premultiplied-alpha-aware
// CatmullRom filtering, which avoids dark fringes where geometry meets a
// transparent background. Images already at or below the target size are
// returned unchanged.
func Downsample(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() <= width && b.Dy() <= height) {
		return img
	}

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	return unpremultiply(dst)
}

// Fit scales img (up or down) to fit inside width×height preserving aspect
// ratio, centred on a transparent canvas. Used for thumbnails.
func Fit(img image.Image, width, height int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	b := img.Bounds()
	if b.Empty() || width <= 0 || height <= 0 {
		return out
	}
	sx := float64(width) / float64(b.Dx())
	sy := float64(height) / float64(b.Dy())
	s := sx
	if sy < s {
		s = sy
	}
	w := int(float64(b.Dx())*s + 0.5)
	h := int(float64(b.Dy())*s + 0.5)
	x0 := (width - w) / 2
	y0 := (height - h) / 2
	draw.CatmullRom.Scale(out, image.Rect(x0, y0, x0+w, y0+h), img, b, draw.Over, nil)
	return out
}

func unpremultiply(src *image.RGBA) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := src.PixOffset(x, y)
			di := out.PixOffset(x, y)
			a := float64(src.Pix[si+3])
			if a > 1 {
				inv := 255.0 / a
				out.Pix[di] = clamp8(float64(src.Pix[si]) * inv)
				out.Pix[di+1] = clamp8(float64(src.Pix[si+1]) * inv)
				out.Pix[di+2] = clamp8(float64(src.Pix[si+2]) * inv)
			}
			out.Pix[di+3] = src.Pix[si+3]
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
