package raster

import "image"

// SampleTexture performs bilinear filtering with repeat wrapping. It reads
// tex.Pix directly and assumes the image origin is (0, 0).
func SampleTexture(tex *image.NRGBA, u, v float64) (r, g, b, a uint8) {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}

	u = wrap(u)
	v = wrap(v)

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := int(fx)
	y0 := int(fy)
	x1 := (x0 + 1) % w
	y1 := (y0 + 1) % h
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	stride := tex.Stride
	pix := tex.Pix

	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	for c := 0; c < 4; c++ {
		f := float64(pix[i00+c])*w00 + float64(pix[i10+c])*w10 + float64(pix[i01+c])*w01 + float64(pix[i11+c])*w11
		out[c] = uint8(f + 0.5)
	}
	return out[0], out[1], out[2], out[3]
}

func wrap(t float64) float64 {
	t -= float64(int(t))
	if t < 0 {
		t += 1
	}
	return t
}

// averageColor is the fallback when a textured mesh has no UVs.
func averageColor(tex *image.NRGBA) (uint8, uint8, uint8, uint8) {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 160, 160, 170, 255
	}

	var sumR, sumG, sumB float64
	stride := tex.Stride
	for y := 0; y < h; y++ {
		off := y * stride
		for x := 0; x < w; x++ {
			i := off + x*4
			sumR += float64(tex.Pix[i])
			sumG += float64(tex.Pix[i+1])
			sumB += float64(tex.Pix[i+2])
		}
	}
	n := float64(w * h)
	return uint8(sumR/n + 0.5), uint8(sumG/n + 0.5), uint8(sumB/n + 0.5), 255
}
