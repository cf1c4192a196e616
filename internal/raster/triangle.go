package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"pcb-viewer/internal/mathutil"
)

// clipVert is a vertex in homogeneous clip space with its texture coords.
type clipVert struct {
	pos  mgl64.Vec4
	u, v float64
}

// screenVert is a clipped vertex after the perspective divide. Attributes
// are stored divided by w so they interpolate linearly in screen space.
type screenVert struct {
	x, y   float64
	invW   float64
	uOverW float64
	vOverW float64
}

// surface is the per-triangle state shared by every pixel it covers.
type surface struct {
	shade    float64
	base     [4]float64 // linear RGBA factor
	flat     [4]float64 // linear colour used when not sampling a texture
	emissive mathutil.Vec3
	tex      *image.NRGBA
	id       int32
}

// clipNear clips a polygon against the near plane (z >= -w). The result is
// written to out and may have zero, three or four vertices for a triangle.
func clipNear(in []clipVert, out []clipVert) []clipVert {
	out = out[:0]
	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da := a.pos[2] + a.pos[3]
		db := b.pos[2] + b.pos[3]
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, clipVert{
				pos: a.pos.Add(b.pos.Sub(a.pos).Mul(t)),
				u:   a.u + (b.u-a.u)*t,
				v:   a.v + (b.v-a.v)*t,
			})
		}
	}
	return out
}

// toScreen performs the perspective divide and viewport transform (origin
// top-left, y down).
func (fb *FrameBuffer) toScreen(c clipVert) screenVert {
	w := c.pos[3]
	if w < 1e-9 {
		w = 1e-9
	}
	inv := 1 / w
	return screenVert{
		x:      (c.pos[0]*inv*0.5 + 0.5) * float64(fb.Width),
		y:      (0.5 - c.pos[1]*inv*0.5) * float64(fb.Height),
		invW:   inv,
		uOverW: c.u * inv,
		vOverW: c.v * inv,
	}
}

// RasterizeTriangle fills one screen-space triangle with z-buffering,
// perspective-correct texturing, flat lighting, emissive and ACES tone
// mapping. The inner loop does not allocate.
func (fb *FrameBuffer) RasterizeTriangle(a, b, c screenVert, s *surface, lc *LightConfig) {
	x0, y0 := a.x, a.y
	x1, y1 := b.x, b.y
	x2, y2 := c.x, c.y

	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	k := s.shade * lc.Exposure
	sampled := s.tex != nil

	for sy := minY; sy <= maxY; sy++ {
		// Sample at pixel centres.
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			iw := w0*a.invW + w1*b.invW + w2*c.invW
			zIdx := rowOff + sx
			if iw <= fb.ZBuf[zIdx] {
				continue
			}

			var lr, lg, lb, la float64
			if sampled {
				u := (w0*a.uOverW + w1*b.uOverW + w2*c.uOverW) / iw
				v := (w0*a.vOverW + w1*b.vOverW + w2*c.vOverW) / iw
				cr, cg, cb, ca := SampleTexture(s.tex, u, v)
				lr = srgbToLinear[cr] * s.base[0]
				lg = srgbToLinear[cg] * s.base[1]
				lb = srgbToLinear[cb] * s.base[2]
				la = float64(ca) / 255 * s.base[3]
			} else {
				lr, lg, lb, la = s.flat[0], s.flat[1], s.flat[2], s.flat[3]
			}

			// Skip transparent texels
			if la < 8.0/255 {
				continue
			}
			fb.ZBuf[zIdx] = iw
			if fb.IDs != nil {
				fb.IDs[zIdx] = s.id
			}

			r := lc.encode(lr*k + s.emissive[0])
			g := lc.encode(lg*k + s.emissive[1])
			bl := lc.encode(lb*k + s.emissive[2])

			pxIdx := zIdx * 4
			if la >= 1 {
				fb.Color[pxIdx] = r
				fb.Color[pxIdx+1] = g
				fb.Color[pxIdx+2] = bl
				fb.Color[pxIdx+3] = 255
				continue
			}
			// Straight alpha over whatever is already there.
			dstA := float64(fb.Color[pxIdx+3]) / 255
			outA := la + dstA*(1-la)
			fb.Color[pxIdx] = over(r, fb.Color[pxIdx], la, dstA, outA)
			fb.Color[pxIdx+1] = over(g, fb.Color[pxIdx+1], la, dstA, outA)
			fb.Color[pxIdx+2] = over(bl, fb.Color[pxIdx+2], la, dstA, outA)
			fb.Color[pxIdx+3] = clamp255(outA * 255)
		}
	}
}

func over(src, dst uint8, srcA, dstA, outA float64) uint8 {
	return clamp255((float64(src)*srcA + float64(dst)*dstA*(1-srcA)) / outA)
}
