package raster

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float64 // 1/w per pixel (larger is closer), initialized to -inf
	IDs    []int32   // mesh index per pixel, -1 for background; nil when disabled
}

// NewFrameBuffer allocates a zeroed color buffer and -inf z-buffer. When
// withIDs is set an ID buffer filled with -1 is allocated as well.
func NewFrameBuffer(w, h int, withIDs bool) *FrameBuffer {
	n := w * h
	zbuf := make([]float64, n)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		ZBuf:   zbuf,
	}
	if withIDs {
		fb.IDs = make([]int32, n)
		for i := range fb.IDs {
			fb.IDs[i] = -1
		}
	}
	return fb
}

// Clear fills the color buffer with c.
func (fb *FrameBuffer) Clear(c color.NRGBA) {
	if c == (color.NRGBA{}) {
		clear(fb.Color)
		return
	}
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = c.R
		fb.Color[i+1] = c.G
		fb.Color[i+2] = c.B
		fb.Color[i+3] = c.A
	}
}

// Image copies the color buffer into a new NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}
