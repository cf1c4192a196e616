// Package raster is a software rasterizer for scene graphs: flat-shaded,
// z-buffered, with perspective-correct textures and emissive highlights.
package raster

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"pcb-viewer/internal/camera"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/postprocess"
	"pcb-viewer/internal/scene"
)

// Options controls a single render.
type Options struct {
	Width, Height int
	Supersample   int         // 1 or less renders at output size
	Background    color.NRGBA // zero is transparent
	Light         *LightConfig
	IDs           bool // keep a per-pixel mesh ID buffer for PartAt
}

// Frame is the output of Render.
type Frame struct {
	Image *image.NRGBA

	ids   []int32
	idW   int
	idH   int
	ss    int
	parts []string
}

// PartAt returns the name of the mesh covering output pixel (x, y), or ""
// for background. It always returns "" unless Options.IDs was set.
func (f *Frame) PartAt(x, y int) string {
	if f.ids == nil {
		return ""
	}
	x, y = x*f.ss+f.ss/2, y*f.ss+f.ss/2
	if x < 0 || y < 0 || x >= f.idW || y >= f.idH {
		return ""
	}
	id := f.ids[y*f.idW+x]
	if id < 0 || int(id) >= len(f.parts) {
		return ""
	}
	return f.parts[id]
}

// Render draws every mesh below root as seen from cam. The camera's aspect
// ratio is taken from the output size; cam itself is not modified.
func Render(root *scene.Node, cam *camera.Camera, opts Options) *Frame {
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	w, h := opts.Width*ss, opts.Height*ss

	view := *cam
	view.SetAspect(opts.Width, opts.Height)
	vp := view.ViewProjection()

	lc := DefaultLightConfig()
	if opts.Light != nil {
		lc = *opts.Light
	}
	lc = lc.ForView(view.Target.Sub(view.Eye()).Normalize())

	fb := NewFrameBuffer(w, h, opts.IDs)
	fb.Clear(opts.Background)

	frame := &Frame{ss: ss, idW: w, idH: h}
	if root != nil {
		for i, n := range root.Meshes() {
			fb.drawMesh(n, vp, &lc, int32(i))
			frame.parts = append(frame.parts, n.Name)
		}
	}

	frame.ids = fb.IDs
	frame.Image = fb.Image()
	if ss > 1 {
		frame.Image = postprocess.Downsample(frame.Image, opts.Width, opts.Height)
	}
	return frame
}

func (fb *FrameBuffer) drawMesh(n *scene.Node, vp mgl64.Mat4, lc *LightConfig, id int32) {
	mesh := n.Mesh
	mat := n.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	world := n.World()

	wp := make([]mathutil.Vec3, len(mesh.Positions))
	clip := make([]mgl64.Vec4, len(mesh.Positions))
	for i, p := range mesh.Positions {
		q := world.MulPoint(p)
		wp[i] = q
		clip[i] = vp.Mul4x1(mgl64.Vec4{q[0], q[1], q[2], 1})
	}

	s := surface{
		base:     mat.BaseColor,
		emissive: mat.Emissive,
		id:       id,
	}
	s.flat = mat.BaseColor
	hasUV := len(mesh.UVs) == len(mesh.Positions)
	if mat.Texture != nil {
		if hasUV {
			s.tex = mat.Texture
		} else {
			r, g, b, _ := averageColor(mat.Texture)
			s.flat[0] *= srgbToLinear[r]
			s.flat[1] *= srgbToLinear[g]
			s.flat[2] *= srgbToLinear[b]
		}
	}

	var in [3]clipVert
	buf := make([]clipVert, 0, 4)
	nv := len(mesh.Positions)
	for _, tri := range mesh.Tris {
		if tri[0] >= nv || tri[1] >= nv || tri[2] >= nv || tri[0] < 0 || tri[1] < 0 || tri[2] < 0 {
			continue
		}
		normal := wp[tri[1]].Sub(wp[tri[0]]).Cross(wp[tri[2]].Sub(wp[tri[0]]))
		if normal.Len() < 1e-12 {
			continue
		}
		s.shade = lc.ComputeShade(normal.Normalize())

		for k, vi := range tri {
			in[k] = clipVert{pos: clip[vi]}
			if hasUV {
				in[k].u = float64(mesh.UVs[vi][0])
				in[k].v = float64(mesh.UVs[vi][1])
			}
		}
		poly := clipNear(in[:], buf)
		if len(poly) < 3 {
			continue
		}
		first := fb.toScreen(poly[0])
		for k := 1; k+1 < len(poly); k++ {
			fb.RasterizeTriangle(first, fb.toScreen(poly[k]), fb.toScreen(poly[k+1]), &s, lc)
		}
	}
}
