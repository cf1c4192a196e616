package raster

import (
	"math"

	"pcb-viewer/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters. Directions are in
// world space and point from the surface towards the light.
type LightConfig struct {
	LightDir  mathutil.Vec3
	RimDir    mathutil.Vec3
	ViewDir   mathutil.Vec3 // camera forward
	HalfMain  mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient   float64
	Hemi      float64
	Direct    float64
	Rim       float64
	SpecInt   float64
	SpecPow   float64
	Exposure  float64
	SRGBGamma float64
	InvGamma  float64
}

// DefaultLightConfig returns a key light from (2, 5, 2), a rim from behind,
// and a soft hemisphere fill.
func DefaultLightConfig() LightConfig {
	lc := LightConfig{
		LightDir:  mathutil.Vec3{2, 5, 2}.Normalize(),
		RimDir:    mathutil.Vec3{-0.4, 0.35, -0.55}.Normalize(),
		Ambient:   0.35,
		Hemi:      0.30,
		Direct:    0.95,
		Rim:       0.25,
		SpecInt:   0.35,
		SpecPow:   24.0,
		Exposure:  1.0,
		SRGBGamma: 2.2,
		InvGamma:  1.0 / 2.2,
	}
	return lc.ForView(mathutil.Vec3{0, -0.5, -1}.Normalize())
}

// ForView returns a copy with the specular half-vector recomputed for a
// camera looking along viewDir.
func (lc LightConfig) ForView(viewDir mathutil.Vec3) LightConfig {
	lc.ViewDir = viewDir
	lc.HalfMain = lc.LightDir.Sub(viewDir).Normalize()
	return lc
}

// ComputeShade returns the combined lighting scalar for a face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	// Hemisphere fill, brightest on upward faces
	hemi := math.Abs(normal[1])*0.5 + 0.5
	hemiLight := hemi * lc.Hemi

	// Blinn-Phong specular, facing the camera
	n := normal
	if n.Dot(lc.ViewDir) > 0 {
		n = n.Neg()
	}
	ndh := n.Dot(lc.HalfMain)
	if ndh < 0 {
		ndh = 0
	}
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemiLight + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

// encode tonemaps a linear channel and converts it to an 8-bit sRGB value.
func (lc *LightConfig) encode(x float64) uint8 {
	if x <= 0 {
		return 0
	}
	return clamp255(math.Pow(ACESTonemap(x), lc.InvGamma) * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
