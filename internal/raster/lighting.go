package raster

import (
	"math"

	"snow-texture-generator/internal/mathutil"
)

// LightConfig holds the precomputed lighting of debug renderings.
type LightConfig struct {
	Sun      mathutil.Vec3
	Fill     mathutil.Vec3
	Half     mathutil.Vec3 // Blinn-Phong half-vector of the sun
	Ambient  float64
	Hemi     float64
	Direct   float64
	FillAmt  float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig lights the isometric view from the upper left so that
// snow on upward faces reads bright and steep faces stay darker.
func DefaultLightConfig() LightConfig {
	sun := mathutil.Vec3{-0.4, 1, 0.3}.Normalize()
	fill := mathutil.Vec3{0.6, 0.2, -0.8}.Normalize()
	view := mathutil.Vec3{0, 0, 1}

	return LightConfig{
		Sun:      sun,
		Fill:     fill,
		Half:     sun.Add(view).Normalize(),
		Ambient:  0.45,
		Hemi:     0.35,
		Direct:   0.9,
		FillAmt:  0.3,
		SpecInt:  0.15,
		SpecPow:  16,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// Shade returns the combined lighting scalar for a unit face normal in
// view space.
func (lc *LightConfig) Shade(n mathutil.Vec3) float64 {
	sun := math.Abs(n.Dot(lc.Sun))
	fill := math.Abs(n.Dot(lc.Fill))
	hemi := (n[1]*0.5 + 0.5) * lc.Hemi

	spec := n.Dot(lc.Half)
	if spec < 0 {
		spec = 0
	}
	spec = math.Pow(spec, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemi + sun*lc.Direct + fill*lc.FillAmt + spec
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

// shadeChannel lights one sRGB channel and returns it in sRGB again.
func (lc *LightConfig) shadeChannel(c uint8, shade float64) uint8 {
	lin := srgbToLinear[c] * shade * lc.Exposure
	return clamp255(math.Pow(ACESTonemap(lin), lc.InvGamma) * 255)
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
