package raster

import (
	"image"
	"math"
)

// Texel returns the RGBA of a texel in [0,1], clamping coordinates to the
// image edge.
func Texel(tex *image.NRGBA, x, y int) [4]float32 {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	x = clampInt(x, 0, w-1)
	y = clampInt(y, 0, h-1)
	i := y*tex.Stride + x*4
	p := tex.Pix[i : i+4 : i+4]
	return [4]float32{
		float32(p[0]) / 255,
		float32(p[1]) / 255,
		float32(p[2]) / 255,
		float32(p[3]) / 255,
	}
}

// SampleNearest samples with repeat wrapping and nearest filtering.
func SampleNearest(tex *image.NRGBA, u, v float64) [4]float32 {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	x := wrapIndex(int(math.Floor(u*float64(w))), w)
	y := wrapIndex(int(math.Floor(v*float64(h))), h)
	return Texel(tex, x, y)
}

// SampleBilinear samples with repeat wrapping and bilinear filtering,
// texel centers at half-integer coordinates.
func SampleBilinear(tex *image.NRGBA, u, v float64) [4]float32 {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()

	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5
	fx0 := math.Floor(fx)
	fy0 := math.Floor(fy)
	dx := float32(fx - fx0)
	dy := float32(fy - fy0)

	x0 := wrapIndex(int(fx0), w)
	y0 := wrapIndex(int(fy0), h)
	x1 := wrapIndex(x0+1, w)
	y1 := wrapIndex(y0+1, h)

	c00 := Texel(tex, x0, y0)
	c10 := Texel(tex, x1, y0)
	c01 := Texel(tex, x0, y1)
	c11 := Texel(tex, x1, y1)

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]float32
	for k := 0; k < 4; k++ {
		out[k] = c00[k]*w00 + c10[k]*w10 + c01[k]*w01 + c11[k]*w11
	}
	return out
}

// SampleScaled picks the filter a texture unit configured with linear
// magnification and nearest minification would use when the texture is
// read at a target resolution of tw×th.
func SampleScaled(tex *image.NRGBA, u, v float64, tw, th int) [4]float32 {
	if tex.Rect.Dx() > tw || tex.Rect.Dy() > th {
		return SampleNearest(tex, u, v)
	}
	return SampleBilinear(tex, u, v)
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// To8 converts a [0,1] channel value to unorm8 with rounding.
func To8(c float32) uint8 {
	if c != c || c <= 0 {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return uint8(c*255 + 0.5)
}
