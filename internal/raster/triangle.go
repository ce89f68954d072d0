package raster

import (
	"image"
	"math"

	"snow-texture-generator/internal/mathutil"
)

// ScreenVertex is a projected vertex: pixel position, depth (larger is
// closer) and texture coordinate.
type ScreenVertex struct {
	X, Y, Z float64
	U, V    float64
}

// DrawTriangle rasterizes a textured, flat-shaded triangle into fb with a
// greater-wins z-buffer. Texels with alpha below 8 are discarded.
//
// This is the hot path of debug renderings; the pixel loop does not
// allocate.
func DrawTriangle(fb *FrameBuffer, v [3]ScreenVertex, tex *image.NRGBA, lc *LightConfig) {
	x0, y0, z0 := v[0].X, v[0].Y, v[0].Z
	x1, y1, z1 := v[1].X, v[1].Y, v[1].Z
	x2, y2, z2 := v[2].X, v[2].Y, v[2].Z

	// Face normal for flat shading; screen y grows downward.
	e1 := mathutil.Vec3{x1 - x0, y0 - y1, z1 - z0}
	e2 := mathutil.Vec3{x2 - x0, y0 - y2, z2 - z0}
	n := e1.Cross(e2)
	if n.Len() < 1e-8 {
		return
	}
	shade := lc.Shade(n.Normalize())

	minX := int(math.Max(math.Floor(math.Min(math.Min(x0, x1), x2)), 0))
	maxX := int(math.Min(math.Ceil(math.Max(math.Max(x0, x1), x2)), float64(fb.Width-1)))
	minY := int(math.Max(math.Floor(math.Min(math.Min(y0, y1), y2)), 0))
	maxY := int(math.Min(math.Ceil(math.Max(math.Max(y0, y1), y2)), float64(fb.Height-1)))
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

	for sy := minY; sy <= maxY; sy++ {
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

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			u := w0*v[0].U + w1*v[1].U + w2*v[2].U
			tv := w0*v[0].V + w1*v[1].V + w2*v[2].V
			c := SampleBilinear(tex, u, tv)
			ca := To8(c[3])
			if ca < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			px := zIdx * 4
			fb.Color[px] = lc.shadeChannel(To8(c[0]), shade)
			fb.Color[px+1] = lc.shadeChannel(To8(c[1]), shade)
			fb.Color[px+2] = lc.shadeChannel(To8(c[2]), shade)
			fb.Color[px+3] = 255
		}
	}
}
