package raster

import (
	"fmt"
	"math"
	"strings"
)

// Wrap decides how texture coordinates outside [0,1) reach the target when
// a triangle is rasterized in texture space.
type Wrap uint8

const (
	// WrapFract wraps every vertex independently with fract(uv). Triangles
	// crossing a tile border are distorted, matching the original passes.
	WrapFract Wrap = iota
	// WrapTile moves the whole triangle into its base tile and wraps each
	// covered texel, so every tile the mesh uses lands in the target.
	WrapTile
)

// maxTileSpan limits how many tiles one triangle may cover under WrapTile.
const maxTileSpan = 16

// ParseWrap accepts "fract" or "tile".
func ParseWrap(s string) (Wrap, error) {
	switch strings.ToLower(s) {
	case "", "fract":
		return WrapFract, nil
	case "tile":
		return WrapTile, nil
	}
	return WrapFract, fmt.Errorf("raster: unknown wrap policy %q", s)
}

func (w Wrap) String() string {
	if w == WrapTile {
		return "tile"
	}
	return "fract"
}

// Fragment receives a covered texel and the barycentric weights of its
// center relative to the three triangle corners.
type Fragment func(x, y int, b [3]float64)

// coverEps accepts texel centers lying exactly on an edge.
const coverEps = -1e-7

// RasterizeUV rasterizes a triangle given by texture coordinates into a
// w×h texel grid. Texel (x, y) covers uv [x/w,(x+1)/w) × [y/h,(y+1)/h) and
// is sampled at its center. Texels outside the grid are dropped under
// WrapFract and wrapped under WrapTile.
func RasterizeUV(w, h int, uv [3][2]float64, wrap Wrap, frag Fragment) {
	switch wrap {
	case WrapTile:
		fu := math.Floor(math.Min(math.Min(uv[0][0], uv[1][0]), uv[2][0]))
		fv := math.Floor(math.Min(math.Min(uv[0][1], uv[1][1]), uv[2][1]))
		for i := range uv {
			uv[i][0] -= fu
			uv[i][1] -= fv
		}
	default:
		for i := range uv {
			uv[i][0] -= math.Floor(uv[i][0])
			uv[i][1] -= math.Floor(uv[i][1])
		}
	}

	x0, y0 := uv[0][0]*float64(w), uv[0][1]*float64(h)
	x1, y1 := uv[1][0]*float64(w), uv[1][1]*float64(h)
	x2, y2 := uv[2][0]*float64(w), uv[2][1]*float64(h)

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math.Abs(det) < 1e-12 || math.IsNaN(det) {
		return
	}
	invDet := 1.0 / det

	limitX, limitY := w, h
	if wrap == WrapTile {
		limitX, limitY = w*maxTileSpan, h*maxTileSpan
	}

	// Texel centers sit at +0.5, so the covered index range is
	// [ceil(min-0.5), floor(max-0.5)].
	minX := int(math.Ceil(math.Min(math.Min(x0, x1), x2) - 0.5))
	maxX := int(math.Floor(math.Max(math.Max(x0, x1), x2) - 0.5))
	minY := int(math.Ceil(math.Min(math.Min(y0, y1), y2) - 0.5))
	maxY := int(math.Floor(math.Max(math.Max(y0, y1), y2) - 0.5))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= limitX {
		maxX = limitX - 1
	}
	if maxY >= limitY {
		maxY = limitY - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		ty := sy % h
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			b0 := (dy12*dsx + dx21*dsy) * invDet
			b1 := (dy20*dsx + dx02*dsy) * invDet
			b2 := 1.0 - b0 - b1
			if b0 < coverEps || b1 < coverEps || b2 < coverEps {
				continue
			}
			frag(sx%w, ty, [3]float64{b0, b1, b2})
		}
	}
}
