package raster

import (
	"fmt"
	"math"
)

// DepthFunc selects which candidate survives when two values meet in a
// texel. Both functions are strict, like a hardware depth test.
type DepthFunc uint8

const (
	// DepthGreater keeps the maximum written value.
	DepthGreater DepthFunc = iota
	// DepthLess keeps the minimum written value.
	DepthLess
)

func (f DepthFunc) String() string {
	if f == DepthLess {
		return "less"
	}
	return "greater"
}

// depthSteps is the resolution of a 16-bit unorm depth attachment.
const depthSteps = 65535

// DepthTarget is a single-channel storage target. Every Write is a
// comparison against the stored value, so a sequence of writes reduces to
// the min or max of all candidates regardless of submission order.
type DepthTarget struct {
	Width  int
	Height int
	Func   DepthFunc
	Depth  []float32
}

// NewDepthTarget allocates a target of the given size. Contents are zero
// until Clear is called.
func NewDepthTarget(w, h int, fn DepthFunc) (*DepthTarget, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: depth target size %dx%d", ErrRaster, w, h)
	}
	return &DepthTarget{
		Width:  w,
		Height: h,
		Func:   fn,
		Depth:  make([]float32, w*h),
	}, nil
}

// Quantize clamps z to [0,1] and rounds it to 16-bit unorm precision.
func Quantize(z float32) float32 {
	if z != z || z < 0 {
		return 0
	}
	if z > 1 {
		return 1
	}
	return float32(math.Round(float64(z)*depthSteps) / depthSteps)
}

// Clear sets every texel to v.
func (t *DepthTarget) Clear(v float32) {
	q := Quantize(v)
	for i := range t.Depth {
		t.Depth[i] = q
	}
}

// Write stores z at (x, y) if it passes the depth test. Out-of-range
// coordinates are ignored.
func (t *DepthTarget) Write(x, y int, z float32) bool {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return false
	}
	z = Quantize(z)
	i := y*t.Width + x
	switch t.Func {
	case DepthGreater:
		if !(z > t.Depth[i]) {
			return false
		}
	case DepthLess:
		if !(z < t.Depth[i]) {
			return false
		}
	}
	t.Depth[i] = z
	return true
}

// At returns the stored value, clamping coordinates to the edge.
func (t *DepthTarget) At(x, y int) float32 {
	x = clampInt(x, 0, t.Width-1)
	y = clampInt(y, 0, t.Height-1)
	return t.Depth[y*t.Width+x]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
