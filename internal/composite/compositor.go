// Package composite blends snow into diffuse and metallic textures
// according to a snowmap.
package composite

import (
	"image"

	"go.uber.org/zap"

	"snow-texture-generator/internal/raster"
	"snow-texture-generator/internal/texture"
)

// SnowColor is the diffuse color of fully covered texels.
var SnowColor = [4]float32{0.755, 0.791, 0.806, 1}

const (
	fullCover   = 0.8    // above: snow replaces the texel
	partCover   = 0.3    // above: snow is blended in
	unused      = 0.98   // snowmap values at or above are ignored by the filter
	noiseScale  = 4      // noise repeats this often per texture
	jitterRange = 0.0625 // color jitter of fully covered texels
)

// Group is the texture set of one material.
type Group struct {
	Diffuse  *texture.Identity
	Normal   *texture.Identity
	Metallic *texture.Identity
}

// Targets hands out output surfaces.
type Targets interface {
	SnowedTarget(id *texture.Identity, bounds image.Rectangle) *image.NRGBA
}

// Compositor runs the full-texture blend pass.
type Compositor struct {
	noise *Noise
	log   *zap.Logger
}

// New creates a compositor sampling the given noise field.
func New(noise *Noise, log *zap.Logger) *Compositor {
	return &Compositor{noise: noise, log: log}
}

// Composite writes the snowed diffuse and metallic textures of a group.
// It reports false when the group needed no work. Slots already computed
// by an earlier group, or not meant to be saved, are left alone.
func (c *Compositor) Composite(g Group, snow *raster.DepthTarget, targets Targets) bool {
	if g.Diffuse.SnowComputed && g.Metallic.SnowComputed {
		return false
	}
	if !g.Diffuse.ShouldSave && !g.Metallic.ShouldSave {
		return false
	}
	if snow == nil {
		return false
	}

	bounds := g.Diffuse.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	writeDiff := g.Diffuse.ShouldSave && !g.Diffuse.SnowComputed
	writeMetal := g.Metallic.ShouldSave && !g.Metallic.SnowComputed

	var diffOut, metalOut *image.NRGBA
	if writeDiff {
		diffOut = targets.SnowedTarget(g.Diffuse, bounds)
	}
	if writeMetal {
		metalOut = targets.SnowedTarget(g.Metallic, bounds)
	}

	diffuse := g.Diffuse.Surface
	metallic := g.Metallic.Surface
	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			ny := FilterSnowmap(snow, x, y)
			n := c.noise.At(u*noiseScale, v*noiseScale)
			d, m := Shade(ny, n,
				raster.Texel(diffuse, x, y),
				raster.SampleScaled(metallic, u, v, w, h))
			if diffOut != nil {
				put(diffOut, x, y, d)
			}
			if metalOut != nil {
				put(metalOut, x, y, m)
			}
		}
	}

	g.Diffuse.SnowComputed = true
	g.Normal.SnowComputed = true
	g.Metallic.SnowComputed = true

	c.log.Debug("textures composited",
		zap.String("diffuse", g.Diffuse.RelPath),
		zap.String("metallic", g.Metallic.RelPath),
		zap.Bool("diffuse_written", writeDiff),
		zap.Bool("metallic_written", writeMetal),
		zap.Int("width", w),
		zap.Int("height", h))
	return true
}

// FilterSnowmap returns the smoothed up-component at texel (x, y). A
// texel at or above 0.98 yields 0. Otherwise the 3×3 neighbourhood is
// folded in column order, each larger value pulling the result halfway
// toward it. Neighbours past the edge are clamped.
func FilterSnowmap(m *raster.DepthTarget, x, y int) float32 {
	var ny float32
	if m.At(x, y) >= unused {
		return 0
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			v := m.At(x+dx, y+dy)
			if v > ny && v < unused {
				ny = (ny + v) / 2
			}
		}
	}
	return ny
}

// Shade applies snow to one texel given its filtered up-component and
// noise value.
func Shade(ny, noise float32, diff, metal [4]float32) (d, m [4]float32) {
	d, m = diff, metal
	switch {
	case ny > fullCover:
		off := (noise - 0.5) * jitterRange
		d = [4]float32{
			clamp01(SnowColor[0] + off),
			clamp01(SnowColor[1] + off),
			clamp01(SnowColor[2] + off),
			1,
		}
		m[0], m[1], m[2] = 0, 0, 0
	case ny > partCover:
		sp := clamp01((ny-0.4)*5 - noise)
		op := 1 - sp
		for i := range d {
			d[i] = SnowColor[i]*sp + diff[i]*op
		}
		m[0], m[1], m[2] = metal[0]*op, metal[1]*op, metal[2]*op
	}
	return d, m
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func put(img *image.NRGBA, x, y int, c [4]float32) {
	i := y*img.Stride + x*4
	img.Pix[i] = raster.To8(c[0])
	img.Pix[i+1] = raster.To8(c[1])
	img.Pix[i+2] = raster.To8(c[2])
	img.Pix[i+3] = raster.To8(c[3])
}
