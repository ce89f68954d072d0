// Package snowmap rasterizes meshes in texture space to find which texels
// of a diffuse texture face upward.
package snowmap

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"snow-texture-generator/internal/mathutil"
	"snow-texture-generator/internal/raster"
	"snow-texture-generator/internal/rdm"
	"snow-texture-generator/internal/texture"
	"snow-texture-generator/internal/vertexlayout"
)

// Fragment thresholds.
const (
	minGeometryUp = 0.3  // steeper geometry never gets snow
	maxUp         = 0.95 // cap written for flat surfaces
	minAlpha      = 0.1  // transparent texels never get snow
)

// Options configure how draws reduce into a snowmap.
type Options struct {
	// FlatOverwritesSteep keeps the maximum up-component per texel. When
	// false the minimum is kept, so any steep use of a texel wins.
	FlatOverwritesSteep bool
	Wrap                raster.Wrap
}

// Draw is one draw range of a mesh with the material it is drawn with.
type Draw struct {
	Mesh    *rdm.Mesh
	Range   rdm.DrawRange
	Layout  vertexlayout.Layout
	Diffuse *texture.Identity
	Normal  *texture.Identity
}

// Synthesizer owns the snowmaps of one asset, one per diffuse identity.
type Synthesizer struct {
	opts Options
	log  *zap.Logger
	maps map[string]*raster.DepthTarget
}

// New creates a synthesizer with no snowmaps.
func New(opts Options, log *zap.Logger) *Synthesizer {
	return &Synthesizer{
		opts: opts,
		log:  log,
		maps: make(map[string]*raster.DepthTarget),
	}
}

// Map returns the snowmap of a diffuse identity, if any draw used it.
func (s *Synthesizer) Map(diffuseKey string) (*raster.DepthTarget, bool) {
	t, ok := s.maps[diffuseKey]
	return t, ok
}

func (s *Synthesizer) target(id *texture.Identity) (*raster.DepthTarget, error) {
	if t, ok := s.maps[id.Key]; ok {
		return t, nil
	}
	b := id.Bounds()
	fn, clear := raster.DepthLess, float32(1)
	if s.opts.FlatOverwritesSteep {
		fn, clear = raster.DepthGreater, 0
	}
	t, err := raster.NewDepthTarget(b.Dx(), b.Dy(), fn)
	if err != nil {
		return nil, fmt.Errorf("snowmap for %s: %w", id.RelPath, err)
	}
	t.Clear(clear)
	s.maps[id.Key] = t
	s.log.Debug("snowmap created",
		zap.String("texture", id.RelPath),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Stringer("depth_func", fn))
	return t, nil
}

// corner holds the per-vertex inputs of the fragment rule.
type corner struct {
	n, g, b mathutil.Vec3
	uv      [2]float64
}

// Render rasterizes one draw into the snowmap of its diffuse texture.
func (s *Synthesizer) Render(d Draw) error {
	t, err := s.target(d.Diffuse)
	if err != nil {
		return err
	}
	if d.Layout.Stride > d.Mesh.VertexStride {
		return fmt.Errorf("%w: layout %s needs %d bytes per vertex, mesh has %d",
			vertexlayout.ErrCorrupt, d.Layout, d.Layout.Stride, d.Mesh.VertexStride)
	}
	r := vertexlayout.Reader{Layout: d.Layout, Data: d.Mesh.Vertices, Stride: d.Mesh.VertexStride}
	diffuse := d.Diffuse.Surface
	normal := d.Normal.Surface

	var c [3]corner
	frag := func(x, y int, w [3]float64) {
		t.Write(x, y, shade(&c, w, diffuse, normal))
	}

	tris := d.Mesh.Triangles(d.Range)
	skipped := 0
	for i := 0; i < tris; i++ {
		idx, ok := d.Mesh.Corners(d.Range, i)
		if !ok {
			skipped++
			continue
		}
		var uv [3][2]float64
		for k, vi := range idx {
			c[k] = corner{
				n:  mathutil.Vec3From(r.Attr(vertexlayout.Normal, vi)),
				g:  mathutil.Vec3From(r.Attr(vertexlayout.Tangent, vi)),
				b:  mathutil.Vec3From(r.Attr(vertexlayout.Bitangent, vi)),
				uv: uvOf(r.Attr(vertexlayout.TexCoord, vi)),
			}
			uv[k] = c[k].uv
		}
		raster.RasterizeUV(t.Width, t.Height, uv, s.opts.Wrap, frag)
	}
	if skipped > 0 {
		s.log.Warn("triangles reference vertices outside the mesh",
			zap.String("texture", d.Diffuse.RelPath),
			zap.Int("skipped", skipped))
	}
	return nil
}

// shade computes the snowmap value of one fragment: the up component of
// the surface normal after applying the normal map, or 0 where the
// geometry is steep or the diffuse texture is transparent.
func shade(c *[3]corner, w [3]float64, diffuse, normal *image.NRGBA) float32 {
	lerp := func(a, b, cc mathutil.Vec3) mathutil.Vec3 {
		return a.Scale(w[0]).Add(b.Scale(w[1])).Add(cc.Scale(w[2])).Unsigned()
	}
	n := lerp(c[0].n, c[1].n, c[2].n)
	if n[1] < minGeometryUp {
		return 0
	}
	frame := mathutil.Mat3Columns(n, lerp(c[0].g, c[1].g, c[2].g), lerp(c[0].b, c[1].b, c[2].b))

	u := c[0].uv[0]*w[0] + c[1].uv[0]*w[1] + c[2].uv[0]*w[2]
	v := c[0].uv[1]*w[0] + c[1].uv[1]*w[1] + c[2].uv[1]*w[2]

	nm := raster.SampleBilinear(normal, u, v)
	ty := float64(nm[0])*-2 + 1
	tz := float64(nm[1])*-2 + 1
	tx := 1 - ty*ty - tz*tz

	up := frame.MulVec3(mathutil.Vec3{tx, ty, tz})[1]
	if up < 0 {
		up = 0
	} else if up > maxUp {
		up = maxUp
	}
	if raster.SampleBilinear(diffuse, u, v)[3] < minAlpha {
		up = 0
	}
	return float32(up)
}

func uvOf(a [4]float32) [2]float64 { return [2]float64{float64(a[0]), float64(a[1])} }
