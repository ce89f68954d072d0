// Package preview renders an isometric image of a snowed model for
// visual inspection.
package preview

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"snow-texture-generator/internal/mathutil"
	"snow-texture-generator/internal/postprocess"
	"snow-texture-generator/internal/raster"
	"snow-texture-generator/internal/rdm"
	"snow-texture-generator/internal/vertexlayout"
)

// Options size the rendering.
type Options struct {
	Size        int // output edge length in pixels
	Supersample int // render at Size*Supersample, then downsample
}

// Draw is one draw range with the surface shown on it.
type Draw struct {
	Mesh    *rdm.Mesh
	Range   rdm.DrawRange
	Layout  vertexlayout.Layout
	Texture *image.NRGBA
}

// Renderer draws isometric views. It holds no per-asset state.
type Renderer struct {
	opts  Options
	light raster.LightConfig
}

// New creates a renderer.
func New(opts Options) *Renderer {
	if opts.Size <= 0 {
		opts.Size = 512
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	return &Renderer{opts: opts, light: raster.DefaultLightConfig()}
}

// Render draws every range into one image. The model is scaled so the
// vertex farthest from the origin reaches the image border; higher
// surfaces occlude lower ones.
func (r *Renderer) Render(draws []Draw) (*image.NRGBA, error) {
	size := r.opts.Size * r.opts.Supersample
	fb, err := raster.NewFrameBuffer(size, size)
	if err != nil {
		return nil, err
	}

	radius := meshRadius(draws)
	if radius <= 0 {
		return nil, fmt.Errorf("%w: model has no extent", raster.ErrRaster)
	}
	view := mathutil.Isometric.Scale(1 / radius)
	half := float64(size) / 2

	for _, d := range draws {
		if d.Texture == nil || d.Layout.Stride > d.Mesh.VertexStride {
			continue
		}
		rd := vertexlayout.Reader{Layout: d.Layout, Data: d.Mesh.Vertices, Stride: d.Mesh.VertexStride}
		for t := 0; t < d.Mesh.Triangles(d.Range); t++ {
			idx, ok := d.Mesh.Corners(d.Range, t)
			if !ok {
				continue
			}
			var sv [3]raster.ScreenVertex
			for k, vi := range idx {
				p := view.MulVec3(mathutil.Vec3From(rd.Attr(vertexlayout.Position, vi)))
				uv := rd.Attr(vertexlayout.TexCoord, vi)
				sv[k] = raster.ScreenVertex{
					X: half + p[0]*half,
					Y: half - p[1]*half,
					Z: p[2],
					U: float64(uv[0]),
					V: float64(uv[1]),
				}
			}
			raster.DrawTriangle(fb, sv, d.Texture, &r.light)
		}
	}

	return postprocess.Downsample(fb.Image(), r.opts.Size, r.opts.Size), nil
}

func meshRadius(draws []Draw) float64 {
	var r float64
	for _, d := range draws {
		if d.Layout.Stride > d.Mesh.VertexStride {
			continue
		}
		rd := vertexlayout.Reader{Layout: d.Layout, Data: d.Mesh.Vertices, Stride: d.Mesh.VertexStride}
		for i := 0; i < rd.Count() && i < d.Mesh.VertexCount; i++ {
			if l := mathutil.Vec3From(rd.Attr(vertexlayout.Position, i)).Len(); l > r {
				r = l
			}
		}
	}
	return r
}

// OutputPath returns where the rendering of a config is stored:
// "<out>/debug_renderings/<config path below the data root>.webp".
func OutputPath(outDir, cfgRel string) string {
	rel := strings.TrimSuffix(filepath.FromSlash(cfgRel), filepath.Ext(cfgRel))
	return filepath.Join(outDir, "debug_renderings", rel+".webp")
}

// Save writes img as a lossless WebP file, creating parent directories.
func Save(path string, img *image.NRGBA) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("preview: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: create %s: %w", path, err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("preview: encode %s: %w", path, err)
	}
	return f.Close()
}
