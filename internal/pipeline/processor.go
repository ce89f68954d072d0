// Package pipeline turns one asset configuration into snowed textures.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"snow-texture-generator/internal/cfgfile"
	"snow-texture-generator/internal/composite"
	"snow-texture-generator/internal/emit"
	"snow-texture-generator/internal/filter"
	"snow-texture-generator/internal/preview"
	"snow-texture-generator/internal/raster"
	"snow-texture-generator/internal/rdm"
	"snow-texture-generator/internal/snowmap"
	"snow-texture-generator/internal/texture"
	"snow-texture-generator/internal/vertexlayout"
)

// Policy holds the per-run switches that shape processing.
type Policy struct {
	FlatOverwritesSteep bool
	SaveNonPrimary      bool
	SavePNG             bool
	SaveCompressed      bool
	SaveRenderings      bool
	Wrap                raster.Wrap
}

// MeshLoader loads mesh files.
type MeshLoader interface {
	LoadMesh(path string) (*rdm.Mesh, error)
}

// FileMeshes loads meshes from disk.
type FileMeshes struct{}

// LoadMesh implements MeshLoader.
func (FileMeshes) LoadMesh(path string) (*rdm.Mesh, error) { return rdm.Load(path) }

// Environment holds the resources shared by every asset of a run. All of
// them are read-only or safe for concurrent use.
type Environment struct {
	DataRoot     string // overrides the root derived from config paths
	ExtractedDir string
	OutDir       string
	Filters      filter.Lists

	Codec    texture.Codec
	Meshes   MeshLoader
	Defaults *texture.Defaults
	Noise    *composite.Noise
	Preview  *preview.Renderer // nil disables renderings
	Log      *zap.Logger
}

// Report is the outcome of one asset.
type Report struct {
	Asset    string
	Success  bool
	Skipped  bool
	Written  int
	Messages []string
	Err      error
	Warnings error
	Duration time.Duration
}

// Kind classifies the failure of the report.
func (r Report) Kind() ErrorKind { return Classify(r.Err) }

// Processor runs assets with a fixed environment and policy.
type Processor struct {
	env    Environment
	policy Policy
}

// NewProcessor creates a processor. A nil logger is replaced by a no-op.
func NewProcessor(env Environment, policy Policy) *Processor {
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	if env.Meshes == nil {
		env.Meshes = FileMeshes{}
	}
	if env.Defaults == nil {
		env.Defaults = texture.NewDefaults()
	}
	if env.Noise == nil {
		env.Noise = composite.NewNoise(composite.DefaultNoiseSize, 0)
	}
	return &Processor{env: env, policy: policy}
}

// Process loads the config at path and processes it.
func (p *Processor) Process(ctx context.Context, path string) Report {
	start := time.Now()
	asset, err := cfgfile.Load(path, p.env.DataRoot)
	if err != nil {
		return Report{Asset: path, Err: err, Messages: []string{err.Error()}, Duration: time.Since(start)}
	}
	r := p.ProcessAsset(ctx, asset)
	r.Duration = time.Since(start)
	return r
}

// material is a config material with its resolved textures and layout.
type material struct {
	layout vertexlayout.Layout
	ids    [texture.KindCount]*texture.Identity
}

// needsSnow reports whether any composited output of the material is saved.
func (m *material) needsSnow() bool {
	return m.ids[texture.Diffuse].ShouldSave || m.ids[texture.Metallic].ShouldSave
}

type model struct {
	mesh      *rdm.Mesh
	materials []material
}

// materialFor returns the material a draw range uses. Indices past the
// end select the last material.
func (m *model) materialFor(r rdm.DrawRange) *material {
	i := r.Material
	if i >= len(m.materials) {
		i = len(m.materials) - 1
	}
	if i < 0 {
		return nil
	}
	return &m.materials[i]
}

// eachDraw calls fn for every draw range that resolves to a material.
func eachDraw(models []model, fn func(m *model, r rdm.DrawRange, mat *material)) {
	for i := range models {
		m := &models[i]
		for _, r := range m.mesh.Ranges {
			if mat := m.materialFor(r); mat != nil {
				fn(m, r, mat)
			}
		}
	}
}

// ProcessAsset runs every stage for one parsed asset. Failures abort the
// asset and are returned in the report; failed outputs are warnings.
func (p *Processor) ProcessAsset(ctx context.Context, asset *cfgfile.Asset) Report {
	log := p.env.Log.With(zap.String("asset", asset.Path))
	rep := Report{Asset: asset.Path}
	for _, w := range asset.Warnings {
		log.Warn(w)
		rep.Messages = append(rep.Messages, w)
	}

	fail := func(err error) Report {
		rep.Err = err
		rep.Messages = append(rep.Messages, err.Error())
		log.Error("asset failed", zap.Error(err), zap.String("kind", string(Classify(err))))
		return rep
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	cache := texture.NewCache(texture.ResolveOptions{
		DataRoot:       asset.DataRoot,
		ExtractedDir:   p.env.ExtractedDir,
		OutDir:         p.env.OutDir,
		SaveNonPrimary: p.policy.SaveNonPrimary,
		Filters:        p.env.Filters,
	}, p.env.Codec, p.env.Defaults)

	models := make([]model, len(asset.Models))
	for i, cm := range asset.Models {
		for _, cmat := range cm.Materials {
			var m material
			for k := texture.Kind(0); k < texture.KindCount; k++ {
				ref := cmat.Textures[k]
				m.ids[k] = cache.Resolve(ref.Path, ref.Enabled, k)
			}
			models[i].materials = append(models[i].materials, m)
		}
	}

	if !cache.AnyShouldSave() {
		rep.Skipped = true
		rep.Success = true
		rep.Messages = append(rep.Messages, "no textures to generate snow for")
		log.Info("asset skipped, no textures to save")
		return rep
	}

	for i, cm := range asset.Models {
		mesh, err := p.env.Meshes.LoadMesh(asset.DataRoot + cm.MeshFile)
		if err != nil {
			return fail(fmt.Errorf("load mesh %s: %w", cm.MeshFile, err))
		}
		models[i].mesh = mesh
		for j, cmat := range cm.Materials {
			layout, err := vertexlayout.Decode(cmat.VertexFormat)
			if err != nil {
				return fail(fmt.Errorf("model %s material %d: %w", cm.MeshFile, j, err))
			}
			models[i].materials[j].layout = layout
		}
		if len(cm.Materials) == 0 && len(mesh.Ranges) > 0 {
			msg := fmt.Sprintf("model %s has draw ranges but no materials", cm.MeshFile)
			log.Warn(msg)
			rep.Messages = append(rep.Messages, msg)
		}
	}

	// A snowmap covers every draw of its diffuse texture, including draws
	// whose own material saves nothing.
	snowy := make(map[string]bool)
	eachDraw(models, func(_ *model, _ rdm.DrawRange, mat *material) {
		if mat.needsSnow() {
			snowy[mat.ids[texture.Diffuse].Key] = true
		}
	})
	renderings := p.policy.SaveRenderings && p.env.Preview != nil
	var load []*texture.Identity
	eachDraw(models, func(_ *model, _ rdm.DrawRange, mat *material) {
		diff := mat.ids[texture.Diffuse]
		if snowy[diff.Key] {
			load = append(load, diff, mat.ids[texture.Normal])
		}
		if mat.needsSnow() {
			load = append(load, mat.ids[texture.Metallic])
		}
		if renderings {
			load = append(load, diff)
		}
	})
	if err := cache.Load(load...); err != nil {
		return fail(err)
	}

	synth := snowmap.New(snowmap.Options{
		FlatOverwritesSteep: p.policy.FlatOverwritesSteep,
		Wrap:                p.policy.Wrap,
	}, log)
	for i := range models {
		m := &models[i]
		for _, r := range m.mesh.Ranges {
			mat := m.materialFor(r)
			if mat == nil || !snowy[mat.ids[texture.Diffuse].Key] {
				continue
			}
			err := synth.Render(snowmap.Draw{
				Mesh:    m.mesh,
				Range:   r,
				Layout:  mat.layout,
				Diffuse: mat.ids[texture.Diffuse],
				Normal:  mat.ids[texture.Normal],
			})
			if err != nil {
				return fail(err)
			}
		}
	}

	comp := composite.New(p.env.Noise, log)
	groups := 0
	eachDraw(models, func(_ *model, _ rdm.DrawRange, mat *material) {
		diff := mat.ids[texture.Diffuse]
		snow, _ := synth.Map(diff.Key)
		g := composite.Group{Diffuse: diff, Normal: mat.ids[texture.Normal], Metallic: mat.ids[texture.Metallic]}
		if comp.Composite(g, snow, cache) {
			groups++
		}
	})

	if renderings {
		if err := p.render(models, asset); err != nil {
			rep.Warnings = multierr.Append(rep.Warnings, fmt.Errorf("%w: %v", errEmission, err))
			rep.Messages = append(rep.Messages, err.Error())
			log.Warn("debug rendering failed", zap.Error(err))
		}
	}

	em := emit.New(emit.Options{SavePNG: p.policy.SavePNG, SaveCompressed: p.policy.SaveCompressed}, p.env.Codec, log)
	written, err := em.Emit(cache.Identities())
	rep.Written = written
	for _, e := range multierr.Errors(err) {
		rep.Warnings = multierr.Append(rep.Warnings, fmt.Errorf("%w: %v", errEmission, e))
		rep.Messages = append(rep.Messages, e.Error())
	}

	rep.Success = true
	log.Info("asset done", zap.Int("groups", groups), zap.Int("written", written))
	return rep
}

func (p *Processor) render(models []model, asset *cfgfile.Asset) error {
	var draws []preview.Draw
	eachDraw(models, func(m *model, r rdm.DrawRange, mat *material) {
		diff := mat.ids[texture.Diffuse]
		tex := diff.Snowed
		if tex == nil {
			tex = diff.Surface
		}
		draws = append(draws, preview.Draw{Mesh: m.mesh, Range: r, Layout: mat.layout, Texture: tex})
	})
	img, err := p.env.Preview.Render(draws)
	if err != nil {
		return err
	}
	return preview.Save(preview.OutputPath(p.env.OutDir, asset.RelPath()), img)
}
