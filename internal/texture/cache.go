package texture

import (
	"fmt"
	"image"
	"path"
	"sort"
	"strings"

	"snow-texture-generator/internal/filter"
)

// ResolveOptions locate texture trees and decide which textures are saved.
type ResolveOptions struct {
	DataRoot       string // primary tree, contains "data/"
	ExtractedDir   string // optional fallback tree with extracted game data
	OutDir         string
	SaveNonPrimary bool
	Filters        filter.Lists
}

// Cache holds the identities of one asset. It is not safe for concurrent
// use; each asset owns its own cache.
type Cache struct {
	opts     ResolveOptions
	codec    Codec
	defaults *Defaults
	ids      map[string]*Identity
}

// NewCache creates an empty identity cache.
func NewCache(opts ResolveOptions, codec Codec, defaults *Defaults) *Cache {
	return &Cache{
		opts:     opts,
		codec:    codec,
		defaults: defaults,
		ids:      make(map[string]*Identity),
	}
}

// Resolve maps a texture reference to its identity. Every reference to
// the same file yields the same *Identity. Disabled, blacklisted and
// missing references resolve to the default of the kind.
func (c *Cache) Resolve(rel string, enabled bool, kind Kind) *Identity {
	if !enabled || rel == "" {
		return c.defaultFor(kind)
	}
	rel = strings.ReplaceAll(rel, `\`, "/")
	forbidden := c.opts.Filters.IsForbiddenTexture(rel)
	if forbidden && c.opts.Filters.Enabled {
		return c.defaultFor(kind)
	}
	if ext := strings.ToLower(path.Ext(rel)); ext == ".psd" || ext == ".png" {
		rel = rel[:len(rel)-len(ext)] + "_0.dds"
	}

	key := strings.ToLower(rel)
	if id, ok := c.ids[key]; ok {
		return id
	}

	var src string
	var save bool
	switch {
	case c.codec.Exists(joinRoot(c.opts.DataRoot, rel)):
		src, save = joinRoot(c.opts.DataRoot, rel), true
	case c.opts.ExtractedDir != "" && c.codec.Exists(joinRoot(c.opts.ExtractedDir, rel)):
		src, save = joinRoot(c.opts.ExtractedDir, rel), c.opts.SaveNonPrimary
	default:
		return c.defaultFor(kind)
	}

	id := &Identity{
		Key:         key,
		Kind:        kind,
		RelPath:     rel,
		SourcePath:  src,
		OutStem:     StripMipSuffix(joinRoot(c.opts.OutDir, rel)),
		MipCount:    c.countMips(src),
		ShouldSave:  save,
		Blacklisted: forbidden,
	}
	c.ids[key] = id
	return id
}

func (c *Cache) defaultFor(kind Kind) *Identity {
	rel := c.defaults.RelPath(kind)
	key := strings.ToLower(rel)
	if id, ok := c.ids[key]; ok {
		return id
	}
	id := &Identity{
		Key:       key,
		Kind:      kind,
		RelPath:   rel,
		OutStem:   StripMipSuffix(joinRoot(c.opts.OutDir, rel)),
		MipCount:  1,
		IsDefault: true,
		Surface:   c.defaults.Surface(kind),
	}
	c.ids[key] = id
	return id
}

// countMips counts consecutive levels "<stem>0", "<stem>1", ... present
// next to the source file.
func (c *Cache) countMips(src string) int {
	n := 0
	for c.codec.Exists(MipLevelPath(src, n)) {
		n++
	}
	return n
}

// AnyShouldSave reports whether at least one resolved identity is saved.
func (c *Cache) AnyShouldSave() bool {
	for _, id := range c.ids {
		if id.ShouldSave {
			return true
		}
	}
	return false
}

// Load decodes the given identities that have no surface yet. Any failure
// aborts, since a half-loaded asset cannot be composited.
func (c *Cache) Load(ids ...*Identity) error {
	for _, id := range ids {
		if id == nil || id.Surface != nil {
			continue
		}
		img, err := c.codec.Decode(id.SourcePath)
		if err != nil {
			return fmt.Errorf("texture: load %s: %w", id.RelPath, err)
		}
		id.Surface = img
	}
	return nil
}

// SnowedTarget returns the output surface of id, allocating it with the
// given bounds on first use.
func (c *Cache) SnowedTarget(id *Identity, bounds image.Rectangle) *image.NRGBA {
	if id.Snowed == nil {
		id.Snowed = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}
	return id.Snowed
}

// Identities returns all identities ordered by key.
func (c *Cache) Identities() []*Identity {
	out := make([]*Identity, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Release drops the surfaces of an identity. Default surfaces are shared
// and only the reference is dropped.
func (id *Identity) Release() {
	id.Surface = nil
	id.Snowed = nil
}

func joinRoot(root, rel string) string {
	if root == "" {
		return rel
	}
	if strings.HasSuffix(root, "/") || strings.HasSuffix(root, `\`) {
		return root + rel
	}
	return root + "/" + rel
}
