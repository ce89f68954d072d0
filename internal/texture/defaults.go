package texture

import (
	"image"
	"image/color"
	"strings"
)

// defaultRel are the data-relative paths of the built-in fallbacks.
var defaultRel = [KindCount]string{
	"data/graphics/effects/default_model_diffuse_0.dds",
	"data/graphics/effects/default_model_normal_0.dds",
	"data/graphics/effects/default_model_mask_0.dds",
}

var defaultColor = [KindCount]color.NRGBA{
	{255, 255, 255, 255},
	{128, 128, 255, 255},
	{0, 0, 0, 255},
}

// Defaults holds the immutable 1×1 fallback surfaces. One value is shared
// by every asset of a run.
type Defaults struct {
	surfaces [KindCount]*image.NRGBA
}

// NewDefaults builds the fallback surfaces.
func NewDefaults() *Defaults {
	d := &Defaults{}
	for k := range d.surfaces {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, defaultColor[k])
		d.surfaces[k] = img
	}
	return d
}

// Surface returns the fallback for a kind. Callers must not modify it.
func (d *Defaults) Surface(k Kind) *image.NRGBA {
	return d.surfaces[k]
}

// RelPath returns the data-relative path of the fallback for a kind.
func (d *Defaults) RelPath(k Kind) string {
	return defaultRel[k]
}

// IsDefaultName reports whether a path names one of the fallbacks.
func IsDefaultName(path string) bool {
	return strings.Contains(strings.ToLower(path), "default_model_")
}
