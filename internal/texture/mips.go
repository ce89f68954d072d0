package texture

import (
	"image"
	"path"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// minGeneratedMipSize is the smallest level-0 edge for which a source with
// a single level still gets a generated chain.
const minGeneratedMipSize = 32

// generatedMips is the chain length used for single-level sources.
const generatedMips = 4

// OutputMipCount decides how many levels to emit for a surface of the
// given size whose source had srcMips levels. A source with no level files
// yields 0 and nothing is encoded.
func OutputMipCount(srcMips int, size image.Point) int {
	if srcMips <= 0 {
		return 0
	}
	if srcMips == 1 && size.X >= minGeneratedMipSize && size.Y >= minGeneratedMipSize {
		return generatedMips
	}
	return srcMips
}

// MipChain returns level 0 followed by successively halved levels,
// filtered bilinearly. Edges never drop below one texel.
func MipChain(img *image.NRGBA, levels int) []*image.NRGBA {
	if levels < 1 {
		levels = 1
	}
	chain := make([]*image.NRGBA, 0, levels)
	chain = append(chain, img)
	prev := img
	for i := 1; i < levels; i++ {
		w := max(prev.Rect.Dx()/2, 1)
		h := max(prev.Rect.Dy()/2, 1)
		next := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Rect, prev, prev.Rect, draw.Src, nil)
		chain = append(chain, next)
		prev = next
	}
	return chain
}

// MipLevelPath returns the path of mip level i of a texture whose level 0
// is rel0, e.g. ("x/a_0.dds", 2) -> "x/a_2.dds".
func MipLevelPath(rel0 string, i int) string {
	ext := path.Ext(rel0)
	return StripMipSuffix(rel0) + strconv.Itoa(i) + ext
}

// StripMipSuffix removes the extension and one trailing mip digit.
func StripMipSuffix(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	if n := len(p); n > 0 && p[n-1] >= '0' && p[n-1] <= '9' {
		p = p[:n-1]
	}
	return p
}
