package texture

import (
	"errors"
	"image"
)

// ErrDecode marks a texture that exists but cannot be decoded.
var ErrDecode = errors.New("texture: decode failed")

// Kind is the role a texture plays in a material. The values match the
// slot order of asset configs.
type Kind int

const (
	Diffuse Kind = iota
	Normal
	Metallic
	KindCount
)

func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Normal:
		return "normal"
	case Metallic:
		return "metallic"
	}
	return "unknown"
}

// Identity is one distinct texture of an asset, shared by every material
// slot that references the same file.
type Identity struct {
	Key        string // lowercase data-relative path
	Kind       Kind   // kind of the first reference
	RelPath    string // data-relative path of mip level 0
	SourcePath string // file the surface is decoded from; empty for defaults
	OutStem    string // output path without mip digit and extension
	MipCount   int

	ShouldSave  bool
	IsDefault   bool
	Blacklisted bool // matched the texture blacklist while filters were off

	Surface      *image.NRGBA // decoded original, never modified
	Snowed       *image.NRGBA // lazily allocated output surface
	SnowComputed bool
	Saved        bool
}

// Bounds returns the size of the decoded surface.
func (id *Identity) Bounds() image.Rectangle {
	if id.Surface == nil {
		return image.Rectangle{}
	}
	return id.Surface.Bounds()
}
